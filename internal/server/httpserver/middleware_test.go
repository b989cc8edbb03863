package httpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type stubAuth struct {
	registerOut string
	registerErr error

	loginOut *services.Session
	loginErr error

	verifyOut   *services.Session
	verifyErr   error
	verifyCalls int
	gotUserID   int64
	gotToken    string
}

func (a *stubAuth) Register(ctx context.Context, identifier, password string) (string, error) {
	if a.registerErr != nil {
		return "", a.registerErr
	}
	return a.registerOut, nil
}

func (a *stubAuth) Login(ctx context.Context, identifier, password string) (*services.Session, error) {
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	return a.loginOut, nil
}

func (a *stubAuth) VerifyAndRotate(ctx context.Context, userID int64, tokenString string) (*services.Session, error) {
	a.verifyCalls++
	a.gotUserID = userID
	a.gotToken = tokenString
	if a.verifyErr != nil {
		return nil, a.verifyErr
	}
	return a.verifyOut, nil
}

func newTestServer(t *testing.T, auth AuthProvider) *HTTPServer {
	t.Helper()
	s, err := NewHTTPServer(":0", testLogger(), auth)
	require.NoError(t, err)
	return s
}

// probe records whether (and with what principal) the downstream handler ran.
type probe struct {
	calls  int
	userID int64
	hasID  bool
}

func (p *probe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.calls++
		p.userID, p.hasID = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestGate_NoHeaderPassesThroughUnauthenticated(t *testing.T) {
	auth := &stubAuth{}
	s := newTestServer(t, auth)
	p := &probe{}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	s.authenticationGate(p.handler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.calls)
	assert.False(t, p.hasID)
	assert.Equal(t, 0, auth.verifyCalls)
}

func TestGate_MalformedHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "garbage", header: "INVALID"},
		{name: "wrong scheme", header: "Basic: abc:1"},
		{name: "non-numeric id", header: "Bearer: sometoken:abc"},
		{name: "empty id", header: "Bearer: sometoken:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &stubAuth{}
			s := newTestServer(t, auth)
			p := &probe{}

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(common.AuthorizationHeaderName, tt.header)
			rec := httptest.NewRecorder()
			s.authenticationGate(p.handler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, 0, p.calls, "downstream handler must not run")
			assert.Equal(t, 0, auth.verifyCalls)
		})
	}
}

func TestGate_ValidHeaderAdmitsAndRotates(t *testing.T) {
	rotated := &services.Session{UserID: 7, Token: "fresh-token", Opaque: "fresh-opaque"}
	auth := &stubAuth{verifyOut: rotated}
	s := newTestServer(t, auth)
	p := &probe{}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(common.AuthorizationHeaderName, "Bearer: old-token:7")
	rec := httptest.NewRecorder()
	s.authenticationGate(p.handler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.calls)
	assert.True(t, p.hasID)
	assert.Equal(t, int64(7), p.userID)

	assert.Equal(t, int64(7), auth.gotUserID)
	assert.Equal(t, "old-token", auth.gotToken)

	// replacement header for the next request
	assert.Equal(t, "Bearer: fresh-token:7", rec.Header().Get(common.AuthorizationHeaderName))
}

func TestGate_FailedVerificationRejects(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "invalid token", err: common.ErrorInvalidToken},
		{name: "no active session", err: common.ErrorInvalidOpaque},
		{name: "replay", err: common.ErrorUnauthorizedAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &stubAuth{verifyErr: tt.err}
			s := newTestServer(t, auth)
			p := &probe{}

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(common.AuthorizationHeaderName, "Bearer: some-token:7")
			rec := httptest.NewRecorder()
			s.authenticationGate(p.handler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, 0, p.calls)
		})
	}
}

// rotatingAuth emulates single-use tokens: the expected token changes after
// every successful verification, and a replay revokes the session.
type rotatingAuth struct {
	stubAuth
	userID   int64
	expected string
	seq      int
	revoked  bool
}

func (a *rotatingAuth) VerifyAndRotate(ctx context.Context, userID int64, tokenString string) (*services.Session, error) {
	a.verifyCalls++
	if a.revoked {
		return nil, common.ErrorInvalidOpaque
	}
	if userID != a.userID || tokenString != a.expected {
		a.revoked = true
		return nil, common.ErrorUnauthorizedAccess
	}
	a.seq++
	a.expected = fmt.Sprintf("token-%d", a.seq)
	return &services.Session{UserID: userID, Token: a.expected, Opaque: fmt.Sprintf("opaque-%d", a.seq)}, nil
}

func TestGate_ReplayedHeaderRevokesSession(t *testing.T) {
	auth := &rotatingAuth{userID: 7, expected: "token-0"}
	s := newTestServer(t, auth)
	p := &probe{}
	gate := s.authenticationGate(p.handler())

	header := "Bearer: token-0:7"

	// first presentation succeeds and hands back a rotated header
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(common.AuthorizationHeaderName, header)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	next := rec.Header().Get(common.AuthorizationHeaderName)
	require.Equal(t, "Bearer: token-1:7", next)

	// replaying the original header is rejected and kills the session
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(common.AuthorizationHeaderName, header)
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, auth.revoked)

	// the legitimately rotated header is dead too until the next login
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(common.AuthorizationHeaderName, next)
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, 1, p.calls)
}
