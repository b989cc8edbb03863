package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRegister_Success(t *testing.T) {
	auth := &stubAuth{registerOut: "alice@example.com"}
	s := newTestServer(t, auth)

	body := `{"identifier":"alice@example.com","password":"Passw0rd!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice@example.com", resp.Identifier)
}

func TestHandleRegister_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid email", err: common.ErrorInvalidEmail, want: http.StatusBadRequest},
		{name: "weak password", err: common.ErrorWeakPassword, want: http.StatusBadRequest},
		{name: "duplicate", err: common.ErrorDuplicateIdentifier, want: http.StatusConflict},
		{name: "database", err: common.ErrorDatabase, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubAuth{registerErr: tt.err})

			body := `{"identifier":"alice@example.com","password":"Passw0rd!"}`
			req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleRegister_BadBody(t *testing.T) {
	s := newTestServer(t, &stubAuth{})

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogin_Success(t *testing.T) {
	session := &services.Session{UserID: 7, Token: "signed", Opaque: "opaquevalue"}
	s := newTestServer(t, &stubAuth{loginOut: session})

	body := `{"identifier":"alice@example.com","password":"Passw0rd!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer: signed:7", rec.Header().Get(common.AuthorizationHeaderName))

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.UserID)
	assert.Equal(t, "signed", resp.Token)
	assert.Equal(t, "opaquevalue", resp.Opaque)
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer(t, &stubAuth{loginErr: common.ErrorInvalidCredentials})

	body := `{"identifier":"alice@example.com","password":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleWhoami(t *testing.T) {
	rotated := &services.Session{UserID: 42, Token: "fresh", Opaque: "o"}
	s := newTestServer(t, &stubAuth{verifyOut: rotated})

	// authenticated
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set(common.AuthorizationHeaderName, "Bearer: tok:42")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp whoamiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.UserID)

	// unauthenticated
	req = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
