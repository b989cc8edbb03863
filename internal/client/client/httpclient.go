// Package client implements the HTTP API client of the Authgate server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// ErrUnavailable marks transport-level failures (connection refused,
// timeouts) as opposed to application rejections.
var ErrUnavailable = errors.New("server unavailable")

var authHeaderPattern = regexp.MustCompile(`^Bearer: (.*):([0-9]*)$`)

// Session is the client-side copy of an authenticated session. The token is
// single-use: every authenticated call replaces it with the rotated one from
// the response header.
type Session struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
	Opaque string `json:"opaque"`
}

// AuthHeader renders the session as the authorization header value the
// server expects.
func (s *Session) AuthHeader() string {
	return fmt.Sprintf("Bearer: %s:%d", s.Token, s.UserID)
}

type AuthClient struct {
	baseURL string
	httpc   *http.Client
}

func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (c *AuthClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func readError(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return strings.TrimSpace(string(b))
}

// Register creates an account. The password slice is not retained.
func (c *AuthClient) Register(ctx context.Context, identifier string, password []byte) (string, error) {

	resp, err := c.post(ctx, "/api/register", credentialsRequest{Identifier: identifier, Password: string(password)})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Identifier string `json:"identifier"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", err
		}
		return out.Identifier, nil
	case http.StatusConflict:
		return "", common.ErrorDuplicateIdentifier
	case http.StatusBadRequest:
		return "", errors.New(readError(resp))
	default:
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readError(resp))
	}
}

// Login authenticates and returns the fresh session.
func (c *AuthClient) Login(ctx context.Context, identifier string, password []byte) (*Session, error) {

	resp, err := c.post(ctx, "/api/login", credentialsRequest{Identifier: identifier, Password: string(password)})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		session := &Session{}
		if err := json.NewDecoder(resp.Body).Decode(session); err != nil {
			return nil, err
		}
		return session, nil
	case http.StatusUnauthorized:
		return nil, common.ErrorInvalidCredentials
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readError(resp))
	}
}

// Whoami asks the server who the session belongs to. On success the session
// is updated in place with the rotated token from the response header; the
// old token is spent either way.
func (c *AuthClient) Whoami(ctx context.Context, session *Session) (int64, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/whoami", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(common.AuthorizationHeaderName, session.AuthHeader())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			UserID int64 `json:"user_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return 0, err
		}
		if err := session.applyRotatedHeader(resp.Header.Get(common.AuthorizationHeaderName)); err != nil {
			return 0, err
		}
		return out.UserID, nil
	case http.StatusForbidden:
		return 0, common.ErrorUnauthorizedAccess
	default:
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readError(resp))
	}
}

func (s *Session) applyRotatedHeader(header string) error {
	m := authHeaderPattern.FindStringSubmatch(header)
	if m == nil {
		return fmt.Errorf("malformed rotated authorization header %q", header)
	}
	userID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return fmt.Errorf("malformed rotated authorization header %q", header)
	}
	s.Token = m[1]
	s.UserID = userID
	return nil
}
