package httpserver

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/services"
)

// Expected header shape: "Bearer: <signed token>:<numeric user id>".
var authHeaderPattern = regexp.MustCompile(`^Bearer: (.*):([0-9]*)$`)

// FormatAuthHeader renders a session as an authorization header value that
// authenticationGate accepts back.
func FormatAuthHeader(session *services.Session) string {
	return fmt.Sprintf("Bearer: %s:%d", session.Token, session.UserID)
}

// authenticationGate is the single verification choke-point for incoming
// requests. Requests without an authorization header pass through
// unauthenticated; a malformed header stops the request with 401; a
// well-formed header is verified and rotated, and either the request
// continues with the user id in its context and the fresh header on the
// response, or it stops with 403. The downstream handler is never invoked
// on a rejection.
func (s *HTTPServer) authenticationGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		m := authHeaderPattern.FindStringSubmatch(header)
		if m == nil {
			http.Error(w, "malformed authorization header", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			http.Error(w, "malformed authorization header", http.StatusUnauthorized)
			return
		}

		session, err := s.auth.VerifyAndRotate(r.Context(), userID, m[1])
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// The stored opaque value just rotated, so the presented token is
		// spent. Hand the replacement back with the response.
		w.Header().Set(common.AuthorizationHeaderName, FormatAuthHeader(session))

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}
