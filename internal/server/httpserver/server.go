// Package httpserver exposes the authentication API over HTTP and hosts the
// authentication gate every request passes through.
package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/services"
)

// AuthProvider is the service surface the HTTP layer needs.
type AuthProvider interface {
	Register(ctx context.Context, identifier string, password string) (string, error)
	Login(ctx context.Context, identifier string, password string) (*services.Session, error)
	VerifyAndRotate(ctx context.Context, userID int64, tokenString string) (*services.Session, error)
}

type HTTPServer struct {
	address string
	auth    AuthProvider
	logger  logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, auth AuthProvider) (*HTTPServer, error) {
	return &HTTPServer{
		address: a,
		auth:    auth,
		logger:  l.With("module", "http_server"),
	}, nil
}

// Handler builds the full route table with the authentication gate applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/whoami", s.handleWhoami)

	return s.authenticationGate(mux)
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = srv.Shutdown(context.Background())
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
