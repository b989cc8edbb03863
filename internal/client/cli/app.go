// Package cli implements the interactive Authgate command-line client.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmitrijs2005/authgate/internal/client/client"
	"github.com/dmitrijs2005/authgate/internal/client/config"
)

// apiClient is the server API surface the CLI needs. The real
// client.AuthClient satisfies it; tests provide a stub.
type apiClient interface {
	Register(ctx context.Context, identifier string, password []byte) (string, error)
	Login(ctx context.Context, identifier string, password []byte) (*client.Session, error)
	Whoami(ctx context.Context, session *client.Session) (int64, error)
}

type App struct {
	config     *config.Config
	api        apiClient
	session    *client.Session
	identifier string
	reader     *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	api := client.NewAuthClient(c.ServerEndpointAddr, c.RequestTimeout)
	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) getStatus() string {
	if a.identifier == "" {
		return ""
	}
	return "(" + a.identifier + ")"
}
