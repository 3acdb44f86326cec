// Package cli is the interactive cashcare shell.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/client/client"
	"github.com/dmitrijs2005/cashcare/internal/client/config"
	"github.com/dmitrijs2005/cashcare/internal/client/services"
	"github.com/dmitrijs2005/cashcare/internal/filex"
	pb "github.com/dmitrijs2005/cashcare/internal/proto"
)

const sessionDBName = "session.db"

// Session is what the shell needs from services.SessionService.
type Session interface {
	Restore(ctx context.Context) (string, error)
	Register(ctx context.Context, email string, password []byte, name, phone string) (string, error)
	Login(ctx context.Context, email string, password []byte) error
	WhoAmI(ctx context.Context) (*pb.Profile, error)
	Refresh(ctx context.Context) (time.Time, error)
	Logout(ctx context.Context) error
	Close() error
}

type App struct {
	config  *config.Config
	session Session
	reader  *bufio.Reader
	out     io.Writer
	email   string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	dir, err := filex.EnsurePrivateDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, sessionDBName))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := newApp(c, services.NewSessionService(apiClient, db), os.Stdin, os.Stdout)
	if app.email, err = app.session.Restore(ctx); err != nil {
		_ = app.session.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, s Session, in io.Reader, out io.Writer) *App {
	return &App{config: c, session: s, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) {
	defer a.session.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

// call bounds one server round trip by the configured timeout.
func (a *App) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return fn(ctx)
}
