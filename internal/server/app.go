// Package server wires configuration, storage, and the auth service
// together and runs the gRPC endpoint until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/dbx"
	"github.com/dmitrijs2005/cashcare/internal/logging"
	"github.com/dmitrijs2005/cashcare/internal/server/auth"
	"github.com/dmitrijs2005/cashcare/internal/server/config"
	gs "github.com/dmitrijs2005/cashcare/internal/server/grpc"
	"github.com/dmitrijs2005/cashcare/internal/server/passwords"
	"github.com/dmitrijs2005/cashcare/internal/server/ratelimit"
	"github.com/dmitrijs2005/cashcare/internal/server/repositories/memory"
	"github.com/dmitrijs2005/cashcare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cashcare/internal/server/services"
	"github.com/dmitrijs2005/cashcare/internal/server/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
)

const pingTimeout = 5 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	auth      *services.AuthService
	telemetry *telemetry.Provider
	closers   []io.Closer
}

// NewApp builds the service graph. An unreachable database or a failed
// migration is returned as an error and the server must not start.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}
	app := &App{config: c, logger: logger}

	tx, repos, err := app.openStorage(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	hasher, err := passwords.NewArgon2(passwords.Params{
		Memory:     c.Argon2Memory,
		Time:       c.Argon2Time,
		Threads:    c.Argon2Threads,
		SaltLength: passwords.DefaultParams().SaltLength,
		KeyLength:  passwords.DefaultParams().KeyLength,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	issuer, err := auth.NewIssuer(c.SecretKey, c.AccessTokenValidityDuration)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.telemetry = telemetry.NewProvider()
	otel.SetMeterProvider(app.telemetry.MeterProvider())
	metrics, err := telemetry.New(app.telemetry.Meter())
	if err != nil {
		app.Close()
		return nil, err
	}

	ledger := services.NewRefreshLedger(tx, repos, c.RefreshTokenValidityDuration,
		services.WithTokenBytes(c.RefreshTokenBytes),
		services.WithRevokeAllOnReuse(c.RevokeAllOnReuse),
		services.WithLedgerLogger(logger.With("module", "refresh_ledger")),
	)

	opts := []services.AuthOption{
		services.WithMetrics(metrics),
		services.WithLogger(logger.With("module", "auth_service")),
	}
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, client)
		opts = append(opts, services.WithLimiter(ratelimit.New(client, c.MaxLoginAttempts, c.LoginLockoutDuration)))
		logger.Info(ctx, "login throttling enabled", "redis", c.RedisAddr)
	}

	app.auth = services.NewAuthService(tx, repos, hasher, issuer, ledger, opts...)
	return app, nil
}

func (app *App) openStorage(ctx context.Context) (dbx.Transactor, repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == config.MemoryDSN {
		app.logger.Warn(ctx, "using in-memory storage, data is lost on exit")
		store := memory.NewStore()
		return store, memory.NewManager(store), nil
	}

	db, err := sql.Open(repomanager.DriverName, app.config.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	app.closers = append(app.closers, db)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, nil, fmt.Errorf("db unreachable: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("db migrations: %w", err)
	}
	return dbx.NewSQLTransactor(db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}), repos, nil
}

// Close logs the final metric totals, then releases the meter provider and
// the database and Redis connections.
func (app *App) Close() error {
	var errs []error
	if app.telemetry != nil {
		app.logMetrics(context.Background())
		errs = append(errs, app.telemetry.Shutdown(context.Background()))
		app.telemetry = nil
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i].Close())
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) logMetrics(ctx context.Context) {
	totals, err := app.telemetry.Totals(ctx)
	if err != nil {
		app.logger.Warn(ctx, "reading metrics", "error", err)
		return
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	args := make([]any, 0, 2*len(names))
	for _, name := range names {
		args = append(args, name, totals[name])
	}
	app.logger.Info(ctx, "auth metrics", args...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "closing resources", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
