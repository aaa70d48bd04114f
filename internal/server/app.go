// Package server wires configuration, storage and transports into one
// application and runs it until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
	"github.com/dmitrijs2005/gophauth/internal/server/otp"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verificationcodes"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	http   *hs.Server
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	var opts []repomanager.Option
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		opts = append(opts, repomanager.WithVerificationCodes(verificationcodes.NewRedisRepository(app.redis)))
	}

	hasher := hashing.NewBcryptHasher(c.BcryptCost)

	m, err := app.initStorage(ctx, hasher, opts)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	var gateway notify.Gateway = notify.NewLogGateway(logger)
	if c.SMTPHost != "" {
		gateway = notify.NewMailGateway(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom)
	}

	signer := auth.NewSigner(c)
	codes := otp.NewStore(m.VerificationCodes(app.db))
	authService := services.NewAuthService(app.db, m, hasher, signer, codes, gateway, c, logger)

	var httpOpts []hs.Option
	if c.GoogleClientID != "" {
		provider := oauth.NewGoogleProvider(c)
		httpOpts = append(httpOpts, hs.WithFederation(
			services.NewFederationService(app.db, m, hasher, provider, authService, logger)))
	}
	if c.S3RootUser != "" {
		httpOpts = append(httpOpts, hs.WithAvatar(services.NewAvatarService(app.db, m, c)))
	}

	app.http = hs.NewServer(c.HTTPAddr, logger, authService, signer, c.APIKey, hs.NewMetrics(), httpOpts...)
	app.grpc = gs.NewGRPCServer(c.GRPCAddr, logger, app.ping)

	return app, nil
}

// initStorage opens the configured backend, applies migrations and seeds the
// roles.
func (app *App) initStorage(ctx context.Context, hasher hashing.Hasher, opts []repomanager.Option) (repomanager.RepositoryManager, error) {
	c := app.config

	if c.Storage == config.StorageMemory {
		m := repomanager.NewMemoryRepositoryManager(memory.NewStore(), opts...)
		if err := services.NewBootstrap(m, hasher, c, app.logger).Run(ctx, nil); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		return m, nil
	}

	db, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	m := repomanager.NewPostgresRepositoryManager(opts...)
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	if err := services.NewBootstrap(m, hasher, c, app.logger).RunTx(ctx, db); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return m, nil
}

func (app *App) ping(ctx context.Context) error {
	if app.db != nil {
		if err := app.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (app *App) close(ctx context.Context) {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "close failed", "error", err)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve runs fn and cancels the whole app when it fails.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, name+" server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives, ctx is cancelled or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
}
