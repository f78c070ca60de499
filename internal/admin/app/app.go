package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/memberhub/adminauth/internal/admin/http"
	"github.com/memberhub/adminauth/internal/admin/identity"
	"github.com/memberhub/adminauth/internal/admin/service"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/internal/admin/store/drivers/sqlite"
	"github.com/memberhub/adminauth/pkg/jwtx"
	"github.com/memberhub/adminauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the admin authorization service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	identity identity.Provider

	authorizationService *service.AuthorizationService
	inviteService        *service.InviteService
	sweeper              *service.Sweeper

	server *http.Server
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "adminauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.SessionKey == "" {
		return nil, errors.New("ADMINAUTH_SESSION_KEY is required")
	}
	if cfg.HookSecret == "" {
		return nil, errors.New("ADMINAUTH_HOOK_SECRET is required")
	}
	if cfg.IdentityURL == "" {
		return nil, errors.New("ADMINAUTH_IDENTITY_URL is required")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.identity = identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("adminauth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down adminauth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("adminauth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	audit := &service.Auditor{Store: app.db}

	app.authorizationService = &service.AuthorizationService{
		Store:               app.db,
		Identity:            app.identity,
		Audit:               audit,
		BootstrapSecretHash: app.cfg.BootstrapSecretHash,
	}

	app.inviteService = &service.InviteService{
		Store:        app.db,
		Identity:     app.identity,
		Audit:        audit,
		ClaimURLBase: app.cfg.PortalBaseURL,
	}

	app.sweeper = service.NewSweeper(
		app.db,
		app.identity,
		audit,
		app.logger,
		app.cfg.SweepInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.RouterConfig{
		AuthorizationService: app.authorizationService,
		InviteService:        app.inviteService,
		Store:                app.db,
		Verifier:             jwtx.NewHS256Verifier([]byte(app.cfg.SessionKey), app.cfg.Issuer),
		HookSecret:           app.cfg.HookSecret,
		Version:              BuildVersion,
		StartedAt:            time.Now(),
	})

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           slogx.HTTPMiddleware(app.logger)(router),
		ReadHeaderTimeout: 3 * time.Second,
	}
}
