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

	httpapi "github.com/aussiebroadwan/fundme/internal/mockapi/http"
	"github.com/aussiebroadwan/fundme/internal/mockapi/service"
	"github.com/aussiebroadwan/fundme/internal/storage"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/cryptox"
	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/aussiebroadwan/fundme/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application is the development banking API with its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store  kv.Store
	signer *credential.Signer

	userService  *service.UserService
	tokenService *service.TokenService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with seeded demo accounts.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "fundme-mockapi",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := slogx.WithContext(context.Background(), app.logger)

	if err := app.initSigner(); err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open refresh token store: %w", err)
	}
	app.store = store

	if err := app.initServices(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the routed API, for in-process use.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("mock api starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down mock api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("mock api stopped")
	return nil
}

func (app *Application) initSigner() error {
	key := []byte(app.cfg.SigningKey)
	if len(key) == 0 {
		var err error
		if key, err = cryptox.NewSigningKey(); err != nil {
			return fmt.Errorf("failed to generate signing key: %w", err)
		}
		app.logger.Warn("MOCKAPI_SIGNING_KEY not set, using an ephemeral key")
	}
	signer, err := credential.NewSigner(key, "fundme-mockapi")
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}
	app.signer = signer
	return nil
}

func (app *Application) initServices(ctx context.Context) error {
	app.userService = service.NewUserService()
	password, err := service.SeedDemoUsers(ctx, app.userService, app.cfg.DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to seed demo users: %w", err)
	}
	if app.cfg.DemoPassword == "" {
		app.logger.Info("demo accounts seeded", "password", password)
	}

	app.tokenService = &service.TokenService{
		Signer:     app.signer,
		Store:      app.store,
		Users:      app.userService,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.signer, BuildVersion, app.logger)
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
