package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aussiebroadwan/fundme/internal/storage"
	"github.com/aussiebroadwan/fundme/pkg/authsdk"
	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/aussiebroadwan/fundme/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// BuildVersion should be set at build time via ldflags.
var BuildVersion = "v0.1.0"

// App wires one session: the persisted store, the guard, the refresh
// coordinator and an API client whose requests carry the stored credential.
type App struct {
	cfg    Config
	logger *slog.Logger

	store    kv.Store
	registry *prometheus.Registry

	Guard     *authsdk.Guard
	Refresher *authsdk.Refresher
	Accounts  *authsdk.SDKClient
}

// Open builds an App from cfg, logging to logOut.
func Open(ctx context.Context, cfg Config, logOut io.Writer) (*App, error) {
	logger := slogx.New(slogx.Config{
		Service: "fundme",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  logOut,
	})

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.Debug("session store opened", "driver", cfg.Storage.Driver)

	return newApp(cfg, store, logger), nil
}

func newApp(cfg Config, store kv.Store, logger *slog.Logger) *App {
	app := &App{cfg: cfg, logger: logger, store: store}

	api := authsdk.NewSDKClient(cfg.APIURL)
	if cfg.HTTPTimeout > 0 {
		api.HTTPClient.Timeout = cfg.HTTPTimeout
	}

	opts := []authsdk.Option{authsdk.WithLogger(logger)}
	if cfg.Metrics {
		app.registry = prometheus.NewRegistry()
		opts = append(opts, authsdk.WithMetrics(authsdk.NewMetrics(app.registry)))
	}

	creds := authsdk.NewCredentialStore(store)
	app.Guard = authsdk.NewGuard(creds, api, opts...)
	app.Refresher = authsdk.NewRefresher(creds, api, opts...)
	app.Accounts = api.WithTransport(authsdk.NewTransport(app.Guard, app.Refresher, nil))
	return app
}

// WriteMetrics prints the session metrics in the Prometheus text format.
// It writes nothing when metrics are disabled.
func (app *App) WriteMetrics(w io.Writer) error {
	if app.registry == nil {
		return nil
	}
	families, err := app.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

func (app *App) Close() error {
	return app.store.Close()
}
