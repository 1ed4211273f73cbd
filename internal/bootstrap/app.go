package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/eventnav/config"
	"github.com/target/eventnav/internal/adapters/api"
	"github.com/target/eventnav/internal/service"
)

// AppOptions groups inputs for NewApp.
type AppOptions struct {
	Config  config.AppConfig
	Logger  *slog.Logger
	Console io.Writer // Receives user-visible alerts
}

// App is the wired object graph behind every CLI command.
type App struct {
	Config        config.AppConfig
	Logger        *slog.Logger
	HTTPClient    *http.Client
	API           *api.Client
	Sessions      *service.SessionManager
	Actions       *service.ActionRunner
	Navigator     *service.Navigator
	Observability ObservabilityContainer

	gate  *service.AccessGate
	redis redis.UniversalClient
}

// NewApp connects the configured adapters and wires the services. The returned
// App must be closed.
func NewApp(ctx context.Context, opts AppOptions) (app *App, err error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app = &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			if closeErr := app.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			app = nil
		}
	}()

	app.HTTPClient, err = NewHTTPClient(cfg.API.Timeout)
	if err != nil {
		return app, err
	}

	if cfg.Session.Store == config.SessionStoreRedis {
		app.redis, err = ConnectRedis(ctx, RedisOptions{Config: cfg.Redis, Logger: logger})
		if err != nil {
			return app, fmt.Errorf("connect redis: %w", err)
		}
	}

	app.Observability = BuildObservability(ctx, ObservabilityOptions{
		Config:  cfg.Observability,
		Console: opts.Console,
		Logger:  logger,
	})

	app.API, err = api.NewClient(api.Config{
		BaseURL:       cfg.API.BaseURL,
		ResponseQuery: cfg.API.ResponseQuery,
		UserAgent:     cfg.API.UserAgent,
		HTTPClient:    app.HTTPClient,
		Logger:        logger,
	})
	if err != nil {
		return app, fmt.Errorf("create api client: %w", err)
	}

	app.Sessions, err = BuildSessionManager(ctx, AuthConfig{
		Auth:        cfg.Auth,
		Session:     cfg.Session,
		RedisClient: app.redis,
		HTTPClient:  app.HTTPClient,
		Logger:      logger,
	})
	if err != nil {
		return app, fmt.Errorf("build session manager: %w", err)
	}

	if _, err = app.Sessions.Restore(ctx); err != nil {
		return app, fmt.Errorf("restore session: %w", err)
	}

	app.gate, err = app.NewGate()
	if err != nil {
		return app, err
	}

	app.Actions, err = service.NewActionRunner(service.ActionRunnerOptions{
		Caller:  app.API,
		Session: app.Sessions,
		Alerts:  app.Observability.Alerts,
		Logger:  logger,
		Metrics: app.Observability.MetricsSink,
	})
	if err != nil {
		return app, fmt.Errorf("create action runner: %w", err)
	}

	app.Navigator, err = service.NewNavigator(ctx, service.NavigatorOptions{
		Gate:     app.gate,
		Actions:  app.Actions,
		Sessions: app.Sessions,
		Logger:   logger,
	})
	if err != nil {
		return app, fmt.Errorf("create navigator: %w", err)
	}

	return app, nil
}

// NewGate builds an additional access gate sharing the app's API client and
// session. Callers own the gate and must close it.
func (a *App) NewGate() (*service.AccessGate, error) {
	gate, err := service.NewAccessGate(service.AccessGateOptions{
		Lookup:  a.API,
		Session: a.Sessions,
		Logger:  a.Logger,
		Metrics: a.Observability.MetricsSink,
	})
	if err != nil {
		return nil, fmt.Errorf("create access gate: %w", err)
	}
	return gate, nil
}

// Close stops the navigator and releases connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.Navigator != nil {
		a.Navigator.Close()
	}
	if a.gate != nil {
		a.gate.Close()
	}

	var errs []error
	if err := a.Observability.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close metrics: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}
	return errors.Join(errs...)
}
