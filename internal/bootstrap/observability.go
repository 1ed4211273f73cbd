package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/target/eventnav/config"
	"github.com/target/eventnav/internal/observability/notify"
	"github.com/target/eventnav/internal/observability/notify/slack"
	"github.com/target/eventnav/internal/observability/statsd"
)

// ObservabilityContainer holds the metrics sink and alert dispatcher.
type ObservabilityContainer struct {
	MetricsSink statsd.Sink // nil when metrics are disabled
	Alerts      *notify.Dispatcher
	closers     []io.Closer
}

// Close releases the metrics connection, if any, joining every close failure.
func (c ObservabilityContainer) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ObservabilityOptions groups inputs for BuildObservability.
type ObservabilityOptions struct {
	Config config.ObservabilityConfig
	// Console receives every user-visible alert; typically os.Stderr.
	Console io.Writer
	Logger  *slog.Logger
}

// BuildObservability configures metrics and alert adapters. Failing optional
// sinks are logged and skipped.
func BuildObservability(ctx context.Context, opts ObservabilityOptions) ObservabilityContainer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var container ObservabilityContainer
	metricsCfg := opts.Config.Metrics
	if metricsCfg.IsEnabled() {
		client, err := statsd.NewClient(ctx, statsd.Config{
			Enabled:    true,
			Address:    metricsCfg.StatsdAddress,
			Prefix:     metricsCfg.Prefix,
			GlobalTags: metricsCfg.Tags,
			Logger:     logger,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to initialise statsd client", "error", err)
		} else {
			container.MetricsSink = client
			container.closers = append(container.closers, client)
		}
	}

	container.Alerts = buildAlertDispatcher(ctx, logger, opts.Console, opts.Config.Notifications)
	return container
}

func buildAlertDispatcher(
	ctx context.Context,
	logger *slog.Logger,
	console io.Writer,
	cfg config.AlertsConfig,
) *notify.Dispatcher {
	sinks := make([]notify.Sink, 0, 2)
	if console != nil {
		sinks = append(sinks, notify.NewWriterSink(console))
	}

	if cfg.Enabled && cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, client)
		}
	}

	return notify.NewDispatcher(notify.DispatcherOptions{
		Source: "eventnav",
		Sinks:  sinks,
		Logger: logger,
	})
}
