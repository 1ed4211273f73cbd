package config

import (
	"strings"
	"time"
)

const (
	defaultMetricsPrefix = "eventnav"
	defaultAlertTimeout  = 5 * time.Second
)

// ObservabilityConfig groups the optional metrics sink and the operator alert sinks.
type ObservabilityConfig struct {
	Metrics       MetricsConfig
	Notifications AlertsConfig
}

func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// MetricsConfig points lookup and action metrics at a StatsD agent.
// Tags are attached to every metric, written as "env:prod,region:us".
type MetricsConfig struct {
	Enabled       bool              `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string            `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string            `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"eventnav"`
	Tags          map[string]string `env:"OBSERVABILITY_METRICS_TAGS"`
}

func (c *MetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if c.Prefix == "" {
		c.Prefix = defaultMetricsPrefix
	}
	if len(c.Tags) > 0 {
		tags := make(map[string]string, len(c.Tags))
		for k, v := range c.Tags {
			if k = strings.TrimSpace(k); k != "" {
				tags[k] = strings.TrimSpace(v)
			}
		}
		c.Tags = tags
	}
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled reports whether metrics should be emitted.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// AlertsConfig controls the operator-facing copies of user alerts. The
// terminal always receives alerts; Slack only when both switches are on.
type AlertsConfig struct {
	Enabled    bool          `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int           `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackConfig   `envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
}

func (c *AlertsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = defaultAlertTimeout
	}
	c.RetryLimit = max(c.RetryLimit, 0)
	c.Slack.sanitize()
	c.Slack.Enabled = c.Enabled && c.Slack.Enabled && c.Slack.WebhookURL != ""
}

// SlackConfig names the incoming webhook alerts are posted to.
type SlackConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"eventnav"`
}

func (c *SlackConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultMetricsPrefix
	}
}
