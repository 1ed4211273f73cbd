package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// AppConfig is everything the CLI reads from the environment, parsed with
// caarlos0/env. Each concern lives in its own file next to this one.
type AppConfig struct {
	// IsDev switches logging to the text handler.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	API           APIConfig
	Auth          AuthConfig
	Session       SessionConfig
	Redis         RedisConfig `envPrefix:"REDIS_"`
	Observability ObservabilityConfig
}

// Sanitize normalises values after parsing and fills in fallbacks.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.API.Sanitize()
	c.Auth.Sanitize()
	c.Session.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode treats NODE_ENV=development (or dev) like DEV=true.
func (c *AppConfig) detectDevMode() {
	if c.IsDev {
		return
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("NODE_ENV"))) {
	case "development", "dev":
		c.IsDev = true
	}
}

// Validate reports configuration that cannot produce a working client.
// Call it after Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL %q must be an absolute URL", c.API.BaseURL))
	}

	if c.Auth.Mode == AuthModeOAuth && c.Auth.OAuth.DiscoveryURL == "" {
		errs = append(errs, errors.New("OAUTH_DISCOVERY_URL is required when AUTH_MODE=oauth"))
	}

	if c.Session.Store == SessionStoreRedis && c.Redis.URI == "" && !c.Redis.UseSentinel && !c.Redis.UseCluster {
		errs = append(errs, errors.New("REDIS_URI is required when SESSION_STORE=redis"))
	}

	return errors.Join(errs...)
}
