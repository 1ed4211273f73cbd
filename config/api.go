package config

import (
	"strings"
	"time"
)

const defaultAPITimeout = 10 * time.Second

// APIConfig describes the events API the gate and privileged actions talk to.
type APIConfig struct {
	// BaseURL is the absolute base address, e.g. https://events.example.com/api.
	BaseURL string `env:"API_BASE_URL"`
	// Timeout bounds every outbound request.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	// ResponseQuery is a JMESPath expression selecting the RSVP value from the lookup body.
	ResponseQuery string `env:"API_RESPONSE_QUERY" envDefault:"response"`
	UserAgent     string `env:"API_USER_AGENT"     envDefault:"eventnav"`
}

// Sanitize trims values and restores defaults for invalid settings.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.ResponseQuery = strings.TrimSpace(c.ResponseQuery)
	if c.ResponseQuery == "" {
		c.ResponseQuery = "response"
	}
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	if c.Timeout <= 0 {
		c.Timeout = defaultAPITimeout
	}
}
