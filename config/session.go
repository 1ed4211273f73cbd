package config

import (
	"fmt"
	"strings"
)

// SessionStoreKind selects where sessions are persisted.
type SessionStoreKind string

const (
	// SessionStoreMemory keeps the session for the lifetime of the process.
	SessionStoreMemory SessionStoreKind = "memory"
	// SessionStoreRedis persists sessions across runs.
	SessionStoreRedis SessionStoreKind = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*k = SessionStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreKind: %q (valid options: memory, redis)", v)
	}
}

// SessionConfig controls session persistence.
type SessionConfig struct {
	Store SessionStoreKind `env:"SESSION_STORE" envDefault:"memory"`
	// Profile names the persisted session slot, allowing several identities side by side.
	Profile   string `env:"SESSION_PROFILE"    envDefault:"default"`
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"eventnav:session:"`
}

// Sanitize trims values and restores the default profile.
func (c *SessionConfig) Sanitize() {
	c.Profile = strings.TrimSpace(c.Profile)
	if c.Profile == "" {
		c.Profile = "default"
	}
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
}
