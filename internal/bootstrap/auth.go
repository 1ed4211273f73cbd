package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/eventnav/config"
	"github.com/target/eventnav/internal/adapters/authroles"
	"github.com/target/eventnav/internal/adapters/devauth"
	"github.com/target/eventnav/internal/adapters/memory"
	"github.com/target/eventnav/internal/adapters/oidc"
	redisadapter "github.com/target/eventnav/internal/adapters/redis"
	"github.com/target/eventnav/internal/adapters/tokenauth"
	"github.com/target/eventnav/internal/ports"
	"github.com/target/eventnav/internal/service"
)

// AuthConfig contains configuration for the session manager.
type AuthConfig struct {
	Auth        config.AuthConfig
	Session     config.SessionConfig
	RedisClient redis.UniversalClient // Required when Session.Store is redis
	HTTPClient  *http.Client          // Optional: used for OIDC discovery and exchange
	Logger      *slog.Logger
}

// BuildSessionManager creates a session manager for the configured auth mode
// and session store.
func BuildSessionManager(ctx context.Context, cfg AuthConfig) (*service.SessionManager, error) {
	store, err := buildSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	provider, err := buildAuthProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return service.NewSessionManager(service.SessionManagerOptions{
		Provider: provider,
		Tokens:   buildTokenParser(cfg.Auth.TokenAuth),
		Sessions: store,
		Roles: authroles.StaticRoleMapper{
			AdminGroup: cfg.Auth.AdminGroup,
			UserGroup:  cfg.Auth.UserGroup,
		},
		Profile: cfg.Session.Profile,
		Logger:  cfg.Logger,
	})
}

//nolint:ireturn // the store implementation is chosen from configuration.
func buildSessionStore(cfg AuthConfig) (ports.SessionStore, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("session store %q requires a redis client", cfg.Session.Store)
		}
		return redisadapter.NewSessionStore(cfg.RedisClient, redisadapter.Options{Prefix: cfg.Session.KeyPrefix}), nil
	case config.SessionStoreMemory, "":
		return memory.NewSessionStore(), nil
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
}

// buildAuthProvider returns nil in token mode, where sign-in never goes through an IdP.
//
//nolint:ireturn,nilnil // provider implementation is chosen from configuration.
func buildAuthProvider(ctx context.Context, cfg AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		dev := cfg.Auth.DevAuth
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:    dev.UserID,
			Email:     dev.Email,
			FirstName: dev.FirstName,
			LastName:  dev.LastName,
			Token:     dev.Token,
			Groups:    dev.Groups,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		if cfg.Logger != nil {
			cfg.Logger.WarnContext(ctx, "dev auth enabled; do not use outside development", "email", dev.Email)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			HTTPClient:   cfg.HTTPClient,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc provider: %w", err)
		}
		return prov, nil

	case config.AuthModeToken:
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildTokenParser(cfg config.TokenAuthConfig) *tokenauth.Parser {
	var secret []byte
	if cfg.Secret != "" {
		secret = []byte(cfg.Secret)
	}
	return tokenauth.NewParser(tokenauth.Config{
		Secret:   secret,
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	})
}
