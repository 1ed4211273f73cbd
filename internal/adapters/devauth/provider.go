// Package devauth signs in a fixed, configured identity without an IdP, for
// local work against an events API that accepts a static bearer token.
package devauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/target/eventnav/internal/domain/auth"
	"github.com/target/eventnav/internal/ports"
)

// DevCode is the authorization code Begin embeds in its callback URL.
const DevCode = "dev"

const defaultSessionDuration = 8 * time.Hour

var _ ports.AuthProvider = (*Provider)(nil)

// Config describes the identity to sign in. UserID, Email and Token are required.
type Config struct {
	UserID          string
	Email           string
	FirstName       string
	LastName        string
	Token           string
	Groups          []string
	SessionDuration time.Duration // 8h when zero
}

// Provider short-circuits the browser round trip: Begin's URL already is the
// callback, carrying DevCode and the issued state. Exchange accepts each
// issued state once.
type Provider struct {
	identity domainauth.Identity
	lifetime time.Duration
	now      func() time.Time

	mu     sync.Mutex
	issued map[string]string // state -> nonce
}

func NewProvider(cfg Config) (*Provider, error) {
	var missing []error
	if cfg.UserID == "" {
		missing = append(missing, errors.New("UserID is required"))
	}
	if cfg.Email == "" {
		missing = append(missing, errors.New("Email is required"))
	}
	if cfg.Token == "" {
		missing = append(missing, errors.New("Token is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, fmt.Errorf("dev auth: %w", err)
	}

	lifetime := cfg.SessionDuration
	if lifetime <= 0 {
		lifetime = defaultSessionDuration
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID:      cfg.UserID,
			FirstName:   cfg.FirstName,
			LastName:    cfg.LastName,
			Email:       cfg.Email,
			Groups:      append([]string(nil), cfg.Groups...),
			AccessToken: cfg.Token,
		},
		lifetime: lifetime,
		now:      time.Now,
		issued:   make(map[string]string),
	}, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	redirect := in.RedirectURL
	if redirect == "" {
		redirect = "/callback"
	}
	u, err := url.Parse(redirect)
	if err != nil {
		return "", "", "", fmt.Errorf("parse redirect URL: %w", err)
	}

	state, nonce := rand.Text(), rand.Text()
	p.mu.Lock()
	p.issued[state] = nonce
	p.mu.Unlock()

	q := u.Query()
	q.Set("code", DevCode)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), state, nonce, nil
}

// Exchange returns the configured identity, expiring one session duration from now.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code != DevCode {
		return domainauth.Identity{}, fmt.Errorf("dev auth: unexpected code %q", in.Code)
	}

	p.mu.Lock()
	nonce, ok := p.issued[in.State]
	delete(p.issued, in.State)
	p.mu.Unlock()
	if !ok {
		return domainauth.Identity{}, errors.New("dev auth: unknown or reused state")
	}
	if nonce != in.Nonce {
		return domainauth.Identity{}, errors.New("dev auth: invalid nonce")
	}

	id := p.identity
	id.Groups = append([]string(nil), p.identity.Groups...)
	id.ExpiresAt = p.now().Add(p.lifetime)
	return id, nil
}
