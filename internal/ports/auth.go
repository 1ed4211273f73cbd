// Package ports declares the boundaries between the navigation services and
// the adapters that reach identity providers, storage and the events API.
package ports

import (
	"context"

	domainauth "github.com/target/eventnav/internal/domain/auth"
)

// BeginInput names where the IdP should send the browser back to.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput is what the callback returned, plus the nonce issued by Begin.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider runs an interactive sign-in against an identity provider.
// Begin returns the URL to open and the state and nonce Exchange must be given back.
type AuthProvider interface {
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// TokenParser derives an identity from a bearer token the user already holds.
type TokenParser interface {
	Parse(token string) (domainauth.Identity, error)
}

// SessionStore keeps sessions by profile id. Get reports a not-found error for
// missing or expired entries; Delete of a missing id is not an error.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper turns IdP group membership into a role.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// SessionSource is what the access gate and privileged actions need from the
// current session: its credentials, and a way to end it when they are rejected.
type SessionSource interface {
	CurrentIdentity() domainauth.Credentials
	SignOut(ctx context.Context) error
}
