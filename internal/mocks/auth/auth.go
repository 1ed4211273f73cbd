// Package auth holds hand-written doubles for the identity ports, for tests
// that need stateful fakes rather than gomock expectations.
package auth

import (
	"context"
	"strconv"
	"sync"
	"time"

	domainauth "github.com/target/eventnav/internal/domain/auth"
	"github.com/target/eventnav/internal/ports"
)

var (
	_ ports.AuthProvider  = (*MockAuthProvider)(nil)
	_ ports.SessionSource = (*FakeSessionSource)(nil)
)

const defaultAuthURL = "https://mock-idp/auth"

// MockAuthProvider is an IdP that hands out numbered state/nonce pairs and
// signs everyone in as DefaultUser. BeginFunc and ExchangeFunc override the
// canned behaviour when set.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity
	TTL         time.Duration // lifetime of exchanged identities; one hour when zero

	mu        sync.Mutex
	begins    int
	exchanges []ports.ExchangeInput
}

// NewMockAuthProvider returns a provider whose user belongs to the "users" group.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL: defaultAuthURL,
		DefaultUser: domainauth.Identity{
			UserID:      "mock-user-1",
			FirstName:   "Mock",
			LastName:    "User",
			Email:       "mock.user@example.com",
			Groups:      []string{"users"},
			AccessToken: "mock-access-token",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.begins++
	n := strconv.Itoa(m.begins)
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	return authURL, "state-" + n, "nonce-" + n, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	m.mu.Lock()
	m.exchanges = append(m.exchanges, in)
	m.mu.Unlock()

	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	ttl := m.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	user := m.DefaultUser
	user.Groups = append([]string(nil), user.Groups...)
	user.ExpiresAt = time.Now().Add(ttl)
	return user, nil
}

// Exchanges returns the inputs of every Exchange call so far.
func (m *MockAuthProvider) Exchanges() []ports.ExchangeInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ExchangeInput(nil), m.exchanges...)
}

// FakeSessionSource is a SessionSource holding fixed credentials until SignOut.
// OnSignOut runs before SignOutFn; either may be nil.
type FakeSessionSource struct {
	SignOutFn func(ctx context.Context) error
	OnSignOut func()

	mu       sync.Mutex
	creds    domainauth.Credentials
	signOuts int
}

// NewFakeSessionSource returns a source signed in as email with token.
func NewFakeSessionSource(email, token string) *FakeSessionSource {
	return &FakeSessionSource{creds: domainauth.Credentials{Email: email, Token: token}}
}

func (f *FakeSessionSource) CurrentIdentity() domainauth.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

func (f *FakeSessionSource) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOuts++
	f.creds = domainauth.Credentials{}
	hook, fn := f.OnSignOut, f.SignOutFn
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// SignOuts returns how many times SignOut was called.
func (f *FakeSessionSource) SignOuts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}
