package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/eventnav/internal/domain/auth"
	"github.com/target/eventnav/internal/ports"
)

func TestMockAuthProvider_BeginNumbersFlows(t *testing.T) {
	m := NewMockAuthProvider()
	ctx := context.Background()

	url1, state1, nonce1, err := m.Begin(ctx, ports.BeginInput{RedirectURL: "http://127.0.0.1/cb"})
	require.NoError(t, err)
	_, state2, nonce2, err := m.Begin(ctx, ports.BeginInput{RedirectURL: "http://127.0.0.1/cb"})
	require.NoError(t, err)

	assert.Equal(t, defaultAuthURL, url1)
	assert.Equal(t, "state-1", state1)
	assert.Equal(t, "nonce-1", nonce1)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_BeginFunc(t *testing.T) {
	m := &MockAuthProvider{
		BeginFunc: func(context.Context, ports.BeginInput) (string, string, string, error) {
			return "", "", "", errors.New("idp down")
		},
	}

	_, _, _, err := m.Begin(context.Background(), ports.BeginInput{})
	assert.EqualError(t, err, "idp down")
}

func TestMockAuthProvider_ExchangeRecordsInputs(t *testing.T) {
	m := NewMockAuthProvider()
	m.TTL = 10 * time.Minute
	in := ports.ExchangeInput{Code: "code", State: "state-1", Nonce: "nonce-1"}

	id, err := m.Exchange(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "mock.user@example.com", id.Email)
	assert.Equal(t, "mock-access-token", id.AccessToken)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), id.ExpiresAt, 5*time.Second)
	assert.Equal(t, []ports.ExchangeInput{in}, m.Exchanges())
}

func TestMockAuthProvider_ExchangeCopiesGroups(t *testing.T) {
	m := NewMockAuthProvider()

	id, err := m.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	id.Groups[0] = "admins"

	assert.Equal(t, []string{"users"}, m.DefaultUser.Groups)
}

func TestMockAuthProvider_ExchangeFunc(t *testing.T) {
	m := &MockAuthProvider{
		ExchangeFunc: func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{Email: "custom@example.com"}, nil
		},
	}

	id, err := m.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})

	require.NoError(t, err)
	assert.Equal(t, "custom@example.com", id.Email)
	assert.Len(t, m.Exchanges(), 1)
}

func TestFakeSessionSource_SignOut(t *testing.T) {
	f := NewFakeSessionSource("ada@example.com", "tok")
	var hooked bool
	f.OnSignOut = func() { hooked = true }

	assert.True(t, f.CurrentIdentity().Complete())
	require.NoError(t, f.SignOut(context.Background()))

	assert.True(t, hooked)
	assert.Equal(t, 1, f.SignOuts())
	assert.False(t, f.CurrentIdentity().Complete())
}

func TestFakeSessionSource_SignOutFnError(t *testing.T) {
	f := NewFakeSessionSource("ada@example.com", "tok")
	f.SignOutFn = func(context.Context) error { return errors.New("store down") }

	err := f.SignOut(context.Background())

	assert.EqualError(t, err, "store down")
	assert.Equal(t, 1, f.SignOuts())
}
