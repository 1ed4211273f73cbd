package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/target/eventnav/internal/ports"
)

const testRedirect = "http://127.0.0.1:8765/callback"

// discoveryDocument is the part of the OIDC discovery document go-oidc reads.
type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// discoveryOnly serves a discovery document whose other endpoints are unreachable.
func discoveryOnly(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(discoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: "https://idp.invalid/auth",
			TokenEndpoint:         "http://127.0.0.1:1/token",
			UserinfoEndpoint:      "http://127.0.0.1:1/userinfo",
			JwksURI:               "http://127.0.0.1:1/jwks",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func createTestProvider(t *testing.T) *Provider {
	t.Helper()
	provider, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "eventnav",
		RedirectURL:  testRedirect,
		DiscoveryURL: discoveryOnly(t).URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return provider
}

func TestNewProvider_Discovery(t *testing.T) {
	provider := createTestProvider(t)

	assert.Equal(t, "https://idp.invalid/auth", provider.config.Endpoint.AuthURL)
	assert.Equal(t, "http://127.0.0.1:1/token", provider.config.Endpoint.TokenURL)
	assert.Equal(t, []string{"openid", "profile", "email", "groups"}, provider.config.Scopes)
}

func TestNewProvider_Errors(t *testing.T) {
	tests := map[string]struct {
		cfg  ProviderConfig
		want string
	}{
		"client id":   {ProviderConfig{RedirectURL: testRedirect, DiscoveryURL: "http://idp"}, "client ID is required"},
		"redirect":    {ProviderConfig{ClientID: "c", DiscoveryURL: "http://idp"}, "redirect URL is required"},
		"discovery":   {ProviderConfig{ClientID: "c", RedirectURL: testRedirect}, "discovery URL is required"},
		"unreachable": {ProviderConfig{ClientID: "c", RedirectURL: testRedirect, DiscoveryURL: "http://127.0.0.1:1"}, "oidc discovery"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	provider := createTestProvider(t)

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{RedirectURL: testRedirect})
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "idp.invalid", u.Host)
	assert.Equal(t, "eventnav", q.Get("client_id"))
	assert.Equal(t, testRedirect, q.Get("redirect_uri"))
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, nonce, q.Get("nonce"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))

	_, _, _, err = provider.Begin(context.Background(), ports.BeginInput{})
	assert.ErrorContains(t, err, "redirect URL is required")
}

func TestProvider_Exchange_Validation(t *testing.T) {
	provider := createTestProvider(t)

	for in, want := range map[ports.ExchangeInput]string{
		{State: "s", Nonce: "n"}:                "authorization code is required",
		{Code: "c", Nonce: "n"}:                 "state is required",
		{Code: "c", State: "s"}:                 "nonce is required",
		{Code: "c", State: "never", Nonce: "n"}: "unknown or reused state",
	} {
		_, err := provider.Exchange(context.Background(), in)
		assert.ErrorContains(t, err, want)
	}
}

func TestProvider_Exchange_TokenEndpointDown(t *testing.T) {
	provider := createTestProvider(t)
	_, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{RedirectURL: testRedirect})
	require.NoError(t, err)

	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: state, Nonce: nonce})

	assert.ErrorContains(t, err, "exchange code for token")
	assert.Empty(t, provider.pending, "a failed exchange still consumes the state")
}

func TestProvider_Begin_UniqueState(t *testing.T) {
	provider := createTestProvider(t)
	in := ports.BeginInput{RedirectURL: "http://localhost:8080/callback"}

	_, state1, nonce1, err := provider.Begin(context.Background(), in)
	require.NoError(t, err)
	_, state2, _, err := provider.Begin(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, state1, state2)
	assert.NotEqual(t, state1, nonce1)
	assert.Len(t, provider.pending, 2)
}

func TestProvider_Exchange_ExpiredFlow(t *testing.T) {
	provider := createTestProvider(t)
	start := time.Now()
	provider.now = func() time.Time { return start }

	_, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{RedirectURL: "http://localhost:8080/callback"})
	require.NoError(t, err)

	provider.now = func() time.Time { return start.Add(pendingFlowTTL + time.Second) }
	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: state, Nonce: nonce})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown or reused state")
	assert.Empty(t, provider.pending)
}

func TestProvider_Exchange_UserInfoFlow(t *testing.T) {
	var (
		srv          *httptest.Server
		gotVerifier  string
		gotUserAuthz string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(discoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/auth",
			TokenEndpoint:         srv.URL + "/token",
			UserinfoEndpoint:      srv.URL + "/userinfo",
			JwksURI:               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotVerifier = r.PostForm.Get("code_verifier")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		gotUserAuthz = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":         "u-1",
			"email":       "ada@example.com",
			"given_name":  "Ada",
			"family_name": "Lovelace",
			"groups":      []string{"events-admins"},
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "cli",
		RedirectURL:  "http://127.0.0.1:8765/callback",
		Scope:        "profile email",
		DiscoveryURL: srv.URL,
	})
	require.NoError(t, err)

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{RedirectURL: "http://127.0.0.1:8765/callback"})
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	require.NotEmpty(t, u.Query().Get("code_challenge"))

	identity, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "code-1", State: state, Nonce: nonce})
	require.NoError(t, err)

	assert.NotEmpty(t, gotVerifier)
	assert.Equal(t, "Bearer at-123", gotUserAuthz)
	assert.Equal(t, "u-1", identity.UserID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, "Ada", identity.FirstName)
	assert.Equal(t, "Lovelace", identity.LastName)
	assert.Equal(t, []string{"events-admins"}, identity.Groups)
	assert.Equal(t, "at-123", identity.AccessToken)
	assert.False(t, identity.ExpiresAt.IsZero())

	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{Code: "code-1", State: state, Nonce: nonce})
	require.Error(t, err, "state is single use")
}

func TestRawIDToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	raw, err := rawIDToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)

	_, err = rawIDToken((&oauth2.Token{}).WithExtra(map[string]any{"not_id": "x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id_token")

	_, err = rawIDToken(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil token")
}

func TestClaimSet_StandardShape(t *testing.T) {
	p := claimSet{
		Sub:        "sub-1",
		Email:      "std@example.com",
		GivenName:  "Std",
		FamilyName: "Claims",
		Groups:     []string{"events-users"},
	}.profile()

	assert.Equal(t, profile{
		userID:     "sub-1",
		email:      "std@example.com",
		givenName:  "Std",
		familyName: "Claims",
		groups:     []string{"events-users"},
	}, p)
	assert.True(t, p.complete())
}

func TestClaimSet_ADShapeWins(t *testing.T) {
	groups := []string{"CN=APP-EventNav-User,OU=Application,DC=corp,DC=example,DC=com"}
	p := claimSet{
		Sub:            "sub-123",
		Email:          "std@example.com",
		SamAccountName: "sammy",
		FirstName:      "First",
		LastName:       "Last",
		Mail:           "mail@example.com",
		Groups:         []string{"ignored"},
		MemberOf:       groups,
	}.profile()

	assert.Equal(t, "sammy", p.userID)
	assert.Equal(t, "mail@example.com", p.email)
	assert.Equal(t, "First", p.givenName)
	assert.Equal(t, "Last", p.familyName)
	assert.Equal(t, groups, p.groups)
}

func TestProfile_FillKeepsPresentFields(t *testing.T) {
	from := claimSet{Sub: "sub-abc", Mail: "mail@example.com", FirstName: "First", MemberOf: []string{"admins"}}.profile()

	p := profile{userID: "keep", groups: []string{"x"}}
	assert.False(t, p.complete())
	p.fill(from)

	assert.Equal(t, profile{
		userID:    "keep",
		email:     "mail@example.com",
		givenName: "First",
		groups:    []string{"x"},
	}, p)
	assert.True(t, p.complete())
}
