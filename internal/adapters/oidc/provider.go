// Package oidc signs CLI users in against an OpenID Connect IdP using the
// authorization code flow with PKCE and a loopback redirect.
package oidc

import (
	"cmp"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/target/eventnav/internal/domain/auth"
	"github.com/target/eventnav/internal/ports"
)

// DefaultScope is requested when ProviderConfig.Scope is empty.
const DefaultScope = "openid profile email groups"

const (
	defaultHTTPTimeout   = 30 * time.Second
	defaultTokenLifetime = time.Hour
	// pendingFlowTTL bounds how long a started login can wait for its callback.
	pendingFlowTTL = 10 * time.Minute
)

var _ ports.AuthProvider = (*Provider)(nil)

// Provider implements ports.AuthProvider using OIDC/OAuth2.
type Provider struct {
	config       *oauth2.Config
	httpClient   *http.Client
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
	now          func() time.Time

	mu      sync.Mutex
	pending map[string]pendingFlow // by state
}

type pendingFlow struct {
	verifier string
	started  time.Time
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string // Optional for public clients
	RedirectURL  string
	Scope        string
	DiscoveryURL string       // issuer URL, with or without the well-known suffix
	HTTPClient   *http.Client // Optional, defaults to a client with a 30s timeout
}

// NewProvider runs OIDC discovery and returns a ready provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	switch {
	case config.ClientID == "":
		return nil, errors.New("client ID is required")
	case config.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case config.DiscoveryURL == "":
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	issuer := strings.TrimSuffix(strings.TrimSuffix(config.DiscoveryURL, "/"), "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scope := strings.TrimSpace(config.Scope)
	if scope == "" {
		scope = DefaultScope
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		httpClient:   httpClient,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		now:          time.Now,
		pending:      make(map[string]pendingFlow),
	}, nil
}

// Begin starts a flow. The redirect_uri sent to the IdP is always the
// configured one, which must match the client registration exactly.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, nonce := rand.Text(), rand.Text()
	verifier := oauth2.GenerateVerifier()

	p.mu.Lock()
	p.pruneLocked()
	p.pending[state] = pendingFlow{verifier: verifier, started: p.now()}
	p.mu.Unlock()

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.S256ChallengeOption(verifier),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) pruneLocked() {
	cutoff := p.now().Add(-pendingFlowTTL)
	for state, flow := range p.pending {
		if flow.started.Before(cutoff) {
			delete(p.pending, state)
		}
	}
}

// Exchange redeems the code for tokens. Each state can be redeemed once.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	p.mu.Lock()
	p.pruneLocked()
	flow, ok := p.pending[in.State]
	delete(p.pending, in.State)
	p.mu.Unlock()
	if !ok {
		return domainauth.Identity{}, errors.New("unknown or reused state")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code, oauth2.VerifierOption(flow.verifier))
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	who, err := p.fromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, err
	}
	if !who.complete() {
		extra, uiErr := p.fromUserInfo(ctx, token.AccessToken)
		if uiErr != nil {
			return domainauth.Identity{}, uiErr
		}
		who.fill(extra)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = p.now().Add(defaultTokenLifetime)
	}

	return domainauth.Identity{
		UserID:      who.userID,
		FirstName:   who.givenName,
		LastName:    who.familyName,
		Email:       who.email,
		Groups:      who.groups,
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// claimSet accepts both the standard OIDC claim names and the AD/ADFS ones,
// for id_token and userinfo payloads alike. AD names win when both are present.
type claimSet struct {
	Sub            string   `json:"sub"`
	Email          string   `json:"email"`
	GivenName      string   `json:"given_name"`
	FamilyName     string   `json:"family_name"`
	Groups         []string `json:"groups"`
	SamAccountName string   `json:"samaccountname"`
	FirstName      string   `json:"firstname"`
	LastName       string   `json:"lastname"`
	Mail           string   `json:"mail"`
	MemberOf       []string `json:"memberof"`
	Nonce          string   `json:"nonce"`
}

type profile struct {
	userID     string
	email      string
	givenName  string
	familyName string
	groups     []string
}

func (c claimSet) profile() profile {
	return profile{
		userID:     cmp.Or(c.SamAccountName, c.Sub),
		email:      cmp.Or(c.Mail, c.Email),
		givenName:  cmp.Or(c.FirstName, c.GivenName),
		familyName: cmp.Or(c.LastName, c.FamilyName),
		groups:     firstNonEmpty(c.MemberOf, c.Groups),
	}
}

// complete reports whether the profile identifies someone reachable by email.
func (p profile) complete() bool { return p.userID != "" && p.email != "" }

// fill copies fields p is missing from other.
func (p *profile) fill(other profile) {
	p.userID = cmp.Or(p.userID, other.userID)
	p.email = cmp.Or(p.email, other.email)
	p.givenName = cmp.Or(p.givenName, other.givenName)
	p.familyName = cmp.Or(p.familyName, other.familyName)
	p.groups = firstNonEmpty(p.groups, other.groups)
}

func firstNonEmpty(vals ...[]string) []string {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

// fromIDToken verifies the id_token and returns its profile. Providers
// configured without the openid scope issue none; the profile is then empty.
func (p *Provider) fromIDToken(ctx context.Context, tok *oauth2.Token, nonce string) (profile, error) {
	if !slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		return profile{}, nil
	}
	raw, err := rawIDToken(tok)
	if err != nil {
		return profile{}, err
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return profile{}, fmt.Errorf("verify id_token: %w", err)
	}
	var claims claimSet
	if err := idTok.Claims(&claims); err != nil {
		return profile{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Nonce != nonce {
		return profile{}, errors.New("invalid nonce")
	}
	return claims.profile(), nil
}

func (p *Provider) fromUserInfo(ctx context.Context, accessToken string) (profile, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return profile{}, fmt.Errorf("fetch user info: %w", err)
	}
	var claims claimSet
	if err := ui.Claims(&claims); err != nil {
		return profile{}, fmt.Errorf("decode user info: %w", err)
	}
	return claims.profile(), nil
}

func rawIDToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
