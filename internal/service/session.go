package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/eventnav/internal/domain/auth"
	apperrors "github.com/target/eventnav/internal/errors"
	"github.com/target/eventnav/internal/observable"
	"github.com/target/eventnav/internal/ports"
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Provider ports.AuthProvider // Optional: IdP for code-exchange sign-in
	Tokens   ports.TokenParser  // Optional: parser for bearer-token sign-in
	Sessions ports.SessionStore // Required: session persistence
	Roles    ports.RoleMapper   // Required: group to role mapping
	Profile  string             // Optional: persisted session slot; empty means an ephemeral session
	Logger   *slog.Logger       // Optional: structured logger
	Now      func() time.Time   // Optional: clock override for tests
}

// SessionManager owns the process-wide session. It signs users in through the
// configured provider or a bearer token, persists the result, and notifies
// subscribers whenever the current session changes.
type SessionManager struct {
	provider ports.AuthProvider
	tokens   ports.TokenParser
	sessions ports.SessionStore
	roles    ports.RoleMapper
	profile  string
	logger   *slog.Logger
	now      func() time.Time
	current  *observable.Cell[domainauth.Session]
}

var _ ports.SessionSource = (*SessionManager)(nil)

var errNoProvider = apperrors.Validation("no identity provider configured")

// NewSessionManager constructs a new SessionManager.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Sessions == nil {
		return nil, errors.New("SessionStore is required")
	}
	if opts.Roles == nil {
		return nil, errors.New("RoleMapper is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &SessionManager{
		provider: opts.Provider,
		tokens:   opts.Tokens,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		profile:  strings.TrimSpace(opts.Profile),
		logger:   logger.With("component", "session_manager"),
		now:      now,
		current:  observable.NewCell(domainauth.Session{}),
	}, nil
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (m *SessionManager) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if m.provider == nil {
		return nil, errNoProvider
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := m.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity, maps its role, persists the
// session and makes it current.
func (m *SessionManager) CompleteLogin(ctx context.Context, input CompleteLoginInput) (domainauth.Session, error) {
	if m.provider == nil {
		return domainauth.Session{}, errNoProvider
	}
	if input.Code == "" {
		return domainauth.Session{}, errors.New("authorization code is required")
	}
	if input.State == "" {
		return domainauth.Session{}, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return domainauth.Session{}, errors.New("nonce parameter is required")
	}

	identity, err := m.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	return m.establish(ctx, identity)
}

// SignInWithToken signs in with a bearer token whose claims carry the identity.
func (m *SessionManager) SignInWithToken(ctx context.Context, token string) (domainauth.Session, error) {
	if m.tokens == nil {
		return domainauth.Session{}, apperrors.Validation("token sign-in is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Session{}, apperrors.Validation("token is required")
	}

	identity, err := m.tokens.Parse(token)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("parse token: %w", err)
	}
	if identity.AccessToken == "" {
		identity.AccessToken = token
	}

	return m.establish(ctx, identity)
}

func (m *SessionManager) establish(ctx context.Context, identity domainauth.Identity) (domainauth.Session, error) {
	if identity.AccessToken == "" {
		return domainauth.Session{}, apperrors.Validation("identity carries no access token")
	}
	if !identity.ExpiresAt.IsZero() && !identity.ExpiresAt.After(m.now()) {
		return domainauth.Session{}, apperrors.Unauthorized("identity already expired")
	}

	session := domainauth.Session{
		ID:        m.sessionID(),
		UserID:    identity.UserID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Token:     identity.AccessToken,
		Role:      m.roles.Map(identity.Groups),
		ExpiresAt: identity.ExpiresAt,
	}

	if err := m.sessions.Save(ctx, session); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}

	m.logger.InfoContext(ctx, "signed in",
		"session_id", session.ID,
		"email", session.Email,
		"role", session.Role,
	)
	m.current.Set(session)
	return session, nil
}

func (m *SessionManager) sessionID() string {
	if m.profile != "" {
		return m.profile
	}
	return uuid.New().String()
}

// Restore loads the persisted session for the configured profile and makes it
// current. It reports false when nothing usable was stored; expired sessions are deleted.
func (m *SessionManager) Restore(ctx context.Context) (bool, error) {
	if m.profile == "" {
		return false, nil
	}

	session, err := m.sessions.Get(ctx, m.profile)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get session: %w", err)
	}

	if !session.SignedIn(m.now()) {
		if deleteErr := m.sessions.Delete(ctx, m.profile); deleteErr != nil && !apperrors.IsNotFound(deleteErr) {
			return false, fmt.Errorf("delete expired session: %w", deleteErr)
		}
		m.logger.DebugContext(ctx, "discarded expired session", "session_id", session.ID)
		return false, nil
	}

	m.current.Set(session)
	return true, nil
}

// Current returns the current session, which is the zero value when signed out.
func (m *SessionManager) Current() domainauth.Session {
	return m.current.Get()
}

// CurrentIdentity returns the credentials of the current session while it is signed in.
func (m *SessionManager) CurrentIdentity() domainauth.Credentials {
	session := m.current.Get()
	if !session.SignedIn(m.now()) {
		return domainauth.Credentials{}
	}
	return session.Credentials()
}

// SignOut clears the current session and deletes its persisted copy. Subscribers
// are notified only when a session was actually current.
func (m *SessionManager) SignOut(ctx context.Context) error {
	session := m.current.Get()

	id := session.ID
	if id == "" {
		id = m.profile
	}

	var deleteErr error
	if id != "" {
		if err := m.sessions.Delete(ctx, id); err != nil && !apperrors.IsNotFound(err) {
			deleteErr = fmt.Errorf("delete session: %w", err)
		}
	}

	if session.ID != "" {
		m.logger.InfoContext(ctx, "signed out", "session_id", session.ID)
		m.current.Set(domainauth.Session{})
	}
	return deleteErr
}

// Subscribe registers fn for session changes. fn runs on the goroutine that
// changed the session and must not block.
func (m *SessionManager) Subscribe(fn func(domainauth.Session)) func() {
	return m.current.Subscribe(fn)
}
