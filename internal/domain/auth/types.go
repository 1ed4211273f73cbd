package auth

// Package auth contains domain-level types for identities, credentials and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Identity represents the authenticated principal returned by an IdP or token parser.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID      string // stable user identifier (e.g., samAccountName or sub)
	FirstName   string
	LastName    string
	Email       string
	Groups      []string
	AccessToken string    // bearer credential presented to the events API
	ExpiresAt   time.Time // absolute expiry from IdP token
}

// Credentials is the subset of a session the access gate and privileged actions consume.
type Credentials struct {
	Email string
	Token string
}

// Complete reports whether both the email and the bearer token are present.
func (c Credentials) Complete() bool { return c.Email != "" && c.Token != "" }

// Session is the record we persist for the signed-in user.
// ID names the profile slot the session is stored under.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// IsAdmin returns true if the session carries the admin role.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// SignedIn reports whether the session holds a usable credential at now.
func (s Session) SignedIn(now time.Time) bool {
	if s.ID == "" || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Credentials returns the email and bearer token of the session.
func (s Session) Credentials() Credentials {
	return Credentials{Email: s.Email, Token: s.Token}
}
