// Package redis persists signed-in sessions in Redis so a profile survives
// between CLI invocations and can be shared by several hosts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/eventnav/internal/domain/auth"
	apperrors "github.com/target/eventnav/internal/errors"
	"github.com/target/eventnav/internal/ports"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "eventnav:session:"

// ErrNotFound is returned when no live session is stored for a profile.
var ErrNotFound error = apperrors.NotFound("session not found")

var _ ports.SessionStore = (*SessionStore)(nil)

// Options tunes a SessionStore. The zero value is usable.
type Options struct {
	Prefix string           // key prefix; DefaultKeyPrefix when empty
	Now    func() time.Time // clock used for expiry checks
}

// SessionStore keeps one JSON record per profile. Keys expire at the
// session's own ExpiresAt; sessions without an expiry are stored without a TTL.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore returns a store backed by client.
func NewSessionStore(client redis.UniversalClient, opts Options) *SessionStore {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionStore{client: client, prefix: prefix, now: now}
}

func (s *SessionStore) key(id string) string { return s.prefix + id }

func (s *SessionStore) expired(sess domainauth.Session) bool {
	return !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt)
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if s.expired(sess) {
		return errors.New("session is expired")
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	args := redis.SetArgs{}
	if !sess.ExpiresAt.IsZero() {
		args.ExpireAt = sess.ExpiresAt
	}
	if err := s.client.SetArgs(ctx, s.key(sess.ID), payload, args).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return domainauth.Session{}, ErrNotFound
	case err != nil:
		return domainauth.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}

	// Clock skew between hosts can outlive key expiry.
	if s.expired(sess) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, err
		}
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
