package sec

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "gather_session"

const tokenBytes = 32

// Session binds an opaque token to an identity until it expires.
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether s is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists sessions by token. Implementations must be safe for
// concurrent use.
type SessionStore interface {
	// Put creates or replaces the session for its token.
	Put(ctx context.Context, session Session) error
	// Get returns the session for token. The boolean is false if the token is
	// unknown or the session has expired.
	Get(ctx context.Context, token string) (Session, bool, error)
	// Delete removes the session for token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error
}

// Sessions manages the lifecycle of sessions: created on login, resolved on
// every request, and destroyed on logout.
type Sessions struct {
	store      SessionStore
	identities IdentityProvider
	ttl        time.Duration
	secure     bool
	logger     *slog.Logger
	now        func() time.Time
}

// SessionsOption configures [Sessions].
type SessionsOption func(*Sessions)

// WithSecureCookie marks the session cookie as Secure.
func WithSecureCookie(secure bool) SessionsOption {
	return func(s *Sessions) { s.secure = secure }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SessionsOption {
	return func(s *Sessions) { s.now = now }
}

// NewSessions returns a session manager storing sessions in store for ttl.
// Identities are reloaded through identities on each resolution so that
// removed users lose access immediately.
func NewSessions(
	store SessionStore,
	identities IdentityProvider,
	ttl time.Duration,
	logger *slog.Logger,
	opts ...SessionsOption,
) *Sessions {
	sessions := &Sessions{
		store:      store,
		identities: identities,
		ttl:        ttl,
		logger:     logger.With(slog.String("component", "sessions")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(sessions)
	}
	return sessions
}

// Create establishes a new session for identity under a fresh random token.
func (s *Sessions) Create(ctx context.Context, identity Identity) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, err
	}
	now := s.now()
	session := Session{
		Token:     token,
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err = s.store.Put(ctx, session); err != nil {
		return Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	s.logger.DebugContext(ctx, "session created", slog.String("login_name", identity.LoginName))
	return session, nil
}

// Destroy removes the session for token. It is idempotent; empty and unknown
// tokens are not errors.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Resolve returns the identity bound to token. The boolean is false, meaning
// the request is anonymous, if the token is empty, unknown, expired, or bound
// to a user that no longer exists. Storage failures are logged and also
// resolve as anonymous.
func (s *Sessions) Resolve(ctx context.Context, token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	session, ok, err := s.store.Get(ctx, token)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load session", slog.Any("error", err))
		return Identity{}, false
	}
	if !ok || session.Expired(s.now()) {
		return Identity{}, false
	}

	identity, err := s.identities.LoadIdentity(ctx, session.Identity.LoginName)
	if failure := (*AuthFailure)(nil); errors.As(err, &failure) {
		s.logger.DebugContext(ctx, "session user no longer exists",
			slog.String("login_name", session.Identity.LoginName))
		if err = s.Destroy(ctx, token); err != nil {
			s.logger.ErrorContext(ctx, "failed to destroy stale session", slog.Any("error", err))
		}
		return Identity{}, false
	} else if err != nil {
		s.logger.ErrorContext(ctx, "failed to load session identity", slog.Any("error", err))
		return Identity{}, false
	}
	return identity, true
}

// Cookie returns the cookie carrying session to the client.
func (s *Sessions) Cookie(session Session) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie returns a cookie instructing the client to drop its session
// token.
func (s *Sessions) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
