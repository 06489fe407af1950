package sec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/authn"

	"github.com/stolasapp/gather/internal/storage"
)

// AuthorityUser is the single authority granted to every authenticated user.
const AuthorityUser = "USER"

// Identity is the authenticated principal bound to a request or session.
type Identity struct {
	LoginName   string   `json:"login_name"`
	Authorities []string `json:"authorities"`
}

// NewIdentity returns the identity for loginName with the user authority.
func NewIdentity(loginName string) Identity {
	return Identity{
		LoginName:   loginName,
		Authorities: []string{AuthorityUser},
	}
}

// IsAnonymous reports whether i carries no login name.
func (i Identity) IsAnonymous() bool {
	return i.LoginName == ""
}

// Reason distinguishes why authentication failed. Reasons are only surfaced in
// logs; callers present a single generic failure to the user.
type Reason int

const (
	// ReasonUserNotFound indicates no credential record matches the login name.
	ReasonUserNotFound Reason = iota + 1
	// ReasonBadCredentials indicates the password did not match.
	ReasonBadCredentials
)

func (r Reason) String() string {
	switch r {
	case ReasonUserNotFound:
		return "user not found"
	case ReasonBadCredentials:
		return "bad credentials"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// AuthFailure is returned when credentials cannot be verified. Use [errors.As]
// to inspect the [Reason].
type AuthFailure struct {
	Reason Reason
	err    error
}

func (f *AuthFailure) Error() string {
	return "authentication failed: " + f.Reason.String()
}

func (f *AuthFailure) Unwrap() error { return f.err }

// IdentityProvider resolves identities from credentials or login names.
type IdentityProvider interface {
	// Authenticate verifies the login name and plaintext password, returning
	// the matching identity. An [*AuthFailure] is returned if the user does not
	// exist or the password is wrong; any other error is a storage failure.
	Authenticate(ctx context.Context, loginName, password string) (Identity, error)
	// LoadIdentity returns the identity for an existing login name without
	// verifying a password. An [*AuthFailure] wrapping [storage.ErrNotFound] is
	// returned if the user no longer exists.
	LoadIdentity(ctx context.Context, loginName string) (Identity, error)
}

// Authenticator is an [IdentityProvider] backed by the user store.
type Authenticator struct {
	users  storage.Users
	logger *slog.Logger
}

// NewAuthenticator returns an Authenticator over users.
func NewAuthenticator(users storage.Users, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		users:  users,
		logger: logger.With(slog.String("component", "authenticator")),
	}
}

// Authenticate satisfies the [IdentityProvider] interface.
func (a *Authenticator) Authenticate(ctx context.Context, loginName, password string) (Identity, error) {
	user, err := a.users.GetUserByName(ctx, loginName)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		a.logger.DebugContext(ctx, "login rejected",
			slog.String("login_name", loginName),
			slog.String("reason", ReasonUserNotFound.String()),
		)
		return Identity{}, &AuthFailure{Reason: ReasonUserNotFound, err: err}
	case err != nil:
		return Identity{}, fmt.Errorf("failed to load user: %w", err)
	}
	if err = ComparePassword(password, user.PasswordHash); err != nil {
		a.logger.DebugContext(ctx, "login rejected",
			slog.String("login_name", loginName),
			slog.String("reason", ReasonBadCredentials.String()),
		)
		return Identity{}, &AuthFailure{Reason: ReasonBadCredentials, err: err}
	}
	return NewIdentity(user.LoginName), nil
}

// LoadIdentity satisfies the [IdentityProvider] interface.
func (a *Authenticator) LoadIdentity(ctx context.Context, loginName string) (Identity, error) {
	user, err := a.users.GetUserByName(ctx, loginName)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return Identity{}, &AuthFailure{Reason: ReasonUserNotFound, err: err}
	case err != nil:
		return Identity{}, fmt.Errorf("failed to load user: %w", err)
	}
	return NewIdentity(user.LoginName), nil
}

var _ IdentityProvider = (*Authenticator)(nil)

// GetAuthenticatedUser returns the identity of the authenticated user. Returns
// an anonymous Identity if the context has no authenticated user or if the
// stored value is not an Identity (should only happen if middleware is
// misconfigured).
func GetAuthenticatedUser(ctx context.Context) Identity {
	if identity, ok := authn.GetInfo(ctx).(Identity); ok {
		return identity
	}
	return Identity{}
}

// SetAuthenticatedUser sets the identity for an authenticated user. The session
// middleware injects this information; this function is also provided as a
// convenience for testing.
func SetAuthenticatedUser(ctx context.Context, identity Identity) context.Context {
	return authn.SetInfo(ctx, identity)
}
