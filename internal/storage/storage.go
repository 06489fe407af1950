// Package storage provides the state management for users, events, and
// sessions.
package storage

import (
	"context"
	"time"

	"github.com/stolasapp/gather/internal/storage/db"
)

const (
	// ErrNotFound is returned when a user, event, or session cannot be found.
	ErrNotFound Error = "not found"
	// ErrAlreadyExists is returned if a unique user already exists.
	ErrAlreadyExists Error = "already exists"
	// ErrInvalidUsername is returned when a login name is empty.
	ErrInvalidUsername Error = "login name must not be empty"
	// ErrInternal is returned for any other type of error.
	ErrInternal Error = "internal error"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying credential records.
type Users interface {
	// ListUsers returns the users in a list, paginated by the given name (if
	// provided) up to the given limit of records.
	ListUsers(ctx context.Context, afterName string, limit int32) ([]db.User, error)
	// GetUser returns a single user with the specified ID. An [ErrNotFound] is
	// returned if the user ID does not exist.
	GetUser(ctx context.Context, userID uint64) (db.User, error)
	// GetUserByName returns a single user with the specified login name, matched
	// exactly and case-sensitively. An [ErrNotFound] is returned if the login
	// name does not exist.
	GetUserByName(ctx context.Context, name string) (db.User, error)
	// CreateUser persists a new user, assigning its ID. An [ErrAlreadyExists]
	// error is returned, and nothing is written, if the login name is in use.
	CreateUser(ctx context.Context, user db.User) (db.User, error)
	// UpdatePassword replaces the password hash of an existing user. An
	// [ErrNotFound] is returned if the user ID does not exist.
	UpdatePassword(ctx context.Context, userID uint64, hash []byte) error
	// DeleteUser removes a user and any sessions bound to them. Note that this
	// is a hard delete; data is not recoverable.
	DeleteUser(ctx context.Context, userID uint64) error
}

// Events are the methods on a storage implementation that are responsible for
// accessing and modifying events.
type Events interface {
	// ListEvents returns events ordered by ID, starting after afterID (zero for
	// the first page), up to limit records.
	ListEvents(ctx context.Context, afterID uint64, limit int32) ([]db.Event, error)
	// ListEventsByOrganizer returns every event created by organizerID.
	ListEventsByOrganizer(ctx context.Context, organizerID uint64) ([]db.Event, error)
	// SearchEvents returns events whose description contains term, ignoring
	// case. Callers are expected to sanitize term first.
	SearchEvents(ctx context.Context, term string) ([]db.Event, error)
	// GetEvent returns a single event. An [ErrNotFound] is returned if the ID
	// does not exist.
	GetEvent(ctx context.Context, eventID uint64) (db.Event, error)
	// CreateEvent persists a new event, assigning its ID.
	CreateEvent(ctx context.Context, event db.Event) (db.Event, error)
	// UpdateEvent overwrites an existing event. An [ErrNotFound] is returned if
	// the ID does not exist.
	UpdateEvent(ctx context.Context, event db.Event) error
	// DeleteEvent removes an event. Deleting an unknown ID is not an error.
	DeleteEvent(ctx context.Context, eventID uint64) error
}

// Sessions are the methods on a storage implementation that persist
// server-side session state.
type Sessions interface {
	// PutSession creates or replaces the session for its token.
	PutSession(ctx context.Context, session db.Session) error
	// GetSession returns the session for token if it has not expired at now. An
	// [ErrNotFound] is returned otherwise.
	GetSession(ctx context.Context, token string, now time.Time) (db.Session, error)
	// DeleteSession removes the session for token. Deleting an unknown token is
	// not an error.
	DeleteSession(ctx context.Context, token string) error
	// DeleteExpiredSessions removes sessions that expired at or before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the combination interface for [Users], [Events], and [Sessions].
type Store interface {
	Users
	Events
	Sessions
	// Close releases any resources held by the store. An error is returned if
	// the store cannot be cleanly closed.
	Close() error
}
