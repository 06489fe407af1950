package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/influxdata/influxdb/pkg/snowflake"

	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/storage/db"
)

// DB is a [Store] backed by a SQL database.
type DB struct {
	ids     *snowflake.Generator
	db      *sql.DB
	queries *db.Queries
}

// NewDB initializes a DB with the given config and logger.
func NewDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	driver := db.Driver(cfg.Database.Driver)
	handle, err := db.Open(ctx, logger, driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	return &DB{
		ids:     snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:      handle,
		queries: db.New(handle, driver),
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// ListUsers satisfies the [Users] interface.
func (d *DB) ListUsers(ctx context.Context, afterName string, limit int32) ([]db.User, error) {
	return d.queries.GetUsers(ctx, db.GetUsersParams{
		AfterName: afterName,
		Limit:     int64(limit),
	})
}

// GetUser satisfies the [Users] interface.
func (d *DB) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	user, err := d.queries.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// GetUserByName satisfies the [Users] interface.
func (d *DB) GetUserByName(ctx context.Context, name string) (db.User, error) {
	user, err := d.queries.GetUserByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// CreateUser satisfies the [Users] interface.
func (d *DB) CreateUser(ctx context.Context, user db.User) (db.User, error) {
	if user.LoginName == "" {
		return user, ErrInvalidUsername
	}
	if user.ID == 0 {
		user.ID = d.ids.Next()
	}
	switch _, err := d.queries.CreateUser(ctx, db.CreateUserParams(user)); {
	case errors.Is(err, sql.ErrNoRows):
		return db.User{}, ErrAlreadyExists
	case err != nil:
		return db.User{}, fmt.Errorf("failed to create user: %w", err)
	default:
		return user, nil
	}
}

// UpdatePassword satisfies the [Users] interface.
func (d *DB) UpdatePassword(ctx context.Context, userID uint64, hash []byte) error {
	n, err := d.queries.UpdateUserPassword(ctx, userID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser satisfies the [Users] interface.
func (d *DB) DeleteUser(ctx context.Context, userID uint64) (err error) {
	user, err := d.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	queries := d.queries.WithTx(tx)
	if err = queries.DeleteUserSessions(ctx, user.LoginName); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	if err = queries.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return tx.Commit()
}

// ListEvents satisfies the [Events] interface.
func (d *DB) ListEvents(ctx context.Context, afterID uint64, limit int32) ([]db.Event, error) {
	return d.queries.GetEvents(ctx, db.GetEventsParams{
		AfterID: afterID,
		Limit:   int64(limit),
	})
}

// ListEventsByOrganizer satisfies the [Events] interface.
func (d *DB) ListEventsByOrganizer(ctx context.Context, organizerID uint64) ([]db.Event, error) {
	return d.queries.GetEventsByOrganizer(ctx, organizerID)
}

// SearchEvents satisfies the [Events] interface.
func (d *DB) SearchEvents(ctx context.Context, term string) ([]db.Event, error) {
	return d.queries.SearchEvents(ctx, term)
}

// GetEvent satisfies the [Events] interface.
func (d *DB) GetEvent(ctx context.Context, eventID uint64) (db.Event, error) {
	event, err := d.queries.GetEvent(ctx, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return event, ErrNotFound
	}
	return event, err
}

// CreateEvent satisfies the [Events] interface.
func (d *DB) CreateEvent(ctx context.Context, event db.Event) (db.Event, error) {
	if event.ID == 0 {
		event.ID = d.ids.Next()
	}
	if err := d.queries.CreateEvent(ctx, event); err != nil {
		return db.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// UpdateEvent satisfies the [Events] interface.
func (d *DB) UpdateEvent(ctx context.Context, event db.Event) error {
	n, err := d.queries.UpdateEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent satisfies the [Events] interface.
func (d *DB) DeleteEvent(ctx context.Context, eventID uint64) error {
	return d.queries.DeleteEvent(ctx, eventID)
}

// PutSession satisfies the [Sessions] interface.
func (d *DB) PutSession(ctx context.Context, session db.Session) error {
	return d.queries.UpsertSession(ctx, session)
}

// GetSession satisfies the [Sessions] interface.
func (d *DB) GetSession(ctx context.Context, token string, now time.Time) (db.Session, error) {
	session, err := d.queries.GetSession(ctx, db.GetSessionParams{
		Token: token,
		Now:   now.Unix(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return session, ErrNotFound
	}
	return session, err
}

// DeleteSession satisfies the [Sessions] interface.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	return d.queries.DeleteSession(ctx, token)
}

// DeleteExpiredSessions satisfies the [Sessions] interface.
func (d *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return d.queries.DeleteExpiredSessions(ctx, now.Unix())
}

var _ Store = (*DB)(nil)
