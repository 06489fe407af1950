package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// DBTX is the subset of [sql.DB] and [sql.Tx] used by [Queries].
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries executes the statements used by the storage package. Statements are
// written with '?' placeholders and rebound for the target driver.
type Queries struct {
	db     DBTX
	driver Driver
}

// New returns Queries over db for the given driver.
func New(db DBTX, driver Driver) *Queries {
	return &Queries{db: db, driver: driver}
}

// WithTx returns a copy of q that executes within tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, driver: q.driver}
}

func (q *Queries) rebind(query string) string {
	if q.driver != DriverPostgres {
		return query
	}
	var (
		out strings.Builder
		n   int
	)
	out.Grow(len(query) + 8) //nolint:mnd // a few extra digits
	for _, r := range query {
		if r != '?' {
			out.WriteRune(r)
			continue
		}
		n++
		out.WriteByte('$')
		out.WriteString(strconv.Itoa(n))
	}
	return out.String()
}

const getUser = `SELECT id, login_name, password_hash FROM users WHERE id = ?`

// GetUser returns the user with id, or [sql.ErrNoRows].
func (q *Queries) GetUser(ctx context.Context, id uint64) (User, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getUser), id)
	var u User
	err := row.Scan(&u.ID, &u.LoginName, &u.PasswordHash)
	return u, err
}

const getUserByName = `SELECT id, login_name, password_hash FROM users WHERE login_name = ?`

// GetUserByName returns the user with the exact, case-sensitive loginName, or
// [sql.ErrNoRows].
func (q *Queries) GetUserByName(ctx context.Context, loginName string) (User, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getUserByName), loginName)
	var u User
	err := row.Scan(&u.ID, &u.LoginName, &u.PasswordHash)
	return u, err
}

const getUsers = `
SELECT id, login_name, password_hash FROM users
WHERE login_name > ?
ORDER BY login_name
LIMIT ?`

// GetUsersParams are the parameters to [Queries.GetUsers].
type GetUsersParams struct {
	AfterName string
	Limit     int64
}

// GetUsers lists users ordered by name.
func (q *Queries) GetUsers(ctx context.Context, arg GetUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(getUsers), arg.AfterName, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []User
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.ID, &u.LoginName, &u.PasswordHash); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const createUser = `
INSERT INTO users (id, login_name, password_hash) VALUES (?, ?, ?)
ON CONFLICT (login_name) DO NOTHING
RETURNING id`

// CreateUserParams are the parameters to [Queries.CreateUser].
type CreateUserParams User

// CreateUser inserts a user. If the login name is taken, nothing is written and
// [sql.ErrNoRows] is returned.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (uint64, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(createUser), arg.ID, arg.LoginName, arg.PasswordHash)
	var id uint64
	err := row.Scan(&id)
	return id, err
}

const updateUserPassword = `UPDATE users SET password_hash = ? WHERE id = ?`

// UpdateUserPassword replaces the password hash of a user, returning the number
// of rows affected.
func (q *Queries) UpdateUserPassword(ctx context.Context, id uint64, hash []byte) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.rebind(updateUserPassword), hash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

// DeleteUser removes a user.
func (q *Queries) DeleteUser(ctx context.Context, id uint64) error {
	_, err := q.db.ExecContext(ctx, q.rebind(deleteUser), id)
	return err
}

const deleteUserSessions = `DELETE FROM sessions WHERE login_name = ?`

// DeleteUserSessions removes every session bound to loginName.
func (q *Queries) DeleteUserSessions(ctx context.Context, loginName string) error {
	_, err := q.db.ExecContext(ctx, q.rebind(deleteUserSessions), loginName)
	return err
}

const eventColumns = `id, name, event_date, location, description, organizer_id`

func scanEvent(row interface{ Scan(dest ...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Name, &e.Date, &e.Location, &e.Description, &e.OrganizerID)
	return e, err
}

func (q *Queries) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const getEvents = `SELECT ` + eventColumns + ` FROM events WHERE id > ? ORDER BY id LIMIT ?`

// GetEventsParams are the parameters to [Queries.GetEvents].
type GetEventsParams struct {
	AfterID uint64
	Limit   int64
}

// GetEvents lists events ordered by ID.
func (q *Queries) GetEvents(ctx context.Context, arg GetEventsParams) ([]Event, error) {
	return q.queryEvents(ctx, getEvents, arg.AfterID, arg.Limit)
}

const getEventsByOrganizer = `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = ? ORDER BY id`

// GetEventsByOrganizer lists the events created by organizerID.
func (q *Queries) GetEventsByOrganizer(ctx context.Context, organizerID uint64) ([]Event, error) {
	return q.queryEvents(ctx, getEventsByOrganizer, organizerID)
}

const searchEvents = `
SELECT ` + eventColumns + ` FROM events
WHERE LOWER(description) LIKE LOWER(?)
ORDER BY id`

// SearchEvents lists events whose description contains term, ignoring case.
// term is bound as a parameter; it is never interpolated into the statement.
func (q *Queries) SearchEvents(ctx context.Context, term string) ([]Event, error) {
	return q.queryEvents(ctx, searchEvents, "%"+term+"%")
}

const getEvent = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

// GetEvent returns the event with id, or [sql.ErrNoRows].
func (q *Queries) GetEvent(ctx context.Context, id uint64) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, q.rebind(getEvent), id))
}

const createEvent = `
INSERT INTO events (id, name, event_date, location, description, organizer_id)
VALUES (?, ?, ?, ?, ?, ?)`

// CreateEvent inserts an event.
func (q *Queries) CreateEvent(ctx context.Context, e Event) error {
	_, err := q.db.ExecContext(ctx, q.rebind(createEvent),
		e.ID, e.Name, e.Date, e.Location, e.Description, e.OrganizerID)
	return err
}

const updateEvent = `
UPDATE events SET name = ?, event_date = ?, location = ?, description = ?
WHERE id = ?`

// UpdateEvent overwrites the mutable fields of an event, returning the number of
// rows affected. The organizer is never changed.
func (q *Queries) UpdateEvent(ctx context.Context, e Event) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.rebind(updateEvent),
		e.Name, e.Date, e.Location, e.Description, e.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEvent = `DELETE FROM events WHERE id = ?`

// DeleteEvent removes an event.
func (q *Queries) DeleteEvent(ctx context.Context, id uint64) error {
	_, err := q.db.ExecContext(ctx, q.rebind(deleteEvent), id)
	return err
}

const upsertSession = `
INSERT INTO sessions (token, login_name, created_at, expires_at) VALUES (?, ?, ?, ?)
ON CONFLICT (token) DO UPDATE SET
    login_name = excluded.login_name,
    created_at = excluded.created_at,
    expires_at = excluded.expires_at`

// UpsertSession creates or replaces a session.
func (q *Queries) UpsertSession(ctx context.Context, s Session) error {
	_, err := q.db.ExecContext(ctx, q.rebind(upsertSession),
		s.Token, s.LoginName, s.CreatedAt, s.ExpiresAt)
	return err
}

const getSession = `
SELECT token, login_name, created_at, expires_at FROM sessions
WHERE token = ? AND expires_at > ?`

// GetSessionParams are the parameters to [Queries.GetSession].
type GetSessionParams struct {
	Token string
	Now   int64
}

// GetSession returns the unexpired session for a token, or [sql.ErrNoRows].
func (q *Queries) GetSession(ctx context.Context, arg GetSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getSession), arg.Token, arg.Now)
	var s Session
	err := row.Scan(&s.Token, &s.LoginName, &s.CreatedAt, &s.ExpiresAt)
	return s, err
}

const deleteSession = `DELETE FROM sessions WHERE token = ?`

// DeleteSession removes a session. Deleting an unknown token is not an error.
func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, q.rebind(deleteSession), token)
	return err
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= ?`

// DeleteExpiredSessions removes sessions that expired at or before now,
// returning the number removed.
func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.rebind(deleteExpiredSessions), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
