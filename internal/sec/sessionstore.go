package sec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/die-net/lrucache"

	"github.com/stolasapp/gather/internal/storage"
	"github.com/stolasapp/gather/internal/storage/db"
)

const maxMemorySessionBytes = 16 << 20 // 16 MiB

// MemorySessionStore is a [SessionStore] held in process memory. Sessions are
// lost on restart, and the least recently used are evicted once the store is
// full.
type MemorySessionStore struct {
	cache *lrucache.LruCache
	now   func() time.Time
}

// NewMemorySessionStore returns a MemorySessionStore whose entries live no
// longer than ttl.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	maxAge := max(int64(ttl/time.Second), 1)
	return &MemorySessionStore{
		cache: lrucache.New(maxMemorySessionBytes, maxAge),
		now:   time.Now,
	}
}

// Put satisfies the [SessionStore] interface.
func (m *MemorySessionStore) Put(_ context.Context, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.cache.Set(session.Token, data)
	return nil
}

// Get satisfies the [SessionStore] interface.
func (m *MemorySessionStore) Get(_ context.Context, token string) (Session, bool, error) {
	data, ok := m.cache.Get(token)
	if !ok {
		return Session{}, false, nil
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, false, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Expired(m.now()) {
		m.cache.Delete(token)
		return Session{}, false, nil
	}
	return session, true, nil
}

// Delete satisfies the [SessionStore] interface.
func (m *MemorySessionStore) Delete(_ context.Context, token string) error {
	m.cache.Delete(token)
	return nil
}

// DatabaseSessionStore is a [SessionStore] persisted through the storage layer,
// surviving restarts and shared between instances using the same database.
type DatabaseSessionStore struct {
	sessions storage.Sessions
	now      func() time.Time
}

// NewDatabaseSessionStore returns a DatabaseSessionStore over sessions.
func NewDatabaseSessionStore(sessions storage.Sessions) *DatabaseSessionStore {
	return &DatabaseSessionStore{
		sessions: sessions,
		now:      time.Now,
	}
}

// Put satisfies the [SessionStore] interface.
func (d *DatabaseSessionStore) Put(ctx context.Context, session Session) error {
	return d.sessions.PutSession(ctx, db.Session{
		Token:     session.Token,
		LoginName: session.Identity.LoginName,
		CreatedAt: session.CreatedAt.Unix(),
		ExpiresAt: session.ExpiresAt.Unix(),
	})
}

// Get satisfies the [SessionStore] interface.
func (d *DatabaseSessionStore) Get(ctx context.Context, token string) (Session, bool, error) {
	row, err := d.sessions.GetSession(ctx, token, d.now())
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, false, nil
	} else if err != nil {
		return Session{}, false, err
	}
	return Session{
		Token:     row.Token,
		Identity:  NewIdentity(row.LoginName),
		CreatedAt: time.Unix(row.CreatedAt, 0),
		ExpiresAt: time.Unix(row.ExpiresAt, 0),
	}, true, nil
}

// Delete satisfies the [SessionStore] interface.
func (d *DatabaseSessionStore) Delete(ctx context.Context, token string) error {
	return d.sessions.DeleteSession(ctx, token)
}

// Prune removes expired sessions from the database, returning the number
// removed.
func (d *DatabaseSessionStore) Prune(ctx context.Context) (int64, error) {
	return d.sessions.DeleteExpiredSessions(ctx, d.now())
}

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*DatabaseSessionStore)(nil)
)
