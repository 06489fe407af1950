package sec

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/storage"
	"github.com/stolasapp/gather/internal/storage/db"
)

func newTestStore(t *testing.T) *storage.DB {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Filepath = filepath.Join(t.TempDir(), "db.sqlite")
	store, err := storage.NewDB(t.Context(), cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestUser(t *testing.T, store storage.Users, name, password string) db.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user, err := store.CreateUser(t.Context(), db.User{
		LoginName:    name,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	return user
}
