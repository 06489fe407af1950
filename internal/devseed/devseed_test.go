package devseed

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/content"
	"github.com/stolasapp/gather/internal/sec"
	"github.com/stolasapp/gather/internal/storage"
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

func TestGenerator_Event(t *testing.T) {
	t.Parallel()
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	a := New(42, now)
	b := New(42, now)
	for range 20 {
		event := a.Event(7)
		assert.Equal(t, event, b.Event(7), "same seed yields same events")

		assert.NotEmpty(t, event.Name)
		assert.NotEmpty(t, event.Location)
		assert.NotEmpty(t, event.Description)
		assert.Equal(t, uint64(7), event.OrganizerID)
		assert.Zero(t, event.ID)

		date, err := time.Parse(dateLayout, event.Date)
		require.NoError(t, err)
		assert.False(t, date.Before(now.AddDate(0, 0, -maxDaysBehind-1)))
		assert.False(t, date.After(now.AddDate(0, 0, maxDaysAhead)))

		rendered, err := content.RenderDescription([]byte(event.Description))
		require.NoError(t, err)
		assert.NotEmpty(t, rendered)
	}
}

func TestSeed(t *testing.T) {
	t.Setenv(SeedEnv, "1234")
	assert.Equal(t, uint64(1234), Seed())
}

func TestPopulate(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	organizer, err := EnsureUser(t.Context(), store, "organizer", "password")
	require.NoError(t, err)
	again, err := EnsureUser(t.Context(), store, "organizer", "different")
	require.NoError(t, err)
	assert.Equal(t, organizer, again)
	assert.True(t, sec.VerifyPassword("password", again.PasswordHash))

	created, err := Populate(t.Context(), store, New(1, time.Now()), organizer.ID, 5)
	require.NoError(t, err)
	assert.Len(t, created, 5)

	owned, err := store.ListEventsByOrganizer(t.Context(), organizer.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, created, owned)
}
