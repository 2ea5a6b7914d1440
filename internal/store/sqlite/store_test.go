package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err, "open store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	// Foreign keys must be on for association cascades.
	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	for _, table := range []string{"day_tags", "day_tag_associations", "entries"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(dbPath, nil)
	require.NoError(t, err)
	_, _, err = s.FindOrCreateDayTag(context.Background(), "coffee", "Coffee", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Schema statements are idempotent; existing rows survive.
	s, err = Open(dbPath, nil)
	require.NoError(t, err)
	defer s.Close()

	tag, err := s.GetDayTagByName(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", tag.DisplayName)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _, err := s.FindOrCreateDayTag(ctx, "coffee", "Coffee", nil)
	require.NoError(t, err)
	_, err = s.AttachDayTag(ctx, tag.ID, "2024-03-01")
	require.NoError(t, err)
	_, err = s.AttachDayTag(ctx, tag.ID, "2024-03-02")
	require.NoError(t, err)
	createBowelMovement(t, s, "2024-03-01", "08:00", 4, 1, "")

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.DayTags)
	assert.Equal(t, 2, st.Associations)
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, 0, st.DriftedTags)

	_, err = s.db.Exec(`UPDATE day_tags SET usage_count = 9 WHERE id = ?`, tag.ID)
	require.NoError(t, err)

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.DriftedTags)
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/x.db")
	assert.True(t, strings.HasPrefix(got, "/tmp/x.db?"))
	assert.Contains(t, got, "_pragma=foreign_keys%281%29")
	assert.Contains(t, got, "_pragma=journal_mode%28WAL%29")
}
