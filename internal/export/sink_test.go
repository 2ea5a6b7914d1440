package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

func TestFileSink_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewFileSink(dir)

	path, err := sink.Write(context.Background(), "out.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	// Overwrite replaces content and leaves no temp files behind.
	_, err = sink.Write(context.Background(), "out.csv", []byte("c,d\n"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c,d\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSink_RejectsPaths(t *testing.T) {
	sink := NewFileSink(t.TempDir())

	for _, name := range []string{"", "../escape.csv", "sub/dir.csv"} {
		_, err := sink.Write(context.Background(), name, []byte("x"))
		assert.ErrorIs(t, err, domainerrors.ErrValidation, name)
	}
}

func TestFileSink_Unwritable(t *testing.T) {
	// A regular file where the directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	sink := NewFileSink(filepath.Join(blocker, "exports"))
	_, err := sink.Write(context.Background(), "out.csv", []byte("x"))
	assert.ErrorIs(t, err, domainerrors.ErrStoreUnavailable)
}
