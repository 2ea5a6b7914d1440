package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("exp")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("exp")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "exp-"))

	// NanoID default is 21 characters.
	assert.Len(t, strings.TrimPrefix(id, "exp-"), 21)
}

func TestFileSuffix(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		s, err := FileSuffix()
		require.NoError(t, err)
		assert.Len(t, s, fileSuffixLen)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(fileSafeAlphabet, r), "unexpected rune %q in %s", r, s)
		}
		assert.False(t, seen[s], "suffix should be unique: %s", s)
		seen[s] = true
	}
}
