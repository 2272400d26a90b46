package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "token"))
}

func TestLoadMissingFileMeansLoggedOut(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())
	assert.Empty(t, s.Token())
	assert.Error(t, s.Require())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("abc123"))
	assert.Equal(t, "abc123", s.Token())
	require.NoError(t, s.Require())

	// A fresh store reading the same file sees the token.
	fresh := NewStore(s.path)
	require.NoError(t, fresh.Load())
	assert.Equal(t, "abc123", fresh.Token())
}

func TestSaveWritesOwnerOnlyFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("abc123"))

	info, err := os.Stat(s.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestClearRemovesTokenAndFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("abc123"))

	s.Clear()
	assert.Empty(t, s.Token())
	assert.Error(t, s.Require())

	_, err := os.Stat(s.path)
	assert.True(t, os.IsNotExist(err))
}

func TestClearWithoutFileIsQuiet(t *testing.T) {
	s := newTestStore(t)
	s.Clear()
	assert.Empty(t, s.Token())
}

func TestLoadTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  abc123\n"), 0o600))

	s := NewStore(path)
	require.NoError(t, s.Load())
	assert.Equal(t, "abc123", s.Token())
}
