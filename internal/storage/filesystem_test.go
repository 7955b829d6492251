package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystem_WriteReadRemove(t *testing.T) {
	fs := NewMemoryFileSystem()

	require.NoError(t, fs.WriteFile("kv/notes.json", []byte(`[]`)))
	b, err := fs.ReadFile("kv/notes.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	names, err := fs.ReadDir("kv")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.json"}, names)

	require.NoError(t, fs.Remove("kv/notes.json"))
	require.NoError(t, fs.Remove("kv/notes.json"))
	ok, err := fs.Exists("kv/notes.json")
	require.NoError(t, err)
	assert.False(t, ok)

	names, err = fs.ReadDir("missing")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileSystem_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	fs, err := NewFileSystem(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Save("backups/a.txt", strings.NewReader("hello")))
	b, err := os.ReadFile(filepath.Join(dir, "backups", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	assert.Equal(t, dir, fs.Dir())
}
