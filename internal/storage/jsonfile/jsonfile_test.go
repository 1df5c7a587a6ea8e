package jsonfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteAtomic_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")

	require.NoError(t, WriteAtomic(path, doc{Name: "a", Count: 1}))
	require.NoError(t, WriteAtomic(path, doc{Name: "b", Count: 2}))

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, doc{Name: "b", Count: 2}, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteAtomic_EncodeFailureKeepsOldContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, WriteAtomic(path, doc{Name: "kept"}))

	err := WriteAtomic(path, map[string]any{"bad": make(chan int)})
	require.Error(t, err)

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, "kept", got.Name)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	var got doc
	err := Read(filepath.Join(dir, "missing.json"), &got)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"name":`), 0o644))
	err = Read(broken, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}
