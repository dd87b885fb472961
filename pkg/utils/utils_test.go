package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "snapshot.yaml")
	require.NoError(t, os.WriteFile(file, []byte("regime: quote\n"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.yaml")))
	assert.False(t, FileExists(dir), "a directory is not a file")
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(filepath.Join(dir, "nonexistent")))
}

func TestEnsureDir(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "logs", "engine")
	require.NoError(t, EnsureDir(newDir))
	assert.True(t, DirExists(newDir))
	assert.NoError(t, EnsureDir(newDir))
}

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")
	require.NoError(t, EnsureParentDir(path))
	assert.True(t, DirExists(filepath.Dir(path)))
	assert.False(t, FileExists(path))
}

func TestContains(t *testing.T) {
	levels := []string{"debug", "info"}
	assert.True(t, Contains(levels, "info"))
	assert.False(t, Contains(levels, "trace"))
	assert.False(t, Contains(nil, "info"))
}

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3"}, got)
	assert.Empty(t, Map([]int{}, strconv.Itoa))
}
