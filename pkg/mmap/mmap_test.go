package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.exe")
	content := []byte("MZ\x90\x00 installer bytes")
	require.NoError(t, os.WriteFile(path, content, 0644))

	m, err := Open(path, 0)
	require.NoError(t, err)
	assert.Equal(t, content, m.Data)
	require.NoError(t, m.Close())
	assert.Nil(t, m.Data)
	require.NoError(t, m.Close())
}

func TestOpenLimits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.msi")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0644))

	_, err := Open(path, 64)
	assert.ErrorIs(t, err, ErrTooLarge)

	m, err := Open(path, 128)
	require.NoError(t, err)
	assert.Len(t, m.Data, 128)
	require.NoError(t, m.Close())

	empty := filepath.Join(dir, "empty.zip")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	m, err = Open(empty, 0)
	require.NoError(t, err)
	assert.Empty(t, m.Data)
	require.NoError(t, m.Close())

	_, err = Open(filepath.Join(dir, "missing.exe"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(dir, 0)
	assert.Error(t, err)
}
