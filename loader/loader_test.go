package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.holly")
	require.NoError(t, os.WriteFile(path, []byte("let x = 1"), 0600))

	src, filename, err := LoadSource(path)
	require.NoError(t, err)
	require.Equal(t, "let x = 1", src)
	require.Equal(t, path, filename)
}

func TestLoadSourceMissingFile(t *testing.T) {
	_, _, err := LoadSource(filepath.Join(t.TempDir(), "missing.holly"))
	require.Error(t, err)
}

func TestLoadSourceRejectsEmbeddedNull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.holly")
	require.NoError(t, os.WriteFile(path, []byte("let x\x00= 1"), 0600))

	_, _, err := LoadSource(path)
	require.Error(t, err)
}
