package assets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIndexFound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0644))

	p, err := ResolveIndex(root, "", "demo")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "index.html"), p)
}

func TestResolveIndexCustomFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.html"), []byte("x"), 0644))

	_, err := ResolveIndex(root, "main.html", "demo")
	require.NoError(t, err)

	_, err = ResolveIndex(root, "index.html", "demo")
	require.Error(t, err)
}

func TestResolveIndexMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nope")

	_, err := ResolveIndex(root, "index.html", "demo")

	var missing *MissingResourceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, filepath.Join(root, "index.html"), missing.Path)
	assert.Equal(t, "demo", missing.Runtime)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "could not be found")
}

func TestResolveIndexRejectsDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "index.html"), 0755))

	_, err := ResolveIndex(root, "index.html", "demo")

	var missing *MissingResourceError
	assert.True(t, errors.As(err, &missing))
}

func TestResourceExists(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ResourceExists(dir, "demo"))
	assert.Error(t, ResourceExists(filepath.Join(dir, "missing.css"), "demo"))
}
