package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recipebox/webapp/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFromConfig(ctx, config.StorageConfig{Backend: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)

	key := "uploads/abc-soup.png"
	require.NoError(t, s.Put(ctx, key, strings.NewReader("pixels"), 6, "image/png"))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, s.Release(ctx, 1, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// Deleting twice is fine.
	assert.NoError(t, s.Delete(ctx, key))
	// Releasing an empty key is a no-op.
	assert.NoError(t, s.Release(ctx, 1, ""))
}

func TestLocalClientKeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	client, err := NewLocalClient(filepath.Join(root, "static"))
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(context.Background()))

	require.NoError(t, client.Put(context.Background(), "../../escape.png", strings.NewReader("x"), 1, ""))

	_, err = os.Stat(filepath.Join(root, "escape.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "static", "escape.png"))
	assert.NoError(t, err)
}

func TestNewFromConfigRejectsUnknownBackend(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.EqualError(t, err, `unknown storage backend "ftp"`)
}
