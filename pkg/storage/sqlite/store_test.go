package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "composer.db"), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, ok, err := store.Get(ctx, composer.KeyFolders)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, composer.KeyFolders, `[]`))
	require.NoError(t, store.Set(ctx, composer.KeyFolders, `[{"id":"a","name":"A"}]`))

	value, ok, err := store.Get(ctx, composer.KeyFolders)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a","name":"A"}]`, value)
}

func TestStoreNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "composer.db")
	first, err := Open(ctx, path, "one")
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, composer.KeyThemeMode, "light"))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, "two")
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	_, ok, err := second.Get(ctx, composer.KeyThemeMode)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreBacksEntityStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "composer.db")
	storage, err := Open(ctx, path, "app")
	require.NoError(t, err)

	session, err := composer.Bootstrap(ctx, composer.BootstrapOptions{Storage: storage})
	require.NoError(t, err)
	folder, err := session.AddFolder(ctx, "Persisted", "")
	require.NoError(t, err)
	session.Close()
	require.NoError(t, storage.Close())

	reopened, err := Open(ctx, path, "app")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	session, err = composer.Bootstrap(ctx, composer.BootstrapOptions{Storage: reopened})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	got, ok := session.Store().Folder(folder.ID)
	require.True(t, ok)
	assert.Equal(t, "Persisted", got.Name)
}
