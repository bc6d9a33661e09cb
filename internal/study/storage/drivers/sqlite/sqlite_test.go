package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libertybell/apstudy/internal/study/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.ApplyMigrations())
	return store
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Get(ctx, "nope")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set get round trip", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.Set(ctx, "apush_session", `{"id":"u1"}`))

		value, err := store.Get(ctx, "apush_session")
		require.NoError(t, err)
		require.Equal(t, `{"id":"u1"}`, value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.Set(ctx, "theme", "light"))
		require.NoError(t, store.Set(ctx, "theme", "dark"))

		value, err := store.Get(ctx, "theme")
		require.NoError(t, err)
		require.Equal(t, "dark", value)
	})

	t.Run("delete", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.Set(ctx, "theme", "dark"))
		require.NoError(t, store.Delete(ctx, "theme"))

		_, err := store.Get(ctx, "theme")
		require.ErrorIs(t, err, storage.ErrNotFound)

		// Deleting a missing key is not an error.
		require.NoError(t, store.Delete(ctx, "theme"))
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.ApplyMigrations())
	})
}
