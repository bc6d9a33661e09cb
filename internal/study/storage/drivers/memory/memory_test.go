package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libertybell/apstudy/internal/study/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		store := New()
		_, err := store.Get(ctx, "nope")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set get delete", func(t *testing.T) {
		store := New()

		require.NoError(t, store.Set(ctx, "k", "v1"))
		require.NoError(t, store.Set(ctx, "k", "v2"))

		value, err := store.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v2", value)
		require.Equal(t, 1, store.Len())

		require.NoError(t, store.Delete(ctx, "k"))
		_, err = store.Get(ctx, "k")
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.Zero(t, store.Len())
	})

	t.Run("close is a no-op", func(t *testing.T) {
		store := New()
		require.NoError(t, store.Close())
	})
}
