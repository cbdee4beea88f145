package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("first mark wins, repeat is a duplicate", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		fresh, err := store.MarkProcessed(ctx, "notif-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, "notif-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("distinct IDs are independent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		fresh, err := store.MarkProcessed(ctx, "notif-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, "notif-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("IsProcessed reflects marking", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		processed, err := store.IsProcessed(ctx, "notif-1")
		require.NoError(t, err)
		assert.False(t, processed)

		_, err = store.MarkProcessed(ctx, "notif-1", time.Minute)
		require.NoError(t, err)

		processed, err = store.IsProcessed(ctx, "notif-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("expired entries can be marked again", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "notif-1", time.Millisecond)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "notif-1")
		require.NoError(t, err)
		assert.False(t, processed)

		fresh, err := store.MarkProcessed(ctx, "notif-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("cleanup drops expired entries", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "notif-1", time.Millisecond)
		require.NoError(t, err)
		_, err = store.MarkProcessed(ctx, "notif-2", time.Minute)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		store.cleanup()

		assert.Equal(t, 1, store.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()

		require.NoError(t, store.Close())
		require.NoError(t, store.Close())
	})
}
