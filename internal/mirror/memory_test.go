package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load returns nil when nothing is mirrored", func(t *testing.T) {
		store := NewMemoryStore()
		snap, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("save then load round-trips the selections", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Save(ctx, &Snapshot{
			AttemptID:  1,
			SavedAt:    time.Now().UTC(),
			Selections: map[uint][]uint{7: {1, 2}},
		}))

		snap, err := store.Load(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, []uint{1, 2}, snap.Selections[7])
	})

	t.Run("save copies the snapshot, later caller mutations are invisible", func(t *testing.T) {
		store := NewMemoryStore()
		snap := &Snapshot{AttemptID: 1, Selections: map[uint][]uint{7: {1}}}
		require.NoError(t, store.Save(ctx, snap))

		snap.Selections[7][0] = 99
		snap.Selections[8] = []uint{5}

		loaded, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, loaded.Selections[7])
		assert.NotContains(t, loaded.Selections, uint(8))
	})

	t.Run("a later save replaces the earlier snapshot", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Save(ctx, &Snapshot{AttemptID: 1, Selections: map[uint][]uint{7: {1}}}))
		require.NoError(t, store.Save(ctx, &Snapshot{AttemptID: 1, Selections: map[uint][]uint{7: {2}}}))

		loaded, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{2}, loaded.Selections[7])
	})

	t.Run("clear removes the snapshot and is idempotent", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Save(ctx, &Snapshot{AttemptID: 1, Selections: map[uint][]uint{}}))
		require.NoError(t, store.Clear(ctx, 1))
		require.NoError(t, store.Clear(ctx, 1))

		snap, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})
}
