package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromemStore_UpsertAndQueryRoundTrip(t *testing.T) {
	store := NewChromemStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "sources", "a", []float64{1, 0, 0}, map[string]string{"kind": "video"}))
	require.NoError(t, store.Upsert(ctx, "sources", "b", []float64{0, 1, 0}, map[string]string{"kind": "document"}))

	matches, err := store.Query(ctx, "sources", []float64{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestChromemStore_QueryOnEmptyCollectionReturnsNoMatches(t *testing.T) {
	store := NewChromemStore()
	ctx := context.Background()

	matches, err := store.Query(ctx, "sources", []float64{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemStore_DeleteRemovesEntry(t *testing.T) {
	store := NewChromemStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "sources", "a", []float64{1, 0}, nil))
	require.NoError(t, store.Delete(ctx, "sources", "a"))

	matches, err := store.Query(ctx, "sources", []float64{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
