package brain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/vector"
)

func indexFixture(t *testing.T, store vector.Store, surrogate vector.Surrogate, sources *memSources, id, kind, text string) {
	t.Helper()
	vec, err := surrogate.Vectorize(context.Background(), text)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), sourceCollection, kind+":"+id, vec, map[string]string{
		"source_id": id, "kind": kind,
	}))
	sources.byID[id] = &content.Source{ID: id, Kind: content.SourceKind(kind), Summary: text}
}

func TestRetriever_RanksByQuerySimilarity(t *testing.T) {
	store := vector.NewMemoryStore()
	surrogate := vector.NewTFIDFSurrogate(128)
	sources := newMemSources()

	indexFixture(t, store, surrogate, sources, "ecom", "document", "ecommerce online store product pricing dropshipping")
	indexFixture(t, store, surrogate, sources, "fit", "document", "fitness workout routine strength training nutrition")

	r := NewRetriever(surrogate, store, sources)
	results, err := r.Search(context.Background(), "how to start an online store selling products", Filter{})

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ecom", results[0].SourceID)
}

func TestRetriever_FiltersByKindAndMinScore(t *testing.T) {
	store := vector.NewMemoryStore()
	surrogate := vector.NewTFIDFSurrogate(128)
	sources := newMemSources()

	indexFixture(t, store, surrogate, sources, "v1", "video", "ecommerce store pricing strategy")
	indexFixture(t, store, surrogate, sources, "d1", "document", "ecommerce store pricing strategy")

	r := NewRetriever(surrogate, store, sources)
	results, err := r.Search(context.Background(), "ecommerce pricing strategy", Filter{SourceKind: content.SourceVideo})

	require.NoError(t, err)
	for _, res := range results {
		assert.Equal(t, "v1", res.SourceID)
	}
}

func TestRetriever_SnippetIsTruncatedSummaryOrText(t *testing.T) {
	store := vector.NewMemoryStore()
	surrogate := vector.NewTFIDFSurrogate(64)
	sources := newMemSources()
	indexFixture(t, store, surrogate, sources, "s1", "document", "short summary text")

	r := NewRetriever(surrogate, store, sources)
	results, err := r.Search(context.Background(), "short summary text", Filter{})

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results[0].Snippet), SnippetLen)
}
