package brain

import (
	"context"

	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/vector"
)

// SourceFetcher is the subset of the Repository Layer the Retriever
// needs to turn a vector match's id back into a full Source for
// snippet extraction.
type SourceFetcher interface {
	GetSource(ctx context.Context, id string) (*content.Source, bool, error)
}

// Retriever implements the search operation: rank indexed
// Sources by query similarity in the same surrogate space they were
// indexed with, filtered by kind and minimum score.
type Retriever struct {
	surrogate vector.Surrogate
	store     vector.Store
	sources   SourceFetcher
}

// NewRetriever wires a Retriever over its collaborators.
func NewRetriever(surrogate vector.Surrogate, store vector.Store, sources SourceFetcher) *Retriever {
	return &Retriever{surrogate: surrogate, store: store, sources: sources}
}

// SnippetLen is the prefix length taken from a source's text or
// summary for a search result's snippet.
const SnippetLen = 240

// DefaultLimit is the top-K result count when the caller doesn't
// specify one.
const DefaultLimit = 10

// Filter narrows a search.
type Filter struct {
	SourceKind content.SourceKind `json:"source_kind,omitempty"` // empty = no filter
	MinScore   float64            `json:"min_score,omitempty"`
	Limit      int                `json:"limit,omitempty"`
}

// Result is one ranked hit.
type Result struct {
	SourceID string  `json:"source_id"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

// Search ranks candidate Sources by cosine similarity to query's
// surrogate, then filters by kind and score floor. Determinism and
// tie-breaking (most-recently-indexed wins) are inherited from the
// underlying vector.Store implementation.
func (r *Retriever) Search(ctx context.Context, query string, f Filter) ([]Result, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	qvec, err := r.surrogate.Vectorize(ctx, query)
	if err != nil {
		return nil, err
	}

	storeFilter := map[string]string{}
	if f.SourceKind != "" {
		storeFilter["kind"] = string(f.SourceKind)
	}

	// Over-fetch before the score filter, since the store itself has no
	// min-score concept — it only ranks and truncates to topK.
	matches, err := r.store.Query(ctx, sourceCollection, qvec, limit*4+limit, storeFilter)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, limit)
	for _, m := range matches {
		if m.Score < f.MinScore {
			continue
		}
		sourceID := m.Metadata["source_id"]
		if sourceID == "" {
			sourceID = m.ID
		}
		snippet, err := r.snippetFor(ctx, sourceID)
		if err != nil {
			continue
		}
		results = append(results, Result{SourceID: sourceID, Score: m.Score, Snippet: snippet})
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

func (r *Retriever) snippetFor(ctx context.Context, sourceID string) (string, error) {
	src, ok, err := r.sources.GetSource(ctx, sourceID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	text := src.Summary
	if text == "" {
		text = src.Text
	}
	if len(text) > SnippetLen {
		text = text[:SnippetLen]
	}
	return text, nil
}
