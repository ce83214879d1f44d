// Package brain implements the Brain knowledge base:
// an Indexer that extracts topics/summary/retrieval-surrogate from a
// Source, a Retriever that ranks indexed Sources by query similarity,
// and a Composer that combines retrieved Sources into generation
// requests under vision / full-AI / hybrid modes.
package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/vector"
)

// chatter is the subset of *llm.Client the Indexer depends on.
type chatter interface {
	ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error)
}

// minTopics/maxTopics bound the topic list generated for a Source.
const (
	minTopics = 5
	maxTopics = 15

	minSummaryLen = 200
	maxSummaryLen = 500

	sourceCollection = "sources"
)

// Indexer extracts topics, a summary, and a retrieval-key vector from a
// Source in one combined LLM completion, then persists the enriched
// Source via Sources and upserts its vector into the Store.
type Indexer struct {
	client    chatter
	surrogate vector.Surrogate
	store     vector.Store
	sources   Sources
	log       *slog.Logger
}

// Sources is the subset of the Repository Layer the Indexer needs: a
// place to persist the enriched Source record.
type Sources interface {
	PutSource(ctx context.Context, s *content.Source) error
}

// NewIndexer wires an Indexer over its collaborators.
func NewIndexer(client chatter, surrogate vector.Surrogate, store vector.Store, sources Sources) *Indexer {
	return &Indexer{client: client, surrogate: surrogate, store: store, sources: sources, log: slog.Default()}
}

// Index normalizes src (already given canonical text by the Acquirer or
// Parser) into an indexed Brain entry: it calls the LLM once for
// topics+summary, computes the retrieval surrogate, and persists the
// result. Re-indexing the same (kind, id) is idempotent — it simply
// overwrites the prior topics/summary/vector with freshly extracted
// ones.
func (idx *Indexer) Index(ctx context.Context, src *content.Source) (*content.Source, error) {
	if len(src.Text) < content.MinSourceTextLen {
		return nil, apperr.New(apperr.KindTextTooShort, fmt.Sprintf("source text is %d chars, minimum is %d", len(src.Text), content.MinSourceTextLen))
	}

	topics, summary, err := idx.extract(ctx, src.Text)
	if err != nil {
		idx.log.Warn("brain: topic/summary extraction failed, indexing with text-derived fallback", "source_id", src.ID, "error", err)
		topics, summary = fallbackTopicsAndSummary(src)
	}

	vec, err := idx.surrogate.Vectorize(ctx, src.Text)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "computing retrieval surrogate", err)
	}

	src.Topics = topics
	src.Summary = summary
	src.Surrogate = vec

	if err := idx.store.Upsert(ctx, sourceCollection, sourceKey(src), vec, map[string]string{
		"source_id": src.ID,
		"kind":      string(src.Kind),
	}); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "upserting retrieval vector", err)
	}

	if err := idx.sources.PutSource(ctx, src); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "persisting indexed source", err)
	}

	return src, nil
}

// sourceKey is the vector store's per-entry id — the Store is keyed
// across kinds in one collection, so the key must be kind-qualified to
// stay unique.
func sourceKey(s *content.Source) string {
	return string(s.Kind) + ":" + s.ID
}

func (idx *Indexer) extract(ctx context.Context, text string) ([]string, string, error) {
	system := fmt.Sprintf(
		"You analyze source material for a content knowledge base. "+
			"Extract between %d and %d concise topic tags and a %d-%d "+
			"character summary. Respond with a JSON object only: "+
			`{"topics": ["..."], "summary": "..."}`,
		minTopics, maxTopics, minSummaryLen, maxSummaryLen,
	)
	user := "Source text:\n" + text

	raw, err := idx.client.ChatJSON(ctx, system, user)
	if err != nil {
		return nil, "", err
	}

	topics, err := parseTopics(raw)
	if err != nil {
		return nil, "", err
	}
	summary, _ := raw["summary"].(string)
	if summary == "" {
		return nil, "", fmt.Errorf("missing summary")
	}

	return topics, summary, nil
}

func parseTopics(raw map[string]interface{}) ([]string, error) {
	rawTopics, ok := raw["topics"].([]interface{})
	if !ok {
		return nil, fmt.Errorf(`missing "topics" array`)
	}
	topics := make([]string, 0, len(rawTopics))
	for _, t := range rawTopics {
		if s, ok := t.(string); ok && s != "" {
			topics = append(topics, s)
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no valid topics extracted")
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics, nil
}

// fallbackTopicsAndSummary degrades gracefully when the LLM call fails
// — the Brain's index must never be the thing that makes a generation
// task fail outright, so a source still becomes searchable even
// without model-extracted metadata.
func fallbackTopicsAndSummary(src *content.Source) ([]string, string) {
	summary := src.Text
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen]
	}
	topics := src.Tags
	if len(topics) == 0 {
		topics = []string{string(src.Kind)}
	}
	return topics, summary
}

// MarshalSnapshot is a convenience for callers (e.g. the repository
// layer's JSON columns) that want a Source's enriched fields as JSON
// without re-deriving the shape of content.Source.
func MarshalSnapshot(s *content.Source) ([]byte, error) {
	return json.Marshal(s)
}
