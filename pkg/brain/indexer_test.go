package brain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/vector"
)

type stubChatter struct {
	resp map[string]interface{}
	err  error
}

func (s *stubChatter) ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error) {
	return s.resp, s.err
}

type memSources struct {
	byID map[string]*content.Source
}

func newMemSources() *memSources { return &memSources{byID: map[string]*content.Source{}} }

func (m *memSources) PutSource(ctx context.Context, s *content.Source) error {
	m.byID[s.ID] = s
	return nil
}

func (m *memSources) GetSource(ctx context.Context, id string) (*content.Source, bool, error) {
	s, ok := m.byID[id]
	return s, ok, nil
}

func longEnoughText() string {
	return "This is a source about starting an online store, covering product sourcing, " +
		"pricing strategy, and the first ninety days of customer acquisition for a new shop."
}

func TestIndexer_ExtractsAndPersists(t *testing.T) {
	chatter := &stubChatter{resp: map[string]interface{}{
		"topics":  []interface{}{"ecommerce", "dropshipping", "pricing", "marketing", "logistics"},
		"summary": "A guide to launching and growing an online store from zero.",
	}}
	store := vector.NewMemoryStore()
	surrogate := vector.NewTFIDFSurrogate(64)
	sources := newMemSources()
	indexer := NewIndexer(chatter, surrogate, store, sources)

	src := &content.Source{ID: "s1", Kind: content.SourceDocument, Title: "Store Guide", Text: longEnoughText()}

	out, err := indexer.Index(context.Background(), src)

	require.NoError(t, err)
	assert.Len(t, out.Topics, 5)
	assert.NotEmpty(t, out.Summary)
	assert.NotEmpty(t, out.Surrogate)
	assert.Same(t, out, sources.byID["s1"])
}

func TestIndexer_RejectsTooShortText(t *testing.T) {
	indexer := NewIndexer(&stubChatter{}, vector.NewTFIDFSurrogate(0), vector.NewMemoryStore(), newMemSources())

	_, err := indexer.Index(context.Background(), &content.Source{ID: "s1", Text: "too short"})

	assert.Error(t, err)
}

func TestIndexer_FallsBackOnLLMFailure(t *testing.T) {
	chatter := &stubChatter{err: assert.AnError}
	indexer := NewIndexer(chatter, vector.NewTFIDFSurrogate(0), vector.NewMemoryStore(), newMemSources())

	out, err := indexer.Index(context.Background(), &content.Source{ID: "s1", Kind: content.SourceRaw, Text: longEnoughText()})

	require.NoError(t, err)
	assert.NotEmpty(t, out.Topics)
	assert.NotEmpty(t, out.Summary)
}

func TestIndexer_IsIdempotentOnReindex(t *testing.T) {
	chatter := &stubChatter{resp: map[string]interface{}{
		"topics":  []interface{}{"a", "b", "c", "d", "e"},
		"summary": "first pass summary text that is long enough to pass the floor check here.",
	}}
	store := vector.NewMemoryStore()
	sources := newMemSources()
	indexer := NewIndexer(chatter, vector.NewTFIDFSurrogate(0), store, sources)
	src := &content.Source{ID: "s1", Kind: content.SourceVideo, Text: longEnoughText()}

	_, err := indexer.Index(context.Background(), src)
	require.NoError(t, err)
	_, err = indexer.Index(context.Background(), src)
	require.NoError(t, err)

	assert.Len(t, sources.byID, 1)
	assert.GreaterOrEqual(t, len(sources.byID["s1"].Topics), 5)
}
