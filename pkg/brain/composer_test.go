package brain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/vector"
)

type stubIdeator struct {
	ideas []content.Idea
	err   error
}

func (s *stubIdeator) Generate(ctx context.Context, sourceText string, style *config.Style, limits *config.FieldLimits) ([]content.Idea, error) {
	return s.ideas, s.err
}

type stubMaterializer struct {
	err error
}

func (s *stubMaterializer) Generate(ctx context.Context, ideas []content.Idea, sourceID, sourceText string, style *config.Style, limits *config.FieldLimits) ([]*content.Artifact, []string, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	out := make([]*content.Artifact, 0, len(ideas))
	for i, idea := range ideas {
		a := &content.Artifact{Kind: idea.Type, Tweet: &content.Tweet{Text: "generated"}}
		a.SetContentID(content.NewContentID(sourceID, idea.Type, i+1))
		out = append(out, a)
	}
	return out, nil, nil
}

type memSessions struct {
	saved []*Session
}

func (m *memSessions) PutSession(ctx context.Context, s *Session) error {
	m.saved = append(m.saved, s)
	return nil
}

func testStyle() *config.Style {
	s := &config.Style{TargetAudience: "shoppers", CallToAction: "buy now", ContentGoal: "sales"}
	s.SetDefaults()
	return s
}

func threeTweetIdeas() []content.Idea {
	return []content.Idea{
		{Type: content.TypeTweet, Title: "a", Snippet: "a"},
		{Type: content.TypeTweet, Title: "b", Snippet: "b"},
		{Type: content.TypeTweet, Title: "c", Snippet: "c"},
	}
}

func newTestComposer(t *testing.T, sources *memSources, ideas []content.Idea) (*Composer, *memSessions) {
	t.Helper()
	store := vector.NewMemoryStore()
	surrogate := vector.NewTFIDFSurrogate(64)
	retriever := NewRetriever(surrogate, store, sources)
	sessions := &memSessions{}
	for id, src := range sources.byID {
		vec, _ := surrogate.Vectorize(context.Background(), src.Text+" "+src.Summary)
		_ = store.Upsert(context.Background(), sourceCollection, string(src.Kind)+":"+id, vec, map[string]string{"source_id": id, "kind": string(src.Kind)})
	}
	composer := NewComposer(retriever, sources, &stubIdeator{ideas: ideas}, &stubMaterializer{}, sessions)
	return composer, sessions
}

func TestComposer_VisionMode(t *testing.T) {
	sources := newMemSources()
	sources.byID["ecom"] = &content.Source{ID: "ecom", Kind: content.SourceDocument, Title: "Store Guide", Text: "how to start an online store selling products", Summary: "ecommerce guide"}
	composer, sessions := newTestComposer(t, sources, threeTweetIdeas())

	outcome, err := composer.Vision(context.Background(), "how to start an online store", Filter{}, testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Contains(t, outcome.Session.MatchedSourceIDs, "ecom")
	assert.Len(t, outcome.Artifacts, 3)
	assert.Equal(t, ModeVision, outcome.Session.Mode)
	assert.Len(t, sessions.saved, 1)
}

func TestComposer_FullAISingleForcesExactlyOneIdea(t *testing.T) {
	sources := newMemSources()
	sources.byID["s1"] = &content.Source{ID: "s1", Kind: content.SourceDocument, Text: "source text", Summary: "s"}
	composer, _ := newTestComposer(t, sources, threeTweetIdeas()[:1])

	outcome, err := composer.FullAI(context.Background(), []string{"s1"}, VariantSingle, 0, testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Len(t, outcome.Artifacts, 1)
	assert.Equal(t, ModeAutoSingle, outcome.Session.Mode)
}

func TestComposer_FullAIMultipleCapsAtRequestedCount(t *testing.T) {
	sources := newMemSources()
	sources.byID["s1"] = &content.Source{ID: "s1", Kind: content.SourceDocument, Text: "source text", Summary: "s"}
	composer, _ := newTestComposer(t, sources, threeTweetIdeas())

	outcome, err := composer.FullAI(context.Background(), []string{"s1"}, VariantMultiple, 2, testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.LessOrEqual(t, len(outcome.Artifacts), 2)
}

func TestComposer_HybridSupportStrategyKeepsAIAddedAsSupporting(t *testing.T) {
	sources := newMemSources()
	sources.byID["user1"] = &content.Source{ID: "user1", Kind: content.SourceDocument, Text: "user selected source text", Summary: "s"}
	sources.byID["ai1"] = &content.Source{ID: "ai1", Kind: content.SourceDocument, Text: "ecommerce pricing strategy source", Summary: "ecommerce"}
	composer, _ := newTestComposer(t, sources, threeTweetIdeas())

	outcome, err := composer.Hybrid(context.Background(), []string{"user1"}, AIAugment{Strategy: StrategySupport, Hint: "ecommerce pricing"}, Filter{}, testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Equal(t, []string{"user1"}, outcome.Session.PrimarySourceIDs)
	assert.NotContains(t, outcome.Session.PrimarySourceIDs, "ai1")
}

func TestComposer_HybridAugmentStrategyPromotesAIAddedToPrimary(t *testing.T) {
	sources := newMemSources()
	sources.byID["user1"] = &content.Source{ID: "user1", Kind: content.SourceDocument, Text: "user selected source text", Summary: "s"}
	sources.byID["ai1"] = &content.Source{ID: "ai1", Kind: content.SourceDocument, Text: "ecommerce pricing strategy source", Summary: "ecommerce"}
	composer, _ := newTestComposer(t, sources, threeTweetIdeas())

	outcome, err := composer.Hybrid(context.Background(), []string{"user1"}, AIAugment{Strategy: StrategyAugment, Hint: "ecommerce pricing"}, Filter{}, testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Contains(t, outcome.Session.PrimarySourceIDs, "user1")
}

func TestComposer_RequiresAtLeastOneUserSourceForHybrid(t *testing.T) {
	sources := newMemSources()
	composer, _ := newTestComposer(t, sources, nil)

	_, err := composer.Hybrid(context.Background(), nil, AIAugment{Strategy: StrategyFill}, Filter{}, testStyle(), config.DefaultFieldLimits())

	assert.Error(t, err)
}
