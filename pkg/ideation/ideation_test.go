package ideation

import (
	"context"
	"testing"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatter struct {
	responses []map[string]interface{}
	calls     int
	err       error
}

func (s *stubChatter) ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls
	if idx > len(s.responses)-1 {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

func sixIdeas() []interface{} {
	ideas := make([]interface{}, 0, 6)
	for i := 0; i < 6; i++ {
		ideas = append(ideas, map[string]interface{}{
			"type":    "reel",
			"title":   "Idea title",
			"snippet": "a snippet from the source",
		})
	}
	return ideas
}

func TestGenerate_ValidFirstResponseNeedsNoRepair(t *testing.T) {
	chatter := &stubChatter{responses: []map[string]interface{}{
		{"ideas": sixIdeas()},
	}}
	engine := New(chatter)

	ideas, err := engine.Generate(context.Background(), "source text", testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Len(t, ideas, 6)
	assert.Equal(t, 1, chatter.calls, "should not have issued a repair call")
}

func TestGenerate_RepairsOnTooFewIdeas(t *testing.T) {
	chatter := &stubChatter{responses: []map[string]interface{}{
		{"ideas": []interface{}{
			map[string]interface{}{"type": "reel", "title": "t", "snippet": "s"},
		}},
		{"ideas": sixIdeas()},
	}}
	engine := New(chatter)

	ideas, err := engine.Generate(context.Background(), "source text", testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Len(t, ideas, 6)
}

func TestGenerate_DropsInvalidTypeRatherThanSynthesizing(t *testing.T) {
	mixed := sixIdeas()
	mixed[0] = map[string]interface{}{"type": "not-a-real-type", "title": "t", "snippet": "s"}
	chatter := &stubChatter{responses: []map[string]interface{}{
		{"ideas": mixed},
		{"ideas": mixed}, // repair returns the same broken entry
	}}
	engine := New(chatter)

	ideas, err := engine.Generate(context.Background(), "source text", testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Len(t, ideas, 5, "the unrecognized-type idea must be dropped, never synthesized")
}

func TestGenerate_EmptyAfterRepairFailsWithIdeationFailed(t *testing.T) {
	chatter := &stubChatter{responses: []map[string]interface{}{
		{"ideas": []interface{}{}},
		{"ideas": []interface{}{}},
	}}
	engine := New(chatter)

	_, err := engine.Generate(context.Background(), "source text", testStyle(), config.DefaultFieldLimits())

	require.Error(t, err)
	assert.Equal(t, apperr.KindIdeationFailed, apperr.KindOf(err))
}

func TestGenerate_TruncatesExcessIdeasToMax(t *testing.T) {
	ten := make([]interface{}, 0, 10)
	for i := 0; i < 10; i++ {
		ten = append(ten, map[string]interface{}{"type": "tweet", "title": "t", "snippet": "s"})
	}
	chatter := &stubChatter{responses: []map[string]interface{}{
		{"ideas": ten},
	}}
	engine := New(chatter)

	ideas, err := engine.Generate(context.Background(), "source text", testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Len(t, ideas, 8, "max-ideas default is 8")
}

func TestGenerate_LLMCallErrorIsIdeationFailed(t *testing.T) {
	chatter := &stubChatter{err: assertErr{"transport down"}}
	engine := New(chatter)

	_, err := engine.Generate(context.Background(), "source text", testStyle(), config.DefaultFieldLimits())

	require.Error(t, err)
	assert.Equal(t, apperr.KindIdeationFailed, apperr.KindOf(err))
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func testStyle() *config.Style {
	s := &config.Style{
		TargetAudience: "founders",
		CallToAction:   "subscribe",
		ContentGoal:    "grow audience",
	}
	s.SetDefaults()
	return s
}
