package prompt

import (
	"testing"

	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStyle() *config.Style {
	s := &config.Style{
		TargetAudience: "small business owners",
		CallToAction:   "visit the link in bio",
		ContentGoal:    "drive signups",
	}
	s.SetDefaults()
	return s
}

func TestIdeation_EmbedsMinMaxIdeasFromLimits(t *testing.T) {
	limits := config.DefaultFieldLimits()
	p := Ideation("a long source text about productivity", testStyle(), limits)

	assert.Contains(t, p.User, "between 6 and 8")
	assert.Contains(t, p.System, "small business owners")
}

func TestMaterialization_ReelSchemaEmbedsActiveCaps(t *testing.T) {
	limits, err := config.DefaultFieldLimits().WithOverrides(map[config.LimitKey]int{config.ReelTitleMax: 60})
	require.NoError(t, err)

	idea := content.Idea{Type: content.TypeReel, Title: "Quick Tip", Snippet: "do this one thing"}
	p := Materialization(idea, "source text", testStyle(), limits)

	assert.Contains(t, p.User, "max 60 chars")
	assert.Contains(t, p.System, "reel")
}

func TestMaterialization_CarouselSchemaEmbedsSlideBounds(t *testing.T) {
	limits := config.DefaultFieldLimits()
	idea := content.Idea{Type: content.TypeImageCarousel, Title: "Steps", Snippet: "step by step guide"}

	p := Materialization(idea, "source text", testStyle(), limits)

	assert.Contains(t, p.User, "4 and 8 items")
}

func TestMaterialization_IncludesAdditionalInstructionsWhenSet(t *testing.T) {
	style := testStyle()
	style.AdditionalInstructions = "always mention the 30-day guarantee"
	idea := content.Idea{Type: content.TypeTweet, Title: "Tip", Snippet: "snippet"}

	p := Materialization(idea, "source", style, config.DefaultFieldLimits())

	assert.Contains(t, p.System, "30-day guarantee")
}

func TestBalance_WithinRatioIsOK(t *testing.T) {
	p := Pair{
		System: "Be concise.",
		User:   "Source text:\nA very long passage of source material that carries most of the tokens in this prompt by design so the ratio stays low.\n\nIdea to materialize:\n- Title: X\n- Snippet: Y\n\nSchema:\n{}",
	}

	ratio, ok := Balance(p, "gpt-4o")

	assert.True(t, ok)
	assert.Less(t, ratio, 1.5)
}

func TestBalance_ExcessiveStyleTokensFailsLint(t *testing.T) {
	longStyle := ""
	for i := 0; i < 200; i++ {
		longStyle += "maintain an extremely specific voice with many qualifiers. "
	}
	p := Pair{
		System: longStyle,
		User:   "Source text:\nshort\n\nIdea to materialize:\n- Title: X\n- Snippet: Y\n\nSchema:\n{}",
	}

	ratio, ok := Balance(p, "gpt-4o")

	assert.False(t, ok)
	assert.Greater(t, ratio, 1.5)
}
