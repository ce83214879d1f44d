// Package prompt assembles the Ideation and Materialization prompt
// families from a Style and the active field-limits
// table, and lints the resulting prompt's style-to-content token
// balance.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
)

// Pair is a ready-to-send system/user prompt pair.
type Pair struct {
	System string
	User   string
}

// Ideation builds the prompt asking the LLM to extract between
// min-ideas and max-ideas content ideas from sourceText, presenting
// the style as a guide rather than a hard constraint.
func Ideation(sourceText string, style *config.Style, limits *config.FieldLimits) Pair {
	min := limits.Get(config.MinIdeas)
	max := limits.Get(config.MaxIdeas)

	system := fmt.Sprintf(
		"You are a content strategist who finds the most shareable ideas "+
			"hiding in long-form source material. Favor value extraction "+
			"over exhaustiveness. Respond with a JSON object only.\n\n"+
			"Style guide (a direction, not a constraint):\n"+
			"- Target audience: %s\n"+
			"- Content goal: %s\n"+
			"- Tone: %s\n"+
			"- Language: %s",
		style.TargetAudience, style.ContentGoal, style.Tone, style.Language,
	)

	user := fmt.Sprintf(
		"Source text:\n%s\n\n"+
			"Extract between %d and %d distinct content ideas. Each idea "+
			"must have: a \"type\" (one of \"reel\", \"image-carousel\", "+
			"\"tweet\"), a \"title\" (<=80 chars), a \"snippet\" drawn "+
			"verbatim or near-verbatim from the source, and optional "+
			"type-specific \"hints\". Respond as JSON: "+
			`{"ideas": [...]}`,
		sourceText, min, max,
	)

	return Pair{System: system, User: user}
}

// Materialization builds the per-type prompt that expands one idea
// into a fully-specified content artifact, embedding the active field
// caps directly into the schema description so the model sees exactly
// what will be validated against it.
func Materialization(idea content.Idea, sourceText string, style *config.Style, limits *config.FieldLimits) Pair {
	system := fmt.Sprintf(
		"You write finished %s content ready to publish. Match this "+
			"voice:\n"+
			"- Target audience: %s\n"+
			"- Call to action: %s\n"+
			"- Tone: %s\n"+
			"- Language: %s\n"+
			"%s\n"+
			"Respond with a JSON object only, matching the schema exactly.",
		idea.Type, style.TargetAudience, style.CallToAction, style.Tone, style.Language,
		additionalInstructionsLine(style),
	)

	user := fmt.Sprintf(
		"Source text:\n%s\n\n"+
			"Idea to materialize:\n- Title: %s\n- Snippet: %s\n\n"+
			"Schema:\n%s",
		sourceText, idea.Title, idea.Snippet, schemaFor(idea.Type, limits),
	)

	return Pair{System: system, User: user}
}

func additionalInstructionsLine(style *config.Style) string {
	if style.AdditionalInstructions == "" {
		return ""
	}
	return "- Additional instructions: " + style.AdditionalInstructions + "\n"
}

// schemaFor renders the JSON schema description for one content type,
// substituting the active field caps so the model self-polices against
// the same limits content.Validate will enforce.
func schemaFor(t content.Type, limits *config.FieldLimits) string {
	switch t {
	case content.TypeReel:
		return fmt.Sprintf(`{
  "title": "string, max %d chars",
  "caption": "string, max %d chars",
  "hook": "string, max %d chars",
  "script": "string, max %d chars",
  "visual_suggestions": "string, optional",
  "tags": ["string", "..."],
  "call_to_action": "string, optional",
  "estimated_duration_sec": "int, optional",
  "music_suggestion": "string, optional"
}`, limits.Get(config.ReelTitleMax), limits.Get(config.ReelCaptionMax),
			limits.Get(config.ReelHookMax), limits.Get(config.ReelScriptMax))

	case content.TypeImageCarousel:
		return fmt.Sprintf(`{
  "title": "string, max %d chars",
  "caption": "string, max %d chars",
  "slides": [
    {
      "slide_number": "int",
      "step_number": "int",
      "step_heading": "string, max %d chars",
      "text": "string, primary content field, aim %d-%d chars, 3-5 sentences"
    }
  ],
  "slides must contain between": "%d and %d items",
  "tags": ["string", "..."],
  "call_to_action": "string, optional",
  "design_notes": "string, optional"
}`, limits.Get(config.CarouselTitleMax), limits.Get(config.CarouselCaptionMax),
			limits.Get(config.CarouselSlideHeadingMax), config.CarouselSlideSoftMin,
			limits.Get(config.CarouselSlideTextMax),
			limits.Get(config.CarouselMinSlides), limits.Get(config.CarouselMaxSlides))

	case content.TypeTweet:
		return fmt.Sprintf(`{
  "title": "string, max %d chars",
  "text": "string, max %d chars",
  "thread": ["string, max %d chars each", "... optional"],
  "tags": ["string", "..."],
  "call_to_action": "string, optional"
}`, limits.Get(config.TweetTitleMax), limits.Get(config.TweetTextMax), limits.Get(config.TweetThreadItemMax))

	default:
		return "{}"
	}
}

// Balance reports the ratio of style/voice tokens to content-focus
// tokens in a materialization prompt. ok is false when
// the ratio exceeds 1.5x — style instructions crowding out the actual
// content-generation task.
func Balance(p Pair, model string) (ratio float64, ok bool) {
	tc := newTokenCounter(model)

	styleTokens := tc.count(p.System)
	contentTokens := tc.count(contentFocusPortion(p.User))
	if contentTokens == 0 {
		return 0, false
	}

	ratio = float64(styleTokens) / float64(contentTokens)
	return ratio, ratio <= 1.5
}

// contentFocusPortion isolates the "Source text" + "Idea to
// materialize" section of a materialization user prompt from its
// trailing schema block, which is pure boilerplate rather than
// content-focus tokens.
func contentFocusPortion(user string) string {
	if idx := strings.Index(user, "\n\nSchema:\n"); idx != -1 {
		return user[:idx]
	}
	return user
}
