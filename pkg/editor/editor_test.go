package editor

import (
	"context"
	"testing"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatter struct {
	response map[string]interface{}
	err      error
}

func (s *stubChatter) ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error) {
	return s.response, s.err
}

func testStyle() *config.Style {
	s := &config.Style{TargetAudience: "founders", CallToAction: "subscribe", ContentGoal: "grow"}
	s.SetDefaults()
	return s
}

func TestEdit_AppliesChangeAndReturnsDiff(t *testing.T) {
	current := &content.Artifact{
		Kind: content.TypeTweet,
		Tweet: &content.Tweet{
			ContentID: "src1_tweet_001",
			Title:     "Old title",
			Text:      "Old text",
		},
	}
	chatter := &stubChatter{response: map[string]interface{}{
		"title": "Old title",
		"text":  "New, punchier text",
	}}
	e := New(chatter)

	result, err := e.Edit(context.Background(), current, "make the text punchier", testStyle(), config.DefaultFieldLimits())

	require.NoError(t, err)
	assert.Equal(t, "New, punchier text", result.After.Tweet.Text)
	assert.Equal(t, "src1_tweet_001", result.After.ContentID(), "content-id must be preserved across edits")
	assert.Contains(t, result.Changes, "text changed")
	assert.NotContains(t, result.Changes, "title changed")
}

func TestEdit_ValidationFailurePreservesOriginal(t *testing.T) {
	current := &content.Artifact{
		Kind: content.TypeTweet,
		Tweet: &content.Tweet{ContentID: "src1_tweet_001", Title: "T", Text: "short"},
	}
	overLong := make([]byte, 0, 300)
	for i := 0; i < 300; i++ {
		overLong = append(overLong, 'x')
	}
	chatter := &stubChatter{response: map[string]interface{}{
		"title": "T",
		"text":  string(overLong),
	}}
	e := New(chatter)

	_, err := e.Edit(context.Background(), current, "make it much longer", testStyle(), config.DefaultFieldLimits())

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
	assert.Equal(t, "short", current.Tweet.Text, "original artifact must be untouched on validation failure")
}

func TestDiff_CarouselReportsPerSlideChanges(t *testing.T) {
	before := &content.Artifact{Kind: content.TypeImageCarousel, Carousel: &content.ImageCarousel{
		Slides: []content.Slide{
			{SlideNumber: 1, StepHeading: "Step One", Text: "original text for slide one that is long enough"},
			{SlideNumber: 2, StepHeading: "Step Two", Text: "original text for slide two that is long enough"},
		},
	}}
	after := &content.Artifact{Kind: content.TypeImageCarousel, Carousel: &content.ImageCarousel{
		Slides: []content.Slide{
			{SlideNumber: 1, StepHeading: "Step One", Text: "updated text for slide one that is long enough"},
			{SlideNumber: 2, StepHeading: "Step Two", Text: "original text for slide two that is long enough"},
		},
	}}

	changes := Diff(before, after)

	assert.Contains(t, changes, "slide 1 text changed")
	assert.NotContains(t, changes, "slide 2 text changed")
}

func TestEdit_LLMErrorIsValidationFailed(t *testing.T) {
	current := &content.Artifact{Kind: content.TypeTweet, Tweet: &content.Tweet{Text: "t"}}
	chatter := &stubChatter{err: apperr.New(apperr.KindLLMTimeout, "timed out")}
	e := New(chatter)

	_, err := e.Edit(context.Background(), current, "fix it", testStyle(), config.DefaultFieldLimits())

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
}
