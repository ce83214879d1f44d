package content

import (
	"strings"
	"testing"

	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContentID_Format(t *testing.T) {
	assert.Equal(t, "jNQXAC9IVRw_reel_001", NewContentID("jNQXAC9IVRw", TypeReel, 1))
	assert.Equal(t, "jNQXAC9IVRw_tweet_012", NewContentID("jNQXAC9IVRw", TypeTweet, 12))
}

func TestValidate_ReelWithinLimits(t *testing.T) {
	limits := config.DefaultFieldLimits()
	a := &Artifact{Kind: TypeReel, Reel: &Reel{Title: "ok", Caption: "ok", Hook: "ok", Script: "ok"}}
	assert.Empty(t, Validate(a, limits))
}

func TestValidate_ReelOverLimitReportsField(t *testing.T) {
	limits := config.DefaultFieldLimits()
	a := &Artifact{Kind: TypeReel, Reel: &Reel{
		Title:  strings.Repeat("x", limits.Get(config.ReelTitleMax)+1),
		Script: "ok",
	}}
	v := Validate(a, limits)
	require.NotEmpty(t, v)
	assert.Equal(t, "title", v[0].Field)
}

func TestValidate_CarouselSlideCountBounds(t *testing.T) {
	limits := config.DefaultFieldLimits()
	a := &Artifact{Kind: TypeImageCarousel, Carousel: &ImageCarousel{
		Title: "t", Caption: "c",
		Slides: []Slide{{SlideNumber: 1, StepHeading: "h", Text: strings.Repeat("a", 500)}},
	}}
	v := Validate(a, limits)
	require.NotEmpty(t, v)
	assert.Equal(t, "slides", v[0].Field)
}

func TestValidate_TweetHardCapAppliesAtMaximumOverride(t *testing.T) {
	base := config.DefaultFieldLimits()
	overridden, err := base.WithOverrides(map[config.LimitKey]int{config.TweetTextMax: 280})
	require.NoError(t, err)

	a := &Artifact{Kind: TypeTweet, Tweet: &Tweet{Text: strings.Repeat("a", 281)}}
	v := Validate(a, overridden)
	require.NotEmpty(t, v)
	assert.Equal(t, "text", v[0].Field)
}

func TestSoftWarnings_ShortSlideTextWarnsNotFails(t *testing.T) {
	a := &Artifact{Kind: TypeImageCarousel, Carousel: &ImageCarousel{
		Slides: []Slide{{SlideNumber: 1, Text: "too short"}},
	}}
	warnings := SoftWarnings(a)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "slide 1")

	limits := config.DefaultFieldLimits()
	a.Carousel.Title, a.Carousel.Caption = "t", "c"
	// The hard validator must not fail on short (but non-empty) text.
	v := Validate(a, limits)
	for _, violation := range v {
		assert.NotContains(t, violation.Field, "slide 1 text")
	}
}
