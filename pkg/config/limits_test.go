package config

import (
	"testing"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFieldLimits(t *testing.T) {
	f := DefaultFieldLimits()
	require.NoError(t, f.Validate())
	assert.Equal(t, 280, f.Get(TweetTextMax))
	assert.Equal(t, 4, f.Get(CarouselMinSlides))
	assert.Equal(t, 8, f.Get(CarouselMaxSlides))
	assert.Equal(t, 6, f.Get(MinIdeas))
	assert.Equal(t, 8, f.Get(MaxIdeas))
}

func TestWithOverrides_DoesNotMutateReceiver(t *testing.T) {
	base := DefaultFieldLimits()
	overridden, err := base.WithOverrides(map[LimitKey]int{ReelCaptionMax: 250})
	require.NoError(t, err)

	assert.Equal(t, 300, base.Get(ReelCaptionMax))
	assert.Equal(t, 250, overridden.Get(ReelCaptionMax))
}

func TestWithOverrides_RejectsTweetOverHardCap(t *testing.T) {
	base := DefaultFieldLimits()
	_, err := base.WithOverrides(map[LimitKey]int{TweetTextMax: 300})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidFieldLimit, apperr.KindOf(err))
}

func TestWithOverrides_RejectsMinAboveMax(t *testing.T) {
	base := DefaultFieldLimits()

	_, err := base.WithOverrides(map[LimitKey]int{CarouselMinSlides: 9})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidFieldLimit, apperr.KindOf(err))

	_, err = base.WithOverrides(map[LimitKey]int{MinIdeas: 9})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidFieldLimit, apperr.KindOf(err))
}

func TestWithOverrides_RejectsNegative(t *testing.T) {
	base := DefaultFieldLimits()
	_, err := base.WithOverrides(map[LimitKey]int{ReelTitleMax: -1})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidFieldLimit, apperr.KindOf(err))
}

func TestDecodeLimitOverrides_WeaklyTypedStringsConvertToInt(t *testing.T) {
	raw := map[string]interface{}{
		"reel-title-max":   "120",
		"tweet-text-max":   "200",
	}
	out, err := DecodeLimitOverrides(raw)
	require.NoError(t, err)
	assert.Equal(t, 120, out[ReelTitleMax])
	assert.Equal(t, 200, out[TweetTextMax])
}

func TestDecodeLimitOverrides_EmptyInputReturnsNil(t *testing.T) {
	out, err := DecodeLimitOverrides(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecodeLimitOverrides_UnconvertibleValueFails(t *testing.T) {
	_, err := DecodeLimitOverrides(map[string]interface{}{"reel-title-max": "not-a-number"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidFieldLimit, apperr.KindOf(err))
}

func TestSnapshot_IsDefensiveCopy(t *testing.T) {
	f := DefaultFieldLimits()
	snap := f.Snapshot()
	snap[ReelTitleMax] = 999
	assert.Equal(t, 100, f.Get(ReelTitleMax))
}
