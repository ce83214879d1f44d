// Package config holds the process-wide field-limits table, the content
// style preset registry, and environment-derived settings.
//
// Field-limits modeled as an immutable registry read at request time,
// with per-request overrides passed explicitly through the call chain —
// never read implicitly by components that already receive a limits
// argument.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
)

// LimitKey names one entry in the field-limits table.
type LimitKey string

const (
	ReelTitleMax            LimitKey = "reel-title-max"
	ReelCaptionMax          LimitKey = "reel-caption-max"
	ReelHookMax             LimitKey = "reel-hook-max"
	ReelScriptMax           LimitKey = "reel-script-max"
	CarouselTitleMax        LimitKey = "carousel-title-max"
	CarouselCaptionMax      LimitKey = "carousel-caption-max"
	CarouselSlideHeadingMax LimitKey = "carousel-slide-heading-max"
	CarouselSlideTextMax    LimitKey = "carousel-slide-text-max"
	CarouselMinSlides       LimitKey = "carousel-min-slides"
	CarouselMaxSlides       LimitKey = "carousel-max-slides"
	TweetTitleMax           LimitKey = "tweet-title-max"
	TweetTextMax            LimitKey = "tweet-text-max"
	TweetThreadItemMax      LimitKey = "tweet-thread-item-max"
	MinIdeas                LimitKey = "min-ideas"
	MaxIdeas                LimitKey = "max-ideas"
)

// TweetHardCap is the platform limit that no override may exceed.
const TweetHardCap = 280

// CarouselSlideSoftMin is the target floor for carousel slide text.
// Falling short of it is a warning, not a validation failure.
const CarouselSlideSoftMin = 400

// defaultLimits is the process-wide default table.
func defaultLimits() map[LimitKey]int {
	return map[LimitKey]int{
		ReelTitleMax:            100,
		ReelCaptionMax:          300,
		ReelHookMax:             200,
		ReelScriptMax:           2000,
		CarouselTitleMax:        100,
		CarouselCaptionMax:      300,
		CarouselSlideHeadingMax: 100,
		CarouselSlideTextMax:    800,
		CarouselMinSlides:       4,
		CarouselMaxSlides:       8,
		TweetTitleMax:           100,
		TweetTextMax:            280,
		TweetThreadItemMax:      280,
		MinIdeas:                6,
		MaxIdeas:                8,
	}
}

// FieldLimits is a flat, immutable-once-built map of per-content-type
// length and count caps. Build one with NewFieldLimits or
// DefaultFieldLimits().WithOverrides(...).
type FieldLimits struct {
	values map[LimitKey]int
}

// DefaultFieldLimits returns the process-wide default table.
func DefaultFieldLimits() *FieldLimits {
	return &FieldLimits{values: defaultLimits()}
}

// WithOverrides returns a new FieldLimits with overrides applied on top
// of the receiver's values. Unspecified keys inherit the receiver's
// values. The receiver is never mutated.
func (f *FieldLimits) WithOverrides(overrides map[LimitKey]int) (*FieldLimits, error) {
	merged := make(map[LimitKey]int, len(f.values))
	for k, v := range f.values {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	out := &FieldLimits{values: merged}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the value for key, or 0 if unset.
func (f *FieldLimits) Get(key LimitKey) int {
	return f.values[key]
}

// Validate enforces the invariants:
// min <= max for paired keys, and tweet-text-max <= 280.
func (f *FieldLimits) Validate() error {
	for k, v := range f.values {
		if v < 0 {
			return apperr.New(apperr.KindInvalidFieldLimit, fmt.Sprintf("%s: value must be non-negative", k))
		}
	}
	if tw := f.values[TweetTextMax]; tw > TweetHardCap {
		return apperr.New(apperr.KindInvalidFieldLimit, fmt.Sprintf("%s: %d exceeds hard platform cap of %d", TweetTextMax, tw, TweetHardCap))
	}
	if lo, hi := f.values[CarouselMinSlides], f.values[CarouselMaxSlides]; lo > hi {
		return apperr.New(apperr.KindInvalidFieldLimit, fmt.Sprintf("carousel-min-slides (%d) exceeds carousel-max-slides (%d)", lo, hi))
	}
	if lo, hi := f.values[MinIdeas], f.values[MaxIdeas]; lo > hi {
		return apperr.New(apperr.KindInvalidFieldLimit, fmt.Sprintf("min-ideas (%d) exceeds max-ideas (%d)", lo, hi))
	}
	return nil
}

// DecodeLimitOverrides decodes a loosely-typed override map — as
// produced by a multipart form, where every value arrives as a string —
// into map[LimitKey]int. Uses mapstructure's weakly-typed input so
// "120" converts to 120 instead of failing the way encoding/json would
// decoding a string into an int field.
func DecodeLimitOverrides(raw map[string]interface{}) (map[LimitKey]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[LimitKey]int
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, fmt.Errorf("config: building limit-overrides decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidFieldLimit, "decoding limit overrides", err)
	}
	return out, nil
}

// Snapshot returns a defensive copy of the underlying map, for
// serializing to API responses (e.g. GET /content-config/current).
func (f *FieldLimits) Snapshot() map[LimitKey]int {
	out := make(map[LimitKey]int, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}
