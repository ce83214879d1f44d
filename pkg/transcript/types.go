// Package transcript implements the Transcript Acquirer:
// a priority-ladder selection algorithm over a pluggable external
// provider, backed by a content-addressed in-memory cache.
package transcript

import "time"

// Priority is the total-order confidence ranking used when selecting a transcript.
type Priority string

const (
	PriorityManualEnglish    Priority = "MANUAL-ENGLISH"
	PriorityAutoEnglish      Priority = "AUTO-ENGLISH"
	PriorityManualTranslated Priority = "MANUAL-TRANSLATED"
	PriorityAutoTranslated   Priority = "AUTO-TRANSLATED"
)

// confidence returns the fixed confidence score for a priority level.
func (p Priority) confidence() float64 {
	switch p {
	case PriorityManualEnglish:
		return 1.0
	case PriorityAutoEnglish:
		return 0.8
	case PriorityManualTranslated:
		return 0.7
	case PriorityAutoTranslated:
		return 0.5
	default:
		return 0
	}
}

// Variant distinguishes manual (human-authored) from auto-generated
// captions — half of the Transcript Cache Entry's composite key.
type Variant string

const (
	VariantManual Variant = "manual"
	VariantAuto   Variant = "auto-generated"
)

// Descriptor describes one available transcript track without fetching
// its text.
type Descriptor struct {
	LanguageCode   string
	LanguageName   string
	Variant        Variant
	IsTranslatable bool
}

// Result is the ephemeral value returned by GetEnglish.
type Result struct {
	Text               string
	LanguageCode       string
	Priority           Priority
	Confidence         float64
	SourceLanguage     string // original track language: set when translated, and on the untranslated fallback
	Notes              []string
}

// CacheKey is the composite key of a Transcript Cache Entry: (video id, language code, variant).
type CacheKey struct {
	VideoID      string
	LanguageCode string
	Variant      Variant
}

// CacheEntry is the cached value for a CacheKey.
type CacheEntry struct {
	Text           string
	SourceLanguage string
	CachedAt       time.Time
}

// Preferences configures the selection algorithm.
type Preferences struct {
	PreferManual      bool
	RequireEnglish    bool
	EnableTranslation bool
	FallbackLanguages []string
}

// DefaultPreferences returns the spec-mandated defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		PreferManual:      true,
		RequireEnglish:    true,
		EnableTranslation: true,
		FallbackLanguages: []string{"en", "es", "fr", "de"},
	}
}

// CacheTTL is the prune horizon for cache entries.
const CacheTTL = 7 * 24 * time.Hour
