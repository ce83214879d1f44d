package transcript

import (
	"context"
	"strings"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
)

// Acquirer runs the transcript selection algorithm: a
// strict priority ladder over a cache-then-provider lookup, always
// landing on an English-language result or failing with
// NO-TRANSCRIPT-FOUND.
type Acquirer struct {
	provider Provider
	cache    *Cache
}

// NewAcquirer wires a Provider (the external collaborator) to a fresh
// Cache. Callers share one Acquirer — and therefore one Cache — across
// every video processed in a run.
func NewAcquirer(provider Provider, cache *Cache) *Acquirer {
	if cache == nil {
		cache = NewCache(0)
	}
	return &Acquirer{provider: provider, cache: cache}
}

// GetEnglish resolves the highest-confidence English transcript
// available for videoID, in priority order:
//
//  1. cached manual-English
//  2. cached auto-English
//  3. fetch manual-English from the provider
//  4. fetch auto-English from the provider
//  5. fetch+translate a manual transcript in a translatable language
//  6. fetch+translate an auto-generated transcript in a translatable
//     language
//  7. NO-TRANSCRIPT-FOUND
//
// prefs.PreferManual swaps the manual/auto ordering within each English
// and translated tier (it never reorders English ahead of translated,
// or manual-translated ahead of auto-English — the priority ladder
// itself is fixed). prefs.RequireEnglish governs only step 5/6's
// failure mode: when a translate call itself fails, require-english
// true fails the whole lookup with TRANSLATION-FAILED, while
// require-english false downgrades to the untranslated original-language
// transcript instead of failing.
//
// ListAvailable enumerates caption tracks for videoID without fetching
// any of them, the companion read-only operation named alongside
// GetEnglish.
func (a *Acquirer) ListAvailable(ctx context.Context, videoID string) ([]Descriptor, error) {
	return a.provider.ListAvailable(ctx, videoID)
}

// englishTier pairs the variant and priority tried together, in the
// order PreferManual dictates.
type englishTier struct {
	variant  Variant
	priority Priority
}

func englishTiers(preferManual bool) []englishTier {
	if preferManual {
		return []englishTier{
			{VariantManual, PriorityManualEnglish},
			{VariantAuto, PriorityAutoEnglish},
		}
	}
	return []englishTier{
		{VariantAuto, PriorityAutoEnglish},
		{VariantManual, PriorityManualEnglish},
	}
}

func translatedTiers(preferManual bool) []englishTier {
	if preferManual {
		return []englishTier{
			{VariantManual, PriorityManualTranslated},
			{VariantAuto, PriorityAutoTranslated},
		}
	}
	return []englishTier{
		{VariantAuto, PriorityAutoTranslated},
		{VariantManual, PriorityManualTranslated},
	}
}

func (a *Acquirer) GetEnglish(ctx context.Context, videoID string, prefs Preferences) (Result, error) {
	var notes []string

	for _, tier := range englishTiers(prefs.PreferManual) {
		if entry, ok := a.cache.Get(CacheKey{VideoID: videoID, LanguageCode: "en", Variant: tier.variant}); ok {
			return Result{
				Text:         entry.Text,
				LanguageCode: "en",
				Priority:     tier.priority,
				Confidence:   tier.priority.confidence(),
				Notes:        append(notes, "cache hit: "+string(tier.variant)+" English"),
			}, nil
		}
		notes = append(notes, "cache miss: "+string(tier.variant)+" English")
	}

	available, err := a.provider.ListAvailable(ctx, videoID)
	if err != nil {
		return Result{}, err
	}

	for _, tier := range englishTiers(prefs.PreferManual) {
		if d, ok := findTrack(available, "en", tier.variant); ok {
			return a.fetchAndCache(ctx, videoID, d, tier.priority, "en", "", notes)
		}
		notes = append(notes, string(tier.variant)+" English not available")
	}

	if !prefs.EnableTranslation {
		notes = append(notes, "translation disabled")
		return Result{}, apperr.New(apperr.KindNoTranscriptFound, "no English transcript available for "+videoID)
	}

	for _, tier := range translatedTiers(prefs.PreferManual) {
		d, ok := findTranslatable(available, tier.variant, prefs.FallbackLanguages)
		if !ok {
			notes = append(notes, "no translatable "+string(tier.variant)+" transcript available")
			continue
		}
		return a.fetchTranslateAndCache(ctx, videoID, d, tier.priority, prefs.RequireEnglish, notes)
	}

	return Result{}, apperr.New(apperr.KindNoTranscriptFound, "no English or translatable transcript available for "+videoID)
}

func (a *Acquirer) fetchAndCache(ctx context.Context, videoID string, d Descriptor, priority Priority, languageCode, sourceLanguage string, notes []string) (Result, error) {
	text, err := a.provider.Fetch(ctx, videoID, d)
	if err != nil {
		return Result{}, err
	}
	a.cache.Set(CacheKey{VideoID: videoID, LanguageCode: languageCode, Variant: d.Variant}, text, sourceLanguage)
	return Result{
		Text:           text,
		LanguageCode:   languageCode,
		Priority:       priority,
		Confidence:     priority.confidence(),
		SourceLanguage: sourceLanguage,
		Notes:          notes,
	}, nil
}

// fetchTranslateAndCache fetches d's original text, then attempts to
// translate it to English. On translate failure, requireEnglish decides
// the outcome: true fails the lookup with TRANSLATION-FAILED; false
// downgrades to the untranslated original, in its own language, rather
// than failing a lookup that already has usable text in hand.
func (a *Acquirer) fetchTranslateAndCache(ctx context.Context, videoID string, d Descriptor, priority Priority, requireEnglish bool, notes []string) (Result, error) {
	original, err := a.provider.Fetch(ctx, videoID, d)
	if err != nil {
		return Result{}, err
	}
	// Cache the original-language fetch too, so a later request for that
	// language directly (or a re-translation) doesn't re-hit the provider.
	a.cache.Set(CacheKey{VideoID: videoID, LanguageCode: d.LanguageCode, Variant: d.Variant}, original, "")

	translated, err := a.provider.Translate(ctx, original, d.LanguageCode)
	if err != nil {
		if !requireEnglish {
			notes = append(notes, "translating from "+d.LanguageCode+" failed; falling back to untranslated "+d.LanguageCode+" original")
			return Result{
				Text:           original,
				LanguageCode:   d.LanguageCode,
				Priority:       priority,
				Confidence:     priority.confidence(),
				SourceLanguage: d.LanguageCode,
				Notes:          notes,
			}, nil
		}
		return Result{}, apperr.Wrap(apperr.KindTranslationFailed, "translating "+d.LanguageCode+" transcript for "+videoID, err)
	}
	a.cache.Set(CacheKey{VideoID: videoID, LanguageCode: "en", Variant: d.Variant}, translated, d.LanguageCode)

	return Result{
		Text:           translated,
		LanguageCode:   "en",
		Priority:       priority,
		Confidence:     priority.confidence(),
		SourceLanguage: d.LanguageCode,
		Notes:          append(notes, "translating from "+d.LanguageCode),
	}, nil
}

func findTrack(available []Descriptor, languageCode string, variant Variant) (Descriptor, bool) {
	for _, d := range available {
		if d.LanguageCode == languageCode && d.Variant == variant {
			return d, true
		}
	}
	return Descriptor{}, false
}

// findTranslatable prefers the caller's fallback languages in order,
// then falls back to the first translatable track of any language.
func findTranslatable(available []Descriptor, variant Variant, fallbackLanguages []string) (Descriptor, bool) {
	for _, lang := range fallbackLanguages {
		for _, d := range available {
			if d.Variant == variant && d.IsTranslatable && strings.EqualFold(d.LanguageCode, lang) {
				return d, true
			}
		}
	}
	for _, d := range available {
		if d.Variant == variant && d.IsTranslatable {
			return d, true
		}
	}
	return Descriptor{}, false
}
