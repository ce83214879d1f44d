package config

import (
	"fmt"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/registry"
)

// Style is the style block attached to every ideation and materialization
// prompt: target audience, call-to-action, content goal,
// language, tone, additional instructions, and an optional embedded
// field-limits override.
type Style struct {
	Name                   string
	TargetAudience         string
	CallToAction           string
	ContentGoal            string
	Language               string
	Tone                   string
	AdditionalInstructions string
	LimitOverrides         map[LimitKey]int
}

// SetDefaults fills Language/Tone with their defaults when empty, per
// language and tone default to English and Professional.
func (s *Style) SetDefaults() {
	if s.Language == "" {
		s.Language = "English"
	}
	if s.Tone == "" {
		s.Tone = "Professional"
	}
}

// Validate enforces that a custom style carries the three fields the
// caller cannot omit: target-audience, call-to-action, content-goal.
func (s *Style) Validate() error {
	var missing []string
	if s.TargetAudience == "" {
		missing = append(missing, "target-audience")
	}
	if s.CallToAction == "" {
		missing = append(missing, "call-to-action")
	}
	if s.ContentGoal == "" {
		missing = append(missing, "content-goal")
	}
	if len(missing) > 0 {
		return apperr.New(apperr.KindInvalidPreset, fmt.Sprintf("custom style missing required fields: %v", missing))
	}
	return nil
}

// presetNames are the five built-in style presets.
const (
	PresetEcommerceEntrepreneur = "ecommerce-entrepreneur"
	PresetProfessionalBusiness  = "professional-business"
	PresetSocialMediaCasual     = "social-media-casual"
	PresetEducationalContent    = "educational-content"
	PresetFitnessWellness       = "fitness-wellness"
)

// NewStyleRegistry returns a registry pre-populated with the five named
// presets. Backed by the same in-house generic registry pattern used
// for provider/tool registries elsewhere in this codebase.
func NewStyleRegistry() *registry.BaseRegistry[*Style] {
	r := registry.NewBaseRegistry[*Style]()

	presets := []*Style{
		{
			Name:           PresetEcommerceEntrepreneur,
			TargetAudience: "small online store owners and dropshippers",
			CallToAction:   "visit the link in bio to shop the featured product",
			ContentGoal:    "drive product discovery and sales",
			Tone:           "energetic and persuasive",
			AdditionalInstructions: "favor concrete numbers (price, savings, time-to-ship) over abstract claims",
		},
		{
			Name:           PresetProfessionalBusiness,
			TargetAudience: "B2B decision-makers and industry professionals",
			CallToAction:   "connect to discuss how this applies to your organization",
			ContentGoal:    "establish authority and generate qualified leads",
			Tone:           "formal and precise",
		},
		{
			Name:           PresetSocialMediaCasual,
			TargetAudience: "general social media followers",
			CallToAction:   "drop a comment with your take",
			ContentGoal:    "maximize shares and engagement",
			Tone:           "casual and conversational",
			AdditionalInstructions: "short sentences, contractions, light humor where it fits",
		},
		{
			Name:           PresetEducationalContent,
			TargetAudience: "learners seeking a clear explanation of the topic",
			CallToAction:   "save this post for later reference",
			ContentGoal:    "teach the core concept accurately and memorably",
			Tone:           "clear and instructive",
		},
		{
			Name:           PresetFitnessWellness,
			TargetAudience: "people pursuing fitness and wellness goals",
			CallToAction:   "try this in your next session and share your results",
			ContentGoal:    "motivate action on a concrete health habit",
			Tone:           "motivating and supportive",
		},
	}

	for _, p := range presets {
		p.SetDefaults()
		// Panics only on a programmer error (duplicate preset name),
		// which would be caught immediately by any test importing this
		// package.
		if err := r.Register(p.Name, p); err != nil {
			panic(fmt.Sprintf("config: duplicate built-in style preset %q: %v", p.Name, err))
		}
	}

	return r
}

// ResolvePreset looks up a built-in preset by name, returning
// INVALID-PRESET if unknown.
func ResolvePreset(r *registry.BaseRegistry[*Style], name string) (*Style, error) {
	s, ok := r.Get(name)
	if !ok {
		return nil, apperr.New(apperr.KindInvalidPreset, fmt.Sprintf("unknown style preset %q", name))
	}
	return s, nil
}
