package config

import (
	"testing"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStyleRegistry_HasAllFivePresets(t *testing.T) {
	r := NewStyleRegistry()
	assert.Equal(t, 5, r.Count())

	for _, name := range []string{
		PresetEcommerceEntrepreneur,
		PresetProfessionalBusiness,
		PresetSocialMediaCasual,
		PresetEducationalContent,
		PresetFitnessWellness,
	} {
		s, err := ResolvePreset(r, name)
		require.NoError(t, err)
		assert.NotEmpty(t, s.TargetAudience)
		assert.NotEmpty(t, s.CallToAction)
		assert.NotEmpty(t, s.ContentGoal)
		assert.Equal(t, "English", s.Language)
		assert.NotEmpty(t, s.Tone)
	}
}

func TestResolvePreset_UnknownName(t *testing.T) {
	r := NewStyleRegistry()
	_, err := ResolvePreset(r, "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidPreset, apperr.KindOf(err))
}

func TestStyle_SetDefaults(t *testing.T) {
	s := &Style{}
	s.SetDefaults()
	assert.Equal(t, "English", s.Language)
	assert.Equal(t, "Professional", s.Tone)
}

func TestStyle_Validate_RequiresCoreFields(t *testing.T) {
	s := &Style{}
	err := s.Validate()
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidPreset, apperr.KindOf(err))

	s = &Style{TargetAudience: "a", CallToAction: "b", ContentGoal: "c"}
	assert.NoError(t, s.Validate())
}
