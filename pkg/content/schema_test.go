package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_ReelRequiresCoreFields(t *testing.T) {
	schema := Schema(TypeReel)
	require.NotNil(t, schema)
	assert.Contains(t, schema.Required, "title")
	assert.Contains(t, schema.Required, "caption")
	assert.Contains(t, schema.Required, "hook")
	assert.Contains(t, schema.Required, "script")
	assert.NotContains(t, schema.Required, "tags", "tags carries omitempty and is optional")
}

func TestSchema_UnrecognizedTypeReturnsNil(t *testing.T) {
	assert.Nil(t, Schema(Type("bogus")))
}

func TestValidateSchema_MissingFieldReported(t *testing.T) {
	raw := map[string]interface{}{"title": "t", "caption": "c", "hook": "h"}
	v := ValidateSchema(TypeReel, raw)
	require.Len(t, v, 1)
	assert.Equal(t, "script", v[0].Field)
}

func TestValidateSchema_ContentIDNeverFlaggedMissing(t *testing.T) {
	raw := map[string]interface{}{"title": "t", "caption": "c", "hook": "h", "script": "s"}
	assert.Empty(t, ValidateSchema(TypeReel, raw))
}

func TestValidateSchema_EmptyStringCountsAsMissing(t *testing.T) {
	raw := map[string]interface{}{"title": "", "caption": "c", "hook": "h", "script": "s"}
	v := ValidateSchema(TypeReel, raw)
	require.Len(t, v, 1)
	assert.Equal(t, "title", v[0].Field)
}

func TestValidateSchema_UnrecognizedTypeReportsNothing(t *testing.T) {
	assert.Empty(t, ValidateSchema(Type("bogus"), map[string]interface{}{}))
}
