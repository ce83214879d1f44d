package content

import (
	"sync"

	"github.com/invopop/jsonschema"
)

// reflector mirrors the struct-tag conventions a materializer response
// must satisfy: a field is required unless its json tag carries
// omitempty, and every definition is inlined rather than $ref'd, since
// the schema is consumed directly rather than resolved by a client.
var reflector = &jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
}

var (
	schemaOnce    sync.Once
	schemasByType map[Type]*jsonschema.Schema
)

func schemas() map[Type]*jsonschema.Schema {
	schemaOnce.Do(func() {
		schemasByType = map[Type]*jsonschema.Schema{
			TypeReel:          reflector.Reflect(&Reel{}),
			TypeImageCarousel: reflector.Reflect(&ImageCarousel{}),
			TypeTweet:         reflector.Reflect(&Tweet{}),
		}
	})
	return schemasByType
}

// Schema returns the JSON Schema reflected from t's artifact struct, or
// nil for an unrecognized type. Exposed over HTTP so a client can
// render or validate against the exact shape the materializer targets,
// and used internally by ValidateSchema to catch a structurally
// malformed materializer response before field-limit checks run.
func Schema(t Type) *jsonschema.Schema {
	return schemas()[t]
}

// ValidateSchema checks that every field Schema(t) marks required is
// present and non-empty in raw, catching a materializer response
// that's missing a field entirely — something the field-limit checks
// in Validate can't see, since a missing string just zero-values
// through decoding and passes an empty-string length check. content_id
// is skipped: it's assigned by the engine after materialization, never
// supplied by the LLM response being checked here.
func ValidateSchema(t Type, raw map[string]interface{}) []Violation {
	schema := Schema(t)
	if schema == nil {
		return nil
	}
	var violations []Violation
	for _, field := range schema.Required {
		if field == "content_id" {
			continue
		}
		val, ok := raw[field]
		if !ok || val == nil || val == "" {
			violations = append(violations, Violation{Field: field, Message: "required field missing from materializer response"})
		}
	}
	return violations
}
