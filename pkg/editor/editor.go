// Package editor implements the Content Editor: applies
// a natural-language edit instruction to an existing content artifact,
// constrained by the same schema and caps the materializer uses, and
// reports a field-by-field diff of what changed.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
)

// chatter is the subset of *llm.Client the editor depends on.
type chatter interface {
	ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error)
}

// Editor applies edit prompts to stored artifacts.
type Editor struct {
	client chatter
}

// New builds an Editor over an LLM client.
func New(client chatter) *Editor {
	return &Editor{client: client}
}

// Result carries the before/after artifact and the synthesized diff.
type Result struct {
	Before  *content.Artifact
	After   *content.Artifact
	Changes []string
}

// Edit loads current, applies editPrompt via the LLM, validates the
// result against limits, and — on success — returns the new artifact
// plus a field-by-field diff. current is never mutated; on validation
// failure the caller's stored artifact should remain exactly current.
func (e *Editor) Edit(ctx context.Context, current *content.Artifact, editPrompt string, style *config.Style, limits *config.FieldLimits) (Result, error) {
	system := fmt.Sprintf(
		"You edit existing %s content per the user's instruction, preserving "+
			"everything the instruction doesn't ask you to change. Respond with "+
			"a JSON object only, matching the original schema exactly.\n"+
			"Tone: %s. Language: %s.",
		current.Kind, style.Tone, style.Language,
	)

	currentJSON, err := marshalArtifactBody(current)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidationFailed, "marshaling current artifact", err)
	}

	user := fmt.Sprintf(
		"Current content:\n%s\n\nInstruction: %s",
		string(currentJSON), editPrompt,
	)

	raw, err := e.client.ChatJSON(ctx, system, user)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidationFailed, "calling LLM for edit", err)
	}

	updated, violations := parseAndValidate(current.Kind, raw, limits)
	if len(violations) > 0 {
		messages := make([]string, 0, len(violations))
		for _, v := range violations {
			messages = append(messages, v.String())
		}
		return Result{}, apperr.New(apperr.KindValidationFailed, "edited artifact failed validation: "+strings.Join(messages, "; "))
	}

	updated.SetContentID(current.ContentID())

	return Result{
		Before:  current,
		After:   updated,
		Changes: Diff(current, updated),
	}, nil
}

func marshalArtifactBody(a *content.Artifact) ([]byte, error) {
	switch a.Kind {
	case content.TypeReel:
		return json.Marshal(a.Reel)
	case content.TypeImageCarousel:
		return json.Marshal(a.Carousel)
	case content.TypeTweet:
		return json.Marshal(a.Tweet)
	default:
		return nil, fmt.Errorf("unrecognized content type %q", a.Kind)
	}
}

func parseAndValidate(t content.Type, raw map[string]interface{}, limits *config.FieldLimits) (*content.Artifact, []content.Violation) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, []content.Violation{{Field: "response", Message: "not valid JSON: " + err.Error()}}
	}

	artifact := &content.Artifact{Kind: t}
	switch t {
	case content.TypeReel:
		var r content.Reel
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, []content.Violation{{Field: "reel", Message: "could not parse: " + err.Error()}}
		}
		artifact.Reel = &r
	case content.TypeImageCarousel:
		var c content.ImageCarousel
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, []content.Violation{{Field: "carousel", Message: "could not parse: " + err.Error()}}
		}
		artifact.Carousel = &c
	case content.TypeTweet:
		var tw content.Tweet
		if err := json.Unmarshal(payload, &tw); err != nil {
			return nil, []content.Violation{{Field: "tweet", Message: "could not parse: " + err.Error()}}
		}
		artifact.Tweet = &tw
	default:
		return nil, []content.Violation{{Field: "kind", Message: "unrecognized content type"}}
	}

	return artifact, content.Validate(artifact, limits)
}
