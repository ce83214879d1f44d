// Package ideation implements the Ideation Engine:
// turns source text into a validated list of typed content ideas, with
// a single repair call on schema violations before truncating rather
// than ever synthesizing filler ideas.
package ideation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/llm"
	"github.com/hsnsaboor/repurpose/pkg/prompt"
)

// chatter is the subset of *llm.Client the engine depends on, so tests
// can substitute a stub without standing up an HTTP server.
type chatter interface {
	ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error)
}

// Engine runs the ideation procedure against an LLM client.
type Engine struct {
	client chatter
}

// New builds an Engine over an existing LLM client.
func New(client chatter) *Engine {
	return &Engine{client: client}
}

var validTypes = map[content.Type]bool{
	content.TypeReel:          true,
	content.TypeImageCarousel: true,
	content.TypeTweet:         true,
}

// Generate extracts between min-ideas and max-ideas ideas from
// sourceText. On schema violations it issues exactly one repair call
// carrying the original response and the specific violations; if the
// repaired response is still invalid, invalid elements are dropped
// (never synthesized) rather than padded. An empty final result fails
// the whole pipeline with IDEATION-FAILED.
func (e *Engine) Generate(ctx context.Context, sourceText string, style *config.Style, limits *config.FieldLimits) ([]content.Idea, error) {
	p := prompt.Ideation(sourceText, style, limits)

	raw, err := e.client.ChatJSON(ctx, p.System, p.User)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIdeationFailed, "calling LLM for ideation", err)
	}

	ideas, violations := parseIdeas(raw, limits)
	if len(violations) > 0 {
		repaired, repairErr := e.repair(ctx, p, raw, violations)
		if repairErr == nil {
			ideas, violations = parseIdeas(repaired, limits)
		}
		// If the repair call itself failed, fall through and work with
		// whatever validated ideas the first response produced.
	}

	if len(ideas) == 0 {
		return nil, apperr.New(apperr.KindIdeationFailed, "no valid content ideas after repair")
	}

	max := limits.Get(config.MaxIdeas)
	if max > 0 && len(ideas) > max {
		ideas = ideas[:max]
	}

	return ideas, nil
}

func (e *Engine) repair(ctx context.Context, p prompt.Pair, original map[string]interface{}, violations []string) (map[string]interface{}, error) {
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return nil, err
	}

	repairUser := fmt.Sprintf(
		"%s\n\nYour previous response had these problems:\n- %s\n\n"+
			"Previous response:\n%s\n\nRespond again with a corrected JSON object only.",
		p.User, strings.Join(violations, "\n- "), string(originalJSON),
	)

	return e.client.ChatJSON(ctx, p.System, repairUser)
}

// parseIdeas extracts the well-formed ideas array, returning every
// violation it finds (malformed entries are dropped, not fixed).
func parseIdeas(raw map[string]interface{}, limits *config.FieldLimits) ([]content.Idea, []string) {
	rawIdeas, ok := raw["ideas"]
	if !ok {
		return nil, []string{`response must be a JSON object with an "ideas" array`}
	}
	list, ok := rawIdeas.([]interface{})
	if !ok {
		return nil, []string{`"ideas" must be a JSON array`}
	}

	min := limits.Get(config.MinIdeas)
	max := limits.Get(config.MaxIdeas)

	var violations []string
	if min > 0 && len(list) < min {
		violations = append(violations, fmt.Sprintf("expected at least %d ideas, got %d", min, len(list)))
	}
	if max > 0 && len(list) > max {
		violations = append(violations, fmt.Sprintf("expected at most %d ideas, got %d", max, len(list)))
	}

	ideas := make([]content.Idea, 0, len(list))
	for i, item := range list {
		idea, err := parseIdea(item)
		if err != nil {
			violations = append(violations, fmt.Sprintf("idea %d: %s", i, err))
			continue
		}
		ideas = append(ideas, idea)
	}

	return ideas, violations
}

func parseIdea(item interface{}) (content.Idea, error) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return content.Idea{}, fmt.Errorf("not a JSON object")
	}

	typ, _ := m["type"].(string)
	if !validTypes[content.Type(typ)] {
		return content.Idea{}, fmt.Errorf("unrecognized type %q", typ)
	}

	title, _ := m["title"].(string)
	snippet, _ := m["snippet"].(string)
	if title == "" || snippet == "" {
		return content.Idea{}, fmt.Errorf("missing title or snippet")
	}

	hints, _ := m["hints"].(map[string]interface{})

	return content.Idea{
		Type:    content.Type(typ),
		Title:   title,
		Snippet: snippet,
		Hints:   hints,
	}, nil
}
