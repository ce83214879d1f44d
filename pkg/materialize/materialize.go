// Package materialize implements the Materialization Engine: fans ideas out to per-content-type worker pools, validates
// every completion against the active field caps, repairs up to twice,
// and assigns content-ids to survivors in ideation order.
package materialize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/prompt"
	"golang.org/x/sync/errgroup"
)

// maxRepairAttempts is the number of repair calls the engine issues for
// a single artifact before dropping it.
const maxRepairAttempts = 2

// defaultGroupParallelism matches the number of content types, per
// the materialization pipeline's validation step.
const defaultGroupParallelism = 3

// chatter is the subset of *llm.Client the engine depends on.
type chatter interface {
	ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error)
}

// Engine runs the materialization procedure.
type Engine struct {
	client      chatter
	log         *slog.Logger
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

// WithGroupParallelism overrides the number of content-type groups
// processed concurrently.
func WithGroupParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New builds an Engine over an LLM client.
func New(client chatter, opts ...Option) *Engine {
	e := &Engine{client: client, log: slog.Default(), parallelism: defaultGroupParallelism}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate materializes every idea into a validated Artifact. Ideas are
// grouped by type and each group runs as its own worker (bounded
// parallelism across groups; sequential calls within a group,
// respecting the LLM client's own rate limiter). The returned slice
// preserves the original ideation order among surviving artifacts. The
// second return value carries non-fatal quality warnings (e.g. a
// carousel slide falling short of its soft text-length floor) that
// don't block the artifact but are worth surfacing to the caller.
func (e *Engine) Generate(ctx context.Context, ideas []content.Idea, sourceID, sourceText string, style *config.Style, limits *config.FieldLimits) ([]*content.Artifact, []string, error) {
	groups := groupByType(ideas)

	type indexed struct {
		idx      int
		artifact *content.Artifact
	}
	results := make([]indexed, 0, len(ideas))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for typ, members := range groups {
		typ, members := typ, members
		g.Go(func() error {
			seq := 0
			for _, m := range members {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				artifact, err := e.materializeOne(gctx, m.idea, sourceText, style, limits)
				if err != nil {
					e.log.Warn("dropping artifact after exhausting repair attempts",
						"type", typ, "idea_title", m.idea.Title, "error", err)
					continue
				}
				seq++
				artifact.SetContentID(content.NewContentID(sourceID, typ, seq))

				mu.Lock()
				results = append(results, indexed{idx: m.originalIndex, artifact: artifact})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].idx < results[j].idx })

	artifacts := make([]*content.Artifact, 0, len(results))
	for _, r := range results {
		artifacts = append(artifacts, r.artifact)
	}

	if len(artifacts) == 0 {
		return nil, nil, apperr.New(apperr.KindMaterializationEmpty, "no artifact survived validation and repair")
	}

	var warnings []string
	for _, a := range artifacts {
		for _, w := range content.SoftWarnings(a) {
			warnings = append(warnings, fmt.Sprintf("%s: %s", a.ContentID(), w))
		}
	}

	return artifacts, warnings, nil
}

type ideaWithIndex struct {
	idea          content.Idea
	originalIndex int
}

func groupByType(ideas []content.Idea) map[content.Type][]ideaWithIndex {
	groups := make(map[content.Type][]ideaWithIndex)
	for i, idea := range ideas {
		groups[idea.Type] = append(groups[idea.Type], ideaWithIndex{idea: idea, originalIndex: i})
	}
	return groups
}

// materializeOne builds the prompt, calls the LLM, validates, and
// repairs up to maxRepairAttempts times before giving up.
func (e *Engine) materializeOne(ctx context.Context, idea content.Idea, sourceText string, style *config.Style, limits *config.FieldLimits) (*content.Artifact, error) {
	p := prompt.Materialization(idea, sourceText, style, limits)

	raw, err := e.client.ChatJSON(ctx, p.System, p.User)
	if err != nil {
		return nil, fmt.Errorf("calling LLM: %w", err)
	}

	artifact, violations := parseAndValidate(idea.Type, raw, limits)
	attempt := 0
	for len(violations) > 0 && attempt < maxRepairAttempts {
		attempt++
		raw, err = e.repair(ctx, p, raw, violations)
		if err != nil {
			return nil, fmt.Errorf("repair call %d: %w", attempt, err)
		}
		artifact, violations = parseAndValidate(idea.Type, raw, limits)
	}

	if len(violations) > 0 {
		return nil, fmt.Errorf("validation failed after %d repair attempts: %s", maxRepairAttempts, strings.Join(violations, "; "))
	}

	return artifact, nil
}

func (e *Engine) repair(ctx context.Context, p prompt.Pair, failing map[string]interface{}, violations []string) (map[string]interface{}, error) {
	failingJSON, err := json.Marshal(failing)
	if err != nil {
		return nil, err
	}

	repairUser := fmt.Sprintf(
		"%s\n\nThe following artifact failed validation:\n%s\n\nViolations:\n- %s\n\n"+
			"Respond again with a corrected JSON object only.",
		p.User, string(failingJSON), strings.Join(violations, "\n- "),
	)

	return e.client.ChatJSON(ctx, p.System, repairUser)
}

// parseAndValidate decodes raw into the type-specific artifact shape
// and runs it through a structural check against the type's reflected
// JSON Schema (catching an outright missing field) and then
// content.Validate's field-limit checks, returning every violation as
// an enumerated, repair-prompt-ready string.
func parseAndValidate(t content.Type, raw map[string]interface{}, limits *config.FieldLimits) (*content.Artifact, []string) {
	var messages []string
	for _, v := range content.ValidateSchema(t, raw) {
		messages = append(messages, v.String())
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, append(messages, "response was not valid JSON: "+err.Error())
	}

	artifact := &content.Artifact{Kind: t}
	switch t {
	case content.TypeReel:
		var r content.Reel
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, append(messages, "could not parse reel: "+err.Error())
		}
		artifact.Reel = &r
	case content.TypeImageCarousel:
		var c content.ImageCarousel
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, append(messages, "could not parse image carousel: "+err.Error())
		}
		artifact.Carousel = &c
	case content.TypeTweet:
		var tw content.Tweet
		if err := json.Unmarshal(payload, &tw); err != nil {
			return nil, append(messages, "could not parse tweet: "+err.Error())
		}
		artifact.Tweet = &tw
	default:
		return nil, append(messages, "unrecognized content type: "+string(t))
	}

	for _, v := range content.Validate(artifact, limits) {
		messages = append(messages, v.String())
	}
	if len(messages) == 0 {
		return artifact, nil
	}
	return nil, messages
}
