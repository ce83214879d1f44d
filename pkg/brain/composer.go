package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
)

// Mode enumerates a Brain Session's generation mode.
type Mode string

const (
	ModeVision       Mode = "vision"
	ModeAutoSingle   Mode = "auto-single"
	ModeAutoMultiple Mode = "auto-multiple"
	ModeAutoAuto     Mode = "auto-auto"
	ModeHybrid       Mode = "hybrid"
)

// FullAIVariant selects among the three full-AI sub-variants of
// the Brain's three generation modes.
type FullAIVariant string

const (
	VariantSingle   FullAIVariant = "single"
	VariantMultiple FullAIVariant = "multiple"
	VariantAuto     FullAIVariant = "auto"
)

// HybridStrategy names the ai-augment directive of hybrid-mode generation.
type HybridStrategy string

const (
	StrategyAugment HybridStrategy = "augment"
	StrategyFill    HybridStrategy = "fill"
	StrategySupport HybridStrategy = "support"
)

// visionTopK is the default number of retrieved sources composed into
// a vision-mode generation.
const visionTopK = 5

// Session is the Brain Session record.
type Session struct {
	ID                  string             `json:"id"`
	Mode                Mode               `json:"mode"`
	Vision              string             `json:"vision,omitempty"`
	UserSourceIDs       []string           `json:"user_source_ids,omitempty"`
	PrimarySourceIDs    []string           `json:"primary_source_ids,omitempty"`
	SupportingSourceIDs []string           `json:"supporting_source_ids,omitempty"`
	MatchedSourceIDs    []string           `json:"matched_source_ids,omitempty"`
	MatchedScores       map[string]float64 `json:"matched_scores,omitempty"`
	ChosenCount         int                `json:"chosen_count,omitempty"`
	Rationale           string             `json:"rationale,omitempty"`
	GeneratedContentIDs []string           `json:"generated_content_ids,omitempty"`
	Status              string             `json:"status"`
}

// Sessions is the subset of the Repository Layer the Composer needs to
// persist a Brain Session record.
type Sessions interface {
	PutSession(ctx context.Context, s *Session) error
}

// ideator is the subset of *ideation.Engine the Composer depends on.
type ideator interface {
	Generate(ctx context.Context, sourceText string, style *config.Style, limits *config.FieldLimits) ([]content.Idea, error)
}

// materializer is the subset of *materialize.Engine the Composer
// depends on.
type materializer interface {
	Generate(ctx context.Context, ideas []content.Idea, sourceID, sourceText string, style *config.Style, limits *config.FieldLimits) ([]*content.Artifact, []string, error)
}

// Composer implements the three generation modes over a
// Retriever and the two-stage ideation/materialization pipeline.
type Composer struct {
	retriever    *Retriever
	sources      SourceFetcher
	ideation     ideator
	materializer materializer
	sessions     Sessions
}

// NewComposer wires a Composer over its collaborators.
func NewComposer(retriever *Retriever, sources SourceFetcher, ideation ideator, materializer materializer, sessions Sessions) *Composer {
	return &Composer{retriever: retriever, sources: sources, ideation: ideation, materializer: materializer, sessions: sessions}
}

// Outcome is the common result shape every Composer mode returns.
type Outcome struct {
	Session   *Session            `json:"session"`
	Artifacts []*content.Artifact `json:"artifacts"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Vision runs vision mode: the caller's vision string is the retrieval
// query; the top-K matched sources are concatenated with the vision as
// a prefix and fed to the ideation/materialization pipeline.
func (c *Composer) Vision(ctx context.Context, vision string, filter Filter, style *config.Style, limits *config.FieldLimits) (*Outcome, error) {
	if filter.Limit <= 0 {
		filter.Limit = visionTopK
	}

	matches, err := c.retriever.Search(ctx, vision, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "vision-mode retrieval", err)
	}
	if len(matches) == 0 {
		return nil, apperr.New(apperr.KindIdeationFailed, "no sources matched the supplied vision")
	}

	sources, err := c.fetchSources(ctx, matchIDs(matches))
	if err != nil {
		return nil, err
	}

	sourceText := composeText(vision, sources)

	session := &Session{
		ID:               uuid.NewString(),
		Mode:             ModeVision,
		Vision:           vision,
		MatchedSourceIDs: matchIDs(matches),
		MatchedScores:    matchScores(matches),
		PrimarySourceIDs: matchIDs(matches),
		Status:           "generating",
	}

	return c.generate(ctx, session, sourceText, style, limits)
}

// FullAI runs one of the three full-AI sub-variants.
// count is only consulted for VariantMultiple.
func (c *Composer) FullAI(ctx context.Context, sourceIDs []string, variant FullAIVariant, count int, style *config.Style, limits *config.FieldLimits) (*Outcome, error) {
	if len(sourceIDs) == 0 {
		return nil, apperr.New(apperr.KindIdeationFailed, "full-AI mode requires at least one selected source")
	}

	sources, err := c.fetchSources(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}
	sourceText := composeText("", sources)

	var mode Mode
	ideaLimits := limits
	switch variant {
	case VariantSingle:
		mode = ModeAutoSingle
		ideaLimits, err = limits.WithOverrides(map[config.LimitKey]int{config.MinIdeas: 1, config.MaxIdeas: 1})
	case VariantMultiple:
		mode = ModeAutoMultiple
		if count <= 0 {
			return nil, apperr.New(apperr.KindInvalidFieldLimit, "multiple mode requires a positive count")
		}
		ideaLimits, err = limits.WithOverrides(map[config.LimitKey]int{config.MinIdeas: count, config.MaxIdeas: count})
	case VariantAuto:
		mode = ModeAutoAuto
	default:
		return nil, apperr.New(apperr.KindInvalidFieldLimit, fmt.Sprintf("unknown full-AI variant %q", variant))
	}
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:               uuid.NewString(),
		Mode:             mode,
		UserSourceIDs:    sourceIDs,
		PrimarySourceIDs: sourceIDs,
		Status:           "generating",
	}
	if variant == VariantAuto {
		session.Rationale = "engine selected the idea count autonomously within the configured min/max-ideas bounds"
	}

	outcome, err := c.generate(ctx, session, sourceText, style, ideaLimits)
	if err != nil {
		return nil, err
	}
	outcome.Session.ChosenCount = len(outcome.Session.GeneratedContentIDs)
	if variant == VariantMultiple && len(outcome.Artifacts) > count {
		outcome.Artifacts = outcome.Artifacts[:count]
	}
	return outcome, nil
}

// AIAugment is the hybrid-mode directive.
type AIAugment struct {
	Strategy    HybridStrategy `json:"strategy"`
	Hint        string         `json:"hint,omitempty"`
	TargetCount int            `json:"target_count,omitempty"`
}

// Hybrid runs hybrid mode: the caller picks some sources directly and
// the Composer may add more under the named strategy, with
// per-session attribution of which sources were primary (user-chosen)
// vs supporting (AI-added, context-only under the "support" strategy).
func (c *Composer) Hybrid(ctx context.Context, userSourceIDs []string, augment AIAugment, filter Filter, style *config.Style, limits *config.FieldLimits) (*Outcome, error) {
	if len(userSourceIDs) == 0 {
		return nil, apperr.New(apperr.KindIdeationFailed, "hybrid mode requires at least one user-selected source")
	}

	var aiAdded []Result
	var err error
	switch augment.Strategy {
	case StrategyAugment:
		aiAdded, err = c.retriever.Search(ctx, augment.Hint, filter)
	case StrategyFill:
		target := augment.TargetCount
		if target > len(userSourceIDs) {
			need := target - len(userSourceIDs)
			f := filter
			f.Limit = need
			aiAdded, err = c.retriever.Search(ctx, augment.Hint, f)
		}
	case StrategySupport:
		aiAdded, err = c.retriever.Search(ctx, augment.Hint, filter)
	default:
		return nil, apperr.New(apperr.KindInvalidFieldLimit, fmt.Sprintf("unknown hybrid strategy %q", augment.Strategy))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "hybrid-mode AI augmentation retrieval", err)
	}

	aiIDs := excludeAlreadySelected(matchIDs(aiAdded), userSourceIDs)

	allIDs := append(append([]string{}, userSourceIDs...), aiIDs...)
	sources, err := c.fetchSources(ctx, allIDs)
	if err != nil {
		return nil, err
	}
	sourceText := composeText("", sources)

	session := &Session{
		ID:               uuid.NewString(),
		Mode:             ModeHybrid,
		UserSourceIDs:    userSourceIDs,
		PrimarySourceIDs: userSourceIDs,
		MatchedSourceIDs: aiIDs,
		MatchedScores:    matchScores(aiAdded),
		Status:           "generating",
	}
	if augment.Strategy == StrategySupport {
		// Support-strategy AI sources are context-only: they feed the
		// prompt but are never attributed as primary to the output.
		session.SupportingSourceIDs = aiIDs
	} else {
		session.PrimarySourceIDs = allIDs
	}

	return c.generate(ctx, session, sourceText, style, limits)
}

// generate runs the shared ideation -> materialization -> session
// tail shared by every mode.
func (c *Composer) generate(ctx context.Context, session *Session, sourceText string, style *config.Style, limits *config.FieldLimits) (*Outcome, error) {
	ideas, err := c.ideation.Generate(ctx, sourceText, style, limits)
	if err != nil {
		return nil, err
	}

	artifacts, warnings, err := c.materializer.Generate(ctx, ideas, session.ID, sourceText, style, limits)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		ids = append(ids, a.ContentID())
	}
	session.GeneratedContentIDs = ids
	session.Status = "complete"

	if c.sessions != nil {
		if err := c.sessions.PutSession(ctx, session); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageUnavailable, "persisting brain session", err)
		}
	}

	return &Outcome{Session: session, Artifacts: artifacts, Warnings: warnings}, nil
}

func (c *Composer) fetchSources(ctx context.Context, ids []string) ([]*content.Source, error) {
	out := make([]*content.Source, 0, len(ids))
	for _, id := range ids {
		src, ok, err := c.sources.GetSource(ctx, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStorageUnavailable, "fetching source "+id, err)
		}
		if !ok {
			return nil, apperr.New(apperr.KindTaskNotFound, "unknown source id "+id)
		}
		out = append(out, src)
	}
	return out, nil
}

// composeText concatenates a vision prefix (if any) and each source's
// title + text with explicit delimiters, per vision mode's convention.
func composeText(visionPrefix string, sources []*content.Source) string {
	var b strings.Builder
	if visionPrefix != "" {
		b.WriteString("Creative vision: ")
		b.WriteString(visionPrefix)
		b.WriteString("\n\n")
	}
	for i, s := range sources {
		fmt.Fprintf(&b, "--- Source %d: %s ---\n%s\n\n", i+1, s.Title, s.Text)
	}
	return b.String()
}

func matchIDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.SourceID)
	}
	return ids
}

func matchScores(results []Result) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.SourceID] = r.Score
	}
	return scores
}

func excludeAlreadySelected(candidates, already []string) []string {
	seen := make(map[string]bool, len(already))
	for _, id := range already {
		seen[id] = true
	}
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}
