// Package content defines the shared data model: Source,
// ContentIdea, and the ContentArtifact tagged union (Reel, ImageCarousel,
// Tweet), plus the content-id format shared by the Materialization
// Engine and the Content Editor.
package content

import "fmt"

// Type enumerates the supported content types.
type Type string

const (
	TypeReel          Type = "reel"
	TypeImageCarousel Type = "image-carousel"
	TypeTweet         Type = "tweet"
)

// Idea is the Ideation Engine's output unit.
type Idea struct {
	Type    Type   `json:"type"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Hints   map[string]interface{} `json:"hints,omitempty"`
}

// Slide is one step of an ImageCarousel.
type Slide struct {
	SlideNumber int    `json:"slide_number"`
	StepNumber  int    `json:"step_number"`
	StepHeading string `json:"step_heading"`
	Text        string `json:"text"`
}

// Reel is a vertical short-video artifact.
type Reel struct {
	ContentID            string   `json:"content_id"`
	Title                string   `json:"title"`
	Caption              string   `json:"caption"`
	Hook                 string   `json:"hook"`
	Script               string   `json:"script"`
	VisualSuggestions    string   `json:"visual_suggestions,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	CallToAction         string   `json:"call_to_action,omitempty"`
	EstimatedDurationSec int      `json:"estimated_duration_sec,omitempty"`
	MusicSuggestion      string   `json:"music_suggestion,omitempty"`
}

// ImageCarousel is a multi-slide artifact.
type ImageCarousel struct {
	ContentID    string   `json:"content_id"`
	Title        string   `json:"title"`
	Caption      string   `json:"caption"`
	Slides       []Slide  `json:"slides"`
	Tags         []string `json:"tags,omitempty"`
	CallToAction string   `json:"call_to_action,omitempty"`
	DesignNotes  string   `json:"design_notes,omitempty"`
}

// Tweet is a short text post, optionally continued as a thread.
type Tweet struct {
	ContentID    string   `json:"content_id"`
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	Thread       []string `json:"thread,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CallToAction string   `json:"call_to_action,omitempty"`
}

// Artifact is the tagged union of generated content. Exactly one of
// Reel/Carousel/Tweet is non-nil, matching Kind.
type Artifact struct {
	Kind     Type           `json:"kind"`
	Reel     *Reel          `json:"reel,omitempty"`
	Carousel *ImageCarousel `json:"carousel,omitempty"`
	Tweet    *Tweet         `json:"tweet,omitempty"`
}

// ContentID returns the id of whichever variant is populated.
func (a *Artifact) ContentID() string {
	switch a.Kind {
	case TypeReel:
		if a.Reel != nil {
			return a.Reel.ContentID
		}
	case TypeImageCarousel:
		if a.Carousel != nil {
			return a.Carousel.ContentID
		}
	case TypeTweet:
		if a.Tweet != nil {
			return a.Tweet.ContentID
		}
	}
	return ""
}

// SetContentID assigns the id on whichever variant is populated.
func (a *Artifact) SetContentID(id string) {
	switch a.Kind {
	case TypeReel:
		if a.Reel != nil {
			a.Reel.ContentID = id
		}
	case TypeImageCarousel:
		if a.Carousel != nil {
			a.Carousel.ContentID = id
		}
	case TypeTweet:
		if a.Tweet != nil {
			a.Tweet.ContentID = id
		}
	}
}

// NewContentID formats the content-id convention:
// {source-id}_{type}_{NNN}, NNN a 1-based, 3-digit, per-type sequence.
func NewContentID(sourceID string, t Type, seq int) string {
	return fmt.Sprintf("%s_%s_%03d", sourceID, t, seq)
}

// Source is the canonical, addressable unit of input text.
type Source struct {
	ID        string            `json:"id"`
	Kind      SourceKind        `json:"kind"`
	Title     string            `json:"title"`
	Text      string            `json:"text"`
	Summary   string            `json:"summary"`
	Topics    []string          `json:"topics,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IndexedAt int64             `json:"indexed_at"`
	Surrogate []float64         `json:"surrogate,omitempty"`
}

// SourceKind enumerates where a Source's text originated.
type SourceKind string

const (
	SourceVideo    SourceKind = "video"
	SourceDocument SourceKind = "document"
	SourceURL      SourceKind = "url"
	SourceRaw      SourceKind = "raw"
)

// MinSourceTextLen is the invariant: every Source has
// non-empty text of at least 50 chars.
const MinSourceTextLen = 50
