package content

import (
	"fmt"

	"github.com/hsnsaboor/repurpose/pkg/config"
)

// Violation is one validation failure, in the enumerated form the
// Materialization Engine's repair prompt needs:
// "slide 3 text: 912 chars, max 800".
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Validate checks an Artifact's string-length and count bounds against
// the active field limits, returning every violation found (not just
// the first) so a single repair call can address them all at once.
func Validate(a *Artifact, limits *config.FieldLimits) []Violation {
	switch a.Kind {
	case TypeReel:
		return validateReel(a.Reel, limits)
	case TypeImageCarousel:
		return validateCarousel(a.Carousel, limits)
	case TypeTweet:
		return validateTweet(a.Tweet, limits)
	default:
		return []Violation{{Field: "kind", Message: fmt.Sprintf("unrecognized content type %q", a.Kind)}}
	}
}

func validateReel(r *Reel, limits *config.FieldLimits) []Violation {
	if r == nil {
		return []Violation{{Field: "reel", Message: "missing reel payload"}}
	}
	var v []Violation
	checkMax(&v, "title", r.Title, limits.Get(config.ReelTitleMax))
	checkMax(&v, "caption", r.Caption, limits.Get(config.ReelCaptionMax))
	checkMax(&v, "hook", r.Hook, limits.Get(config.ReelHookMax))
	checkMax(&v, "script", r.Script, limits.Get(config.ReelScriptMax))
	return v
}

func validateCarousel(c *ImageCarousel, limits *config.FieldLimits) []Violation {
	if c == nil {
		return []Violation{{Field: "carousel", Message: "missing carousel payload"}}
	}
	var v []Violation
	checkMax(&v, "title", c.Title, limits.Get(config.CarouselTitleMax))
	checkMax(&v, "caption", c.Caption, limits.Get(config.CarouselCaptionMax))

	minSlides := limits.Get(config.CarouselMinSlides)
	maxSlides := limits.Get(config.CarouselMaxSlides)
	n := len(c.Slides)
	if n < minSlides || n > maxSlides {
		v = append(v, Violation{
			Field:   "slides",
			Message: fmt.Sprintf("%d slides, must be between %d and %d", n, minSlides, maxSlides),
		})
	}

	headingMax := limits.Get(config.CarouselSlideHeadingMax)
	textMax := limits.Get(config.CarouselSlideTextMax)
	for i, s := range c.Slides {
		field := fmt.Sprintf("slide %d heading", i+1)
		checkMax(&v, field, s.StepHeading, headingMax)
		field = fmt.Sprintf("slide %d text", i+1)
		checkMax(&v, field, s.Text, textMax)
	}
	return v
}

func validateTweet(t *Tweet, limits *config.FieldLimits) []Violation {
	if t == nil {
		return []Violation{{Field: "tweet", Message: "missing tweet payload"}}
	}
	var v []Violation
	textMax := limits.Get(config.TweetTextMax)
	if textMax > config.TweetHardCap {
		textMax = config.TweetHardCap
	}
	checkMax(&v, "text", t.Text, textMax)
	checkMax(&v, "title", t.Title, limits.Get(config.TweetTitleMax))
	for i, item := range t.Thread {
		field := fmt.Sprintf("thread item %d", i+1)
		checkMax(&v, field, item, limits.Get(config.TweetThreadItemMax))
	}
	return v
}

func checkMax(v *[]Violation, field, value string, max int) {
	if max <= 0 {
		return
	}
	if n := len(value); n > max {
		*v = append(*v, Violation{
			Field:   field,
			Message: fmt.Sprintf("%d chars, max %d", n, max),
		})
	}
}

// SoftWarnings reports non-fatal quality warnings that don't block
// validation — currently just the carousel slide-text soft floor.
func SoftWarnings(a *Artifact) []string {
	if a.Kind != TypeImageCarousel || a.Carousel == nil {
		return nil
	}
	var warnings []string
	for i, s := range a.Carousel.Slides {
		if len(s.Text) < config.CarouselSlideSoftMin {
			warnings = append(warnings, fmt.Sprintf("slide %d text is %d chars, below the %d-char target floor", i+1, len(s.Text), config.CarouselSlideSoftMin))
		}
	}
	return warnings
}
