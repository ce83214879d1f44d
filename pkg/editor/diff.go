package editor

import (
	"fmt"
	"reflect"

	"github.com/hsnsaboor/repurpose/pkg/content"
)

// Diff computes the field-by-field changes between before and after,
// Any changed scalar yields "{field} changed";
// structural changes within carousel slides are reported as
// "slide {n} {field} changed". before and after must share the same
// Kind.
func Diff(before, after *content.Artifact) []string {
	switch before.Kind {
	case content.TypeReel:
		return diffReel(before.Reel, after.Reel)
	case content.TypeImageCarousel:
		return diffCarousel(before.Carousel, after.Carousel)
	case content.TypeTweet:
		return diffTweet(before.Tweet, after.Tweet)
	default:
		return nil
	}
}

func diffReel(b, a *content.Reel) []string {
	var changes []string
	changeIf(&changes, "title", b.Title, a.Title)
	changeIf(&changes, "caption", b.Caption, a.Caption)
	changeIf(&changes, "hook", b.Hook, a.Hook)
	changeIf(&changes, "script", b.Script, a.Script)
	changeIf(&changes, "visual_suggestions", b.VisualSuggestions, a.VisualSuggestions)
	changeIf(&changes, "call_to_action", b.CallToAction, a.CallToAction)
	changeIf(&changes, "music_suggestion", b.MusicSuggestion, a.MusicSuggestion)
	if b.EstimatedDurationSec != a.EstimatedDurationSec {
		changes = append(changes, "estimated_duration_sec changed")
	}
	if !reflect.DeepEqual(b.Tags, a.Tags) {
		changes = append(changes, "tags changed")
	}
	return changes
}

func diffCarousel(b, a *content.ImageCarousel) []string {
	var changes []string
	changeIf(&changes, "title", b.Title, a.Title)
	changeIf(&changes, "caption", b.Caption, a.Caption)
	changeIf(&changes, "call_to_action", b.CallToAction, a.CallToAction)
	changeIf(&changes, "design_notes", b.DesignNotes, a.DesignNotes)
	if !reflect.DeepEqual(b.Tags, a.Tags) {
		changes = append(changes, "tags changed")
	}

	changes = append(changes, diffSlides(b.Slides, a.Slides)...)
	return changes
}

func diffSlides(before, after []content.Slide) []string {
	var changes []string
	max := len(before)
	if len(after) > max {
		max = len(after)
	}
	for i := 0; i < max; i++ {
		n := i + 1
		switch {
		case i >= len(before):
			changes = append(changes, fmt.Sprintf("slide %d added", n))
		case i >= len(after):
			changes = append(changes, fmt.Sprintf("slide %d removed", n))
		default:
			b, a := before[i], after[i]
			if b.StepHeading != a.StepHeading {
				changes = append(changes, fmt.Sprintf("slide %d step_heading changed", n))
			}
			if b.Text != a.Text {
				changes = append(changes, fmt.Sprintf("slide %d text changed", n))
			}
			if b.StepNumber != a.StepNumber {
				changes = append(changes, fmt.Sprintf("slide %d step_number changed", n))
			}
		}
	}
	return changes
}

func diffTweet(b, a *content.Tweet) []string {
	var changes []string
	changeIf(&changes, "title", b.Title, a.Title)
	changeIf(&changes, "text", b.Text, a.Text)
	changeIf(&changes, "call_to_action", b.CallToAction, a.CallToAction)
	if !reflect.DeepEqual(b.Tags, a.Tags) {
		changes = append(changes, "tags changed")
	}
	if !reflect.DeepEqual(b.Thread, a.Thread) {
		changes = append(changes, "thread changed")
	}
	return changes
}

func changeIf(changes *[]string, field, before, after string) {
	if before != after {
		*changes = append(*changes, field+" changed")
	}
}
