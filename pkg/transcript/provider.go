package transcript

import "context"

// Provider is the external collaborator that knows how to enumerate and
// fetch YouTube caption tracks, and to machine-translate text to
// English. Implementations may hit a real API (see HTTPProvider) or be
// swapped for a test double.
type Provider interface {
	// ListAvailable enumerates caption tracks for a video.
	ListAvailable(ctx context.Context, videoID string) ([]Descriptor, error)

	// Fetch retrieves the full transcript text for one track.
	Fetch(ctx context.Context, videoID string, track Descriptor) (string, error)

	// Translate machine-translates text from one language to English.
	Translate(ctx context.Context, text, fromLanguage string) (string, error)
}
