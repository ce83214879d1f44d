package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/httpclient"
)

// HTTPProvider is a Provider backed by YouTube's public, unauthenticated
// timedtext endpoints — the same surface the underlying video player
// uses, not an official Data API. No API key is required, matching the
// free-tier framing of the Rate Limiter this system shares with the LLM
// client.
type HTTPProvider struct {
	http *httpclient.Client
}

// NewHTTPProvider builds a provider using pkg/httpclient's retry/backoff
// client, the same transport the LLM client and URL fetcher use.
func NewHTTPProvider() *HTTPProvider {
	return &HTTPProvider{
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 20 * time.Second}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(1*time.Second),
			httpclient.WithMaxDelay(4*time.Second),
		),
	}
}

var captionTrackRe = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

type ytCaptionTrack struct {
	BaseURL        string `json:"baseUrl"`
	Name           struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
	VssID          string `json:"vssId"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"` // "asr" for auto-generated, "" for manual
	IsTranslatable bool   `json:"isTranslatable"`
}

// ListAvailable scrapes the watch page for the player response's
// captionTracks array — the same data YouTube's own player reads.
func (p *HTTPProvider) ListAvailable(ctx context.Context, videoID string) ([]Descriptor, error) {
	tracks, err := p.fetchCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	descriptors := make([]Descriptor, 0, len(tracks))
	for _, t := range tracks {
		variant := VariantManual
		if t.Kind == "asr" {
			variant = VariantAuto
		}
		descriptors = append(descriptors, Descriptor{
			LanguageCode:   t.LanguageCode,
			LanguageName:   t.Name.SimpleText,
			Variant:        variant,
			IsTranslatable: t.IsTranslatable,
		})
	}
	return descriptors, nil
}

// Fetch retrieves and flattens the timed-text XML for the requested
// track into plain text.
func (p *HTTPProvider) Fetch(ctx context.Context, videoID string, track Descriptor) (string, error) {
	tracks, err := p.fetchCaptionTracks(ctx, videoID)
	if err != nil {
		return "", err
	}
	for _, t := range tracks {
		variant := VariantManual
		if t.Kind == "asr" {
			variant = VariantAuto
		}
		if t.LanguageCode == track.LanguageCode && variant == track.Variant {
			return p.fetchTrackText(ctx, t.BaseURL)
		}
	}
	return "", apperr.New(apperr.KindNoTranscriptFound, fmt.Sprintf("track %s/%s no longer listed for %s", track.LanguageCode, track.Variant, videoID))
}

// Translate does not translate: it receives already-flattened text
// rather than a track URL, makes no request, and always fails with
// TRANSLATION-FAILED. Neither Fetch nor Descriptor offers a translated
// (tlang) variant of a track.
func (p *HTTPProvider) Translate(ctx context.Context, text, fromLanguage string) (string, error) {
	return "", apperr.New(apperr.KindTranslationFailed, "HTTPProvider cannot translate detached text")
}

func (p *HTTPProvider) fetchCaptionTracks(ctx context.Context, videoID string) ([]ytCaptionTrack, error) {
	watchURL := "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVideoUnavailable, "building watch page request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVideoUnavailable, "fetching watch page", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVideoUnavailable, "reading watch page", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.KindVideoUnavailable, "video not found: "+videoID)
	}
	if strings.Contains(string(body), "\"playabilityStatus\":{\"status\":\"ERROR\"") {
		return nil, apperr.New(apperr.KindVideoUnavailable, "video unavailable: "+videoID)
	}

	match := captionTrackRe.FindSubmatch(body)
	if match == nil {
		return nil, apperr.New(apperr.KindTranscriptsDisabled, "no caption tracks found for "+videoID)
	}

	var tracks []ytCaptionTrack
	if err := json.Unmarshal(match[1], &tracks); err != nil {
		return nil, apperr.Wrap(apperr.KindTranscriptsDisabled, "parsing caption track list", err)
	}
	return tracks, nil
}

type timedTextDoc struct {
	Texts []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func (p *HTTPProvider) fetchTrackText(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindNoTranscriptFound, "building timedtext request", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindNoTranscriptFound, "fetching timedtext", err)
	}
	defer resp.Body.Close()

	var doc timedTextDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", apperr.Wrap(apperr.KindNoTranscriptFound, "parsing timedtext XML", err)
	}

	var sb strings.Builder
	for i, t := range doc.Texts {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(html.UnescapeString(strings.TrimSpace(t.Text)))
	}
	return sb.String(), nil
}
