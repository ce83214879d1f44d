package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/progress"
	"github.com/hsnsaboor/repurpose/pkg/transcript"
)

type transcribeRequest struct {
	VideoID string `json:"video-id"`
}

type transcribeResponse struct {
	VideoID    string `json:"video-id"`
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
	Status     string `json:"status"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindInvalidVideoID, "decoding request body", err))
		return
	}
	if err := validateVideoID(req.VideoID); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.acquirer.GetEnglish(r.Context(), req.VideoID, transcript.DefaultPreferences())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{
		VideoID:    req.VideoID,
		Title:      req.VideoID,
		Transcript: result.Text,
		Status:     "processed",
	})
}

type transcribeEnhancedRequest struct {
	VideoID     string `json:"video-id"`
	Preferences *struct {
		PreferManual      *bool    `json:"prefer-manual,omitempty"`
		RequireEnglish    *bool    `json:"require-english,omitempty"`
		EnableTranslation *bool    `json:"enable-translation,omitempty"`
		FallbackLanguages []string `json:"fallback-languages,omitempty"`
	} `json:"preferences,omitempty"`
}

func (req transcribeEnhancedRequest) resolvePreferences() transcript.Preferences {
	prefs := transcript.DefaultPreferences()
	if req.Preferences == nil {
		return prefs
	}
	if req.Preferences.PreferManual != nil {
		prefs.PreferManual = *req.Preferences.PreferManual
	}
	if req.Preferences.RequireEnglish != nil {
		prefs.RequireEnglish = *req.Preferences.RequireEnglish
	}
	if req.Preferences.EnableTranslation != nil {
		prefs.EnableTranslation = *req.Preferences.EnableTranslation
	}
	if len(req.Preferences.FallbackLanguages) > 0 {
		prefs.FallbackLanguages = req.Preferences.FallbackLanguages
	}
	return prefs
}

type transcribeEnhancedResponse struct {
	transcribeResponse
	Language           string   `json:"language"`
	Generated          bool     `json:"generated-flag"`
	Translated         bool     `json:"translated-flag"`
	Priority           string   `json:"priority"`
	Confidence         float64  `json:"confidence"`
	SourceLanguage     string   `json:"source-language,omitempty"`
	ProcessingNotes    []string `json:"processing-notes"`
	AvailableLanguages []string `json:"available-languages"`
}

func (s *Server) handleTranscribeEnhanced(w http.ResponseWriter, r *http.Request) {
	var req transcribeEnhancedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindInvalidVideoID, "decoding request body", err))
		return
	}
	if err := validateVideoID(req.VideoID); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.acquirer.GetEnglish(r.Context(), req.VideoID, req.resolvePreferences())
	if err != nil {
		writeError(w, err)
		return
	}

	available, err := s.acquirer.ListAvailable(r.Context(), req.VideoID)
	if err != nil {
		available = nil
	}
	languages := make([]string, 0, len(available))
	for _, d := range available {
		languages = append(languages, d.LanguageCode)
	}

	writeJSON(w, http.StatusOK, transcribeEnhancedResponse{
		transcribeResponse: transcribeResponse{
			VideoID: req.VideoID, Title: req.VideoID, Transcript: result.Text, Status: "processed",
		},
		Language:           result.LanguageCode,
		Generated:          result.Priority == transcript.PriorityAutoEnglish || result.Priority == transcript.PriorityAutoTranslated,
		Translated:         result.SourceLanguage != "" && result.LanguageCode == "en",
		Priority:           string(result.Priority),
		Confidence:         result.Confidence,
		SourceLanguage:     result.SourceLanguage,
		ProcessingNotes:    result.Notes,
		AvailableLanguages: languages,
	})
}

type analyzeTranscriptsResponse struct {
	VideoID             string                  `json:"video-id"`
	Available           []transcript.Descriptor `json:"available-transcripts"`
	RecommendedApproach string                  `json:"recommended-approach"`
}

func (s *Server) handleAnalyzeTranscripts(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if err := validateVideoID(videoID); err != nil {
		writeError(w, err)
		return
	}

	available, err := s.acquirer.ListAvailable(r.Context(), videoID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeTranscriptsResponse{
		VideoID:             videoID,
		Available:           available,
		RecommendedApproach: recommendedApproach(available),
	})
}

// recommendedApproach summarizes the priority ladder's winner without
// fetching anything, so analysis stays a read-only, fetch-free call.
func recommendedApproach(available []transcript.Descriptor) string {
	for _, d := range available {
		if d.LanguageCode == "en" && d.Variant == transcript.VariantManual {
			return string(transcript.PriorityManualEnglish)
		}
	}
	for _, d := range available {
		if d.LanguageCode == "en" && d.Variant == transcript.VariantAuto {
			return string(transcript.PriorityAutoEnglish)
		}
	}
	for _, d := range available {
		if d.IsTranslatable {
			return string(transcript.PriorityManualTranslated)
		}
	}
	return string(apperr.KindNoTranscriptFound)
}

type processVideoRequest struct {
	VideoID         string                 `json:"video-id"`
	ForceRegenerate bool                   `json:"force-regenerate,omitempty"`
	LimitOverrides  map[config.LimitKey]int `json:"limit-overrides,omitempty"`
	StyleRequest
}

type processResult struct {
	ID         string              `json:"id"`
	VideoID    string              `json:"video-id,omitempty"`
	Title      string              `json:"title,omitempty"`
	Transcript string              `json:"transcript,omitempty"`
	Status     string              `json:"status"`
	Ideas      []content.Idea      `json:"ideas,omitempty"`
	Pieces     []*content.Artifact `json:"content-pieces,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}

func (s *Server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	var req processVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindInvalidVideoID, "decoding request body", err))
		return
	}
	if err := validateVideoID(req.VideoID); err != nil {
		writeError(w, err)
		return
	}
	style, err := s.resolveStyle(req.StyleRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	limits, err := s.resolveLimits(style, req.LimitOverrides)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), taskCeiling)
	defer cancel()
	result, err := s.processVideo(ctx, req.VideoID, req.ForceRegenerate, style, limits, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// processVideo runs transcript acquisition, ideation, and
// materialization end to end, optionally publishing progress to
// progress.Store under taskID for the streaming variant. Brain
// indexing is not on this critical path: it is enqueued as a
// best-effort follow-up task after the terminal complete event, so a
// slow or failing index call never blocks or fails the generation the
// caller is waiting on.
func (s *Server) processVideo(ctx context.Context, videoID string, forceRegenerate bool, style *config.Style, limits *config.FieldLimits, taskID *string) (*processResult, error) {
	publish := func(stage progress.Stage, pct int, msg string, payload interface{}) {
		if taskID != nil {
			s.progress.Set(*taskID, stage, pct, msg, payload)
		}
	}

	publish(progress.StageFetchingInfo, 5, "fetching transcript", nil)
	tr, err := s.acquirer.GetEnglish(ctx, videoID, transcript.DefaultPreferences())
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	publish(progress.StageTranscriptReady, 20, "transcript ready", nil)

	publish(progress.StageGeneratingContent, 35, "generating ideas", nil)
	ideas, err := s.ideation.Generate(ctx, tr.Text, style, limits)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	publish(progress.StageIdeasGenerated, 55, "ideas generated", ideas)

	publish(progress.StageCreatingContent, 65, "materializing content", nil)
	artifacts, warnings, err := s.materializer.Generate(ctx, ideas, videoID, tr.Text, style, limits)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	publish(progress.StageContentGenerated, 90, "content generated", nil)

	for _, a := range artifacts {
		if err := s.repo.PutArtifact(ctx, videoID, a); err != nil {
			return nil, wrapTimeout(ctx, err)
		}
	}

	publish(progress.StageFinalizing, 95, "finalizing", nil)
	result := &processResult{
		ID: videoID, VideoID: videoID, Title: videoID, Transcript: tr.Text,
		Status: "complete", Ideas: ideas, Pieces: artifacts, Warnings: warnings,
	}
	publish(progress.StageComplete, 100, "complete", result)

	s.indexBrainSourceAsync(&content.Source{ID: videoID, Kind: content.SourceVideo, Title: videoID, Text: tr.Text})

	return result, nil
}

func (s *Server) handleProcessVideoStream(w http.ResponseWriter, r *http.Request) {
	var req processVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindInvalidVideoID, "decoding request body", err))
		return
	}
	if err := validateVideoID(req.VideoID); err != nil {
		writeError(w, err)
		return
	}
	style, err := s.resolveStyle(req.StyleRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	limits, err := s.resolveLimits(style, req.LimitOverrides)
	if err != nil {
		writeError(w, err)
		return
	}

	taskID := s.tasks.Spawn(func(ctx context.Context, taskID string) error {
		ctx, cancel := context.WithTimeout(ctx, taskCeiling)
		defer cancel()
		_, err := s.processVideo(ctx, req.VideoID, req.ForceRegenerate, style, limits, &taskID)
		return err
	})

	streamUpdates(w, r, s.progress, taskID)
}

type bulkVideoRequest struct {
	VideoIDs []string `json:"video-ids"`
	StyleRequest
}

type bulkResult struct {
	VideoID string         `json:"video-id"`
	Result  *processResult `json:"result,omitempty"`
	Error   *errorBody     `json:"error,omitempty"`
}

// handleProcessVideosBulk runs each video strictly sequentially: every
// video call ultimately serializes on the single global Rate Limiter
// anyway, so parallelizing across videos buys nothing and only
// complicates per-item error isolation.
func (s *Server) handleProcessVideosBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindInvalidVideoID, "decoding request body", err))
		return
	}
	style, err := s.resolveStyle(req.StyleRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	limits, err := s.resolveLimits(style, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]bulkResult, 0, len(req.VideoIDs))
	for _, videoID := range req.VideoIDs {
		if err := validateVideoID(videoID); err != nil {
			results = append(results, bulkResult{VideoID: videoID, Error: &errorBody{Kind: string(apperr.KindOf(err)), Message: err.Error()}})
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), taskCeiling)
		result, err := s.processVideo(ctx, videoID, false, style, limits, nil)
		cancel()
		if err != nil {
			results = append(results, bulkResult{VideoID: videoID, Error: &errorBody{Kind: string(apperr.KindOf(err)), Message: err.Error()}})
			continue
		}
		results = append(results, bulkResult{VideoID: videoID, Result: result})
	}

	writeJSON(w, http.StatusOK, results)
}
