package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/progress"
)

// maxUploadBytes bounds the multipart body parsed in memory before the
// remainder spills to a temp file, matching net/http's own default.
const maxUploadBytes = 32 << 20

// parseDocumentUpload reads the "file" part of a multipart request into
// a temp file under the extracted extension, so document.Registry's
// path-based dispatch can run unmodified.
func parseDocumentUpload(r *http.Request) (path string, cleanup func(), err error) {
	if err = r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, apperr.Wrap(apperr.KindUnsupportedFormat, "parsing multipart form", err)
	}
	file, header, ferr := r.FormFile("file")
	if ferr != nil {
		return "", nil, apperr.Wrap(apperr.KindUnsupportedFormat, "reading uploaded file", ferr)
	}
	defer func() { _ = file.Close() }()

	tmp, terr := os.CreateTemp("", "repurpose-upload-*"+filepath.Ext(header.Filename))
	if terr != nil {
		return "", nil, apperr.Wrap(apperr.KindStorageUnavailable, "creating temp upload file", terr)
	}
	if _, cerr := io.Copy(tmp, file); cerr != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", nil, apperr.Wrap(apperr.KindUnsupportedFormat, "writing upload to disk", cerr)
	}
	_ = tmp.Close()

	return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, nil
}

func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := parseDocumentUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	styleReq, limitOverrides, err := styleFromForm(r)
	if err != nil {
		cleanup()
		writeError(w, err)
		return
	}

	style, err := s.resolveStyle(styleReq)
	if err != nil {
		writeError(w, err)
		return
	}
	limits, err := s.resolveLimits(style, limitOverrides)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), taskCeiling)
	defer cancel()
	result, err := s.processDocument(ctx, path, style, limits, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProcessDocumentStream(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := parseDocumentUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	styleReq, limitOverrides, err := styleFromForm(r)
	if err != nil {
		cleanup()
		writeError(w, err)
		return
	}
	style, err := s.resolveStyle(styleReq)
	if err != nil {
		cleanup()
		writeError(w, err)
		return
	}
	limits, err := s.resolveLimits(style, limitOverrides)
	if err != nil {
		cleanup()
		writeError(w, err)
		return
	}

	taskID := s.tasks.Spawn(func(ctx context.Context, taskID string) error {
		defer cleanup()
		ctx, cancel := context.WithTimeout(ctx, taskCeiling)
		defer cancel()
		_, err := s.processDocument(ctx, path, style, limits, &taskID)
		return err
	})

	streamUpdates(w, r, s.progress, taskID)
}

// styleFromForm reads the optional style-preset and per-key
// limit-overrides form fields into a StyleRequest. Custom styles beyond
// a named preset aren't supported over multipart — callers needing a
// full custom style block use the JSON video/Brain endpoints instead.
//
// Limit overrides arrive as individual fields named
// "limit-overrides[<key>]" (e.g. "limit-overrides[reel-title-max]=120")
// since a multipart body has no native nested-object shape. Every form
// value is a string, so decoding the collected map into
// map[config.LimitKey]int goes through config.DecodeLimitOverrides'
// weakly-typed mapstructure decode rather than encoding/json, which
// would reject a numeric string outright.
func styleFromForm(r *http.Request) (StyleRequest, map[config.LimitKey]int, error) {
	const prefix = "limit-overrides["
	raw := map[string]interface{}{}
	if r.MultipartForm != nil {
		for key, values := range r.MultipartForm.Value {
			if len(values) == 0 || !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "]") {
				continue
			}
			limitKey := key[len(prefix) : len(key)-1]
			raw[limitKey] = values[0]
		}
	}

	overrides, err := config.DecodeLimitOverrides(raw)
	if err != nil {
		return StyleRequest{}, nil, err
	}
	return StyleRequest{StylePreset: r.FormValue("style-preset")}, overrides, nil
}

// processDocument runs document extraction, ideation, and
// materialization end to end. As with processVideo, Brain indexing is
// deferred to a best-effort follow-up task after the terminal complete
// event rather than blocking the primary pipeline.
func (s *Server) processDocument(ctx context.Context, path string, style *config.Style, limits *config.FieldLimits, taskID *string) (*processResult, error) {
	publish := func(stage progress.Stage, pct int, msg string, payload interface{}) {
		if taskID != nil {
			s.progress.Set(*taskID, stage, pct, msg, payload)
		}
	}

	publish(progress.StageParsing, 10, "extracting document text", nil)
	extracted, err := s.documents.Extract(ctx, path)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	publish(progress.StageTextExtracted, 25, "text extracted", nil)

	sourceID := uuid.NewString()

	publish(progress.StageGeneratingContent, 40, "generating ideas", nil)
	ideas, err := s.ideation.Generate(ctx, extracted.Text, style, limits)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	publish(progress.StageIdeasGenerated, 60, "ideas generated", ideas)

	publish(progress.StageCreatingContent, 70, "materializing content", nil)
	artifacts, warnings, err := s.materializer.Generate(ctx, ideas, sourceID, extracted.Text, style, limits)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	publish(progress.StageContentGenerated, 90, "content generated", nil)

	for _, a := range artifacts {
		if err := s.repo.PutArtifact(ctx, sourceID, a); err != nil {
			return nil, wrapTimeout(ctx, err)
		}
	}

	publish(progress.StageFinalizing, 95, "finalizing", nil)
	result := &processResult{
		ID: sourceID, Title: extracted.Title, Transcript: extracted.Text,
		Status: "complete", Ideas: ideas, Pieces: artifacts, Warnings: warnings,
	}
	publish(progress.StageComplete, 100, "complete", result)

	s.indexBrainSourceAsync(&content.Source{ID: sourceID, Kind: content.SourceDocument, Title: extracted.Title, Text: extracted.Text, Metadata: extracted.Metadata})

	return result, nil
}
