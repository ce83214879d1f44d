package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/brain"
	"github.com/hsnsaboor/repurpose/pkg/content"
)

type createSourceRequest struct {
	Kind      content.SourceKind `json:"kind"`
	Reference string             `json:"reference,omitempty"` // a URL, for kind "url"
	Text      string             `json:"text,omitempty"`      // raw text, for kind "raw"
	Title     string             `json:"title,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

// handleCreateSource creates a Source directly: kind "url" fetches and
// cleans a web page via the Document Parser's URL extractor; kind "raw"
// indexes the caller-supplied text as-is. Video and document sources are
// created through the dedicated ingestion endpoints instead, which run
// the full generation pipeline rather than indexing alone.
func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindTextTooShort, "decoding request body", err))
		return
	}

	text := req.Text
	title := req.Title
	metadata := req.Metadata
	if req.Kind == content.SourceURL {
		if req.Reference == "" {
			writeError(w, apperr.New(apperr.KindInvalidURL, "url sources require a reference"))
			return
		}
		extracted, err := s.urls.Extract(r.Context(), req.Reference)
		if err != nil {
			writeError(w, err)
			return
		}
		text = extracted.Text
		if title == "" {
			title = extracted.Title
		}
		if metadata == nil {
			metadata = extracted.Metadata
		}
	}

	src := &content.Source{ID: uuid.NewString(), Kind: req.Kind, Title: title, Text: text, Metadata: metadata}
	indexed, err := s.indexer.Index(r.Context(), src)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, indexed)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.repo.ListSources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	src, ok, err := s.repo.GetSource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperr.New(apperr.KindTaskNotFound, "source not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, src)
}

type patchSourceRequest struct {
	Title *string  `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func (s *Server) handlePatchSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	src, ok, err := s.repo.GetSource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperr.New(apperr.KindTaskNotFound, "source not found: "+id))
		return
	}

	var req patchSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindTextTooShort, "decoding request body", err))
		return
	}
	if req.Title != nil {
		src.Title = *req.Title
	}
	if req.Tags != nil {
		src.Tags = req.Tags
	}
	if err := s.repo.PutSource(r.Context(), src); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.repo.DeleteSource(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type brainSearchRequest struct {
	Query   string       `json:"query"`
	Filters brain.Filter `json:"filters"`
}

func (s *Server) handleBrainSearch(w http.ResponseWriter, r *http.Request) {
	var req brainSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindTextTooShort, "decoding request body", err))
		return
	}
	results, err := s.retriever.Search(r.Context(), req.Query, req.Filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type generateVisionRequest struct {
	Vision  string       `json:"vision"`
	Filters brain.Filter `json:"filters,omitempty"`
	StyleRequest
}

func (s *Server) handleBrainGenerateVision(w http.ResponseWriter, r *http.Request) {
	var req generateVisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindTextTooShort, "decoding request body", err))
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

	outcome, err := s.composer.Vision(r.Context(), req.Vision, req.Filters, style, limits)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, a := range outcome.Artifacts {
		if err := s.repo.PutArtifact(r.Context(), outcome.Session.ID, a); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, outcome)
}

type generateAutoRequest struct {
	SourceIDs []string            `json:"source-ids"`
	Mode      brain.FullAIVariant `json:"mode"`
	Count     int                 `json:"count,omitempty"`
	StyleRequest
}

func (s *Server) handleBrainGenerateAuto(w http.ResponseWriter, r *http.Request) {
	var req generateAutoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindTextTooShort, "decoding request body", err))
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

	outcome, err := s.composer.FullAI(r.Context(), req.SourceIDs, req.Mode, req.Count, style, limits)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, a := range outcome.Artifacts {
		if err := s.repo.PutArtifact(r.Context(), outcome.Session.ID, a); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, outcome)
}

type generateHybridRequest struct {
	UserSourceIDs []string        `json:"user-source-ids"`
	AIAugment     brain.AIAugment `json:"ai-augment"`
	Filters       brain.Filter    `json:"filters,omitempty"`
	StyleRequest
}

func (s *Server) handleBrainGenerateHybrid(w http.ResponseWriter, r *http.Request) {
	var req generateHybridRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindTextTooShort, "decoding request body", err))
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

	outcome, err := s.composer.Hybrid(r.Context(), req.UserSourceIDs, req.AIAugment, req.Filters, style, limits)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, a := range outcome.Artifacts {
		if err := s.repo.PutArtifact(r.Context(), outcome.Session.ID, a); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, outcome)
}
