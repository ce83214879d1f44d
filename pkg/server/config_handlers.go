package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
)

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.styles.List())
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	style, err := config.ResolvePreset(s.styles, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, style)
}

func (s *Server) handleDefaultFieldLimits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, config.DefaultFieldLimits().Snapshot())
}

func (s *Server) handleCurrentFieldLimits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.limits.Snapshot())
}

// handleContentSchema returns the JSON Schema reflected from the
// requested content type's artifact struct, so a client can render or
// validate against the exact shape the materializer targets.
func (s *Server) handleContentSchema(w http.ResponseWriter, r *http.Request) {
	t := content.Type(chi.URLParam(r, "type"))
	schema := content.Schema(t)
	if schema == nil {
		writeError(w, apperr.New(apperr.KindUnsupportedFormat, "unrecognized content type: "+string(t)))
		return
	}
	writeJSON(w, http.StatusOK, schema)
}
