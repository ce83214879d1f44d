package server

import (
	"net/http"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
)

type editContentRequest struct {
	SourceID       string      `json:"source-id"`
	ContentPieceID string      `json:"content-piece-id"`
	EditPrompt     string      `json:"edit-prompt"`
	ContentType    content.Type `json:"content-type"`
}

type editContentResponse struct {
	Success  bool              `json:"success"`
	Original *content.Artifact `json:"original"`
	Edited   *content.Artifact `json:"edited"`
	Changes  []string          `json:"changes"`
}

func (s *Server) handleEditContent(w http.ResponseWriter, r *http.Request) {
	var req editContentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Wrap(apperr.KindValidationFailed, "decoding request body", err))
		return
	}

	current, ok, err := s.repo.GetArtifact(r.Context(), req.ContentPieceID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperr.New(apperr.KindTaskNotFound, "content piece not found: "+req.ContentPieceID))
		return
	}
	if req.ContentType != "" && current.Kind != req.ContentType {
		writeError(w, apperr.New(apperr.KindValidationFailed, "content-type mismatch for "+req.ContentPieceID))
		return
	}

	style := &config.Style{}
	style.SetDefaults()

	result, err := s.editor.Edit(r.Context(), current, req.EditPrompt, style, s.limits)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.repo.PutArtifact(r.Context(), req.SourceID, result.After); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, editContentResponse{
		Success:  true,
		Original: result.Before,
		Edited:   result.After,
		Changes:  result.Changes,
	})
}
