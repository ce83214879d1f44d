package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleTaskStream lets a caller reattach to an already-running task's
// event stream (e.g. after a dropped connection), reusing the same
// wire format every *-stream/ endpoint emits.
func (s *Server) handleTaskStream(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	streamUpdates(w, r, s.progress, taskID)
}
