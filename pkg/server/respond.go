package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
)

// writeJSON marshals v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the stable JSON shape for every failed request, keyed by
// the apperr.Kind taxonomy.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError maps err to its apperr.Kind (falling back to a generic
// internal error for anything untagged) and writes the matching HTTP
// status.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	body := errorBody{Kind: string(kind), Message: err.Error()}
	if kind == "" {
		body.Kind = "INTERNAL"
	}
	writeJSON(w, status, body)
}

// wrapTimeout maps a context deadline/cancellation into the matching
// apperr.Kind (TASK-TIMEOUT / TASK-CANCELLED) so a ceiling-bound
// pipeline step surfaces a specific, client-actionable kind instead of
// an opaque context error falling back to INTERNAL.
func wrapTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return apperr.Wrap(apperr.KindTaskTimeout, "task exceeded its time ceiling", err)
	case context.Canceled:
		return apperr.Wrap(apperr.KindTaskCancelled, "task was cancelled", err)
	default:
		return err
	}
}

// decodeJSON reads and decodes the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
