package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hsnsaboor/repurpose/pkg/progress"
)

// sseEvent is the wire payload of the streaming protocol: one `data: <json>\n\n`
// line per published Update.
type sseEvent struct {
	TaskID    string      `json:"task-id"`
	Status    string      `json:"status"`
	Progress  int         `json:"progress"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// flusher is satisfied by any ResponseWriter whose underlying transport
// supports incremental writes, the same http.Flusher contract a
// transport middleware must preserve across its own
// responseWriter wrapper.
type flusher interface {
	http.ResponseWriter
	http.Flusher
}

// streamUpdates writes the latest state then every subsequent Update
// published for taskID as an SSE event, terminating after a terminal
// stage is observed or the request context is cancelled.
func streamUpdates(w http.ResponseWriter, r *http.Request, store *progress.Store, taskID string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fw, ok := w.(flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := store.Subscribe(taskID)

	for {
		select {
		case <-r.Context().Done():
			return
		case u, open := <-ch:
			if !open {
				return
			}
			writeSSE(fw, u)
			if progress.IsTerminal(u.Stage) {
				return
			}
		}
	}
}

func writeSSE(fw flusher, u progress.Update) {
	ev := sseEvent{
		TaskID:    u.TaskID,
		Status:    string(u.Stage),
		Progress:  u.Progress,
		Message:   u.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      u.Payload,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fw.Write([]byte("data: "))
	_, _ = fw.Write(payload)
	_, _ = fw.Write([]byte("\n\n"))
	fw.Flush()
}
