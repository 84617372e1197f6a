package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSEEmitter writes state views as Server-Sent Events.
type SSEEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEEmitter creates an SSEEmitter for the given ResponseWriter.
// Returns nil if the writer does not support flushing.
func NewSSEEmitter(w http.ResponseWriter) *SSEEmitter {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	return &SSEEmitter{w: w, flusher: f}
}

// Emit writes v as a "state" event and flushes.
func (e *SSEEmitter) Emit(v stateView) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: state\ndata: %s\n\n", data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}
