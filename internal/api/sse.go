package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventWriter relays generation progress to the browser as server-sent
// events. Each event is flushed immediately so partial output renders while
// the model is still writing.
type EventWriter struct {
	w http.ResponseWriter
}

// NewEventWriter sets the SSE response headers and returns a writer. Call it
// only once the request is accepted; headers cannot be unsent.
func NewEventWriter(w http.ResponseWriter) *EventWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &EventWriter{w: w}
}

// WriteEvent sends one named event with a JSON payload.
func (s *EventWriter) WriteEvent(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}

	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Close terminates the event stream with the done sentinel.
func (s *EventWriter) Close() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
