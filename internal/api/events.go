package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleEvents streams fleet events to the dashboard as server-sent
// events.
//
// Each event is one `data:` frame holding the JSON-encoded event. The
// connection stays open until the client disconnects or the server
// shuts down; slow clients are dropped by the broadcaster rather than
// allowed to stall everyone else.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternalError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Stops nginx from buffering the stream when proxied.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id, ch := s.events.Subscribe()
	defer s.events.Unsubscribe(id)

	s.logger.Debug("event stream opened", "subscriber_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("event stream closed by client", "subscriber_id", id)
			return

		case evt, ok := <-ch:
			if !ok {
				// Dropped by the broadcaster or server shutdown.
				s.logger.Debug("event stream closed by server", "subscriber_id", id)
				return
			}

			payload, err := json.Marshal(evt)
			if err != nil {
				s.logger.Warn("failed to encode event", "type", evt.Type, "error", err)
				continue
			}

			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
