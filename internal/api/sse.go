package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nexus-analytics/decision-intel/internal/events"
)

// handleSSE streams pipeline run events to the client as Server-Sent
// Events. Each subscriber gets an independent ring-buffered channel; a
// slow client drops its own oldest events and never affects a run.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	if s.bus == nil {
		respondError(w, http.StatusServiceUnavailable, "event bus not available")
		return
	}

	ctx := r.Context()
	eventCh := s.bus.Subscribe()
	defer s.bus.Unsubscribe(eventCh)

	s.logger.Info("SSE client connected", "remote_addr", r.RemoteAddr)

	s.sendSSEEvent(w, flusher, "connected", map[string]string{
		"status": "connected",
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE client disconnected", "remote_addr", r.RemoteAddr)
			return

		case event, ok := <-eventCh:
			if !ok {
				s.logger.Info("event bus closed, ending SSE stream")
				return
			}
			s.sendEventToClient(w, flusher, event)
		}
	}
}

// sendSSEEvent writes one event to the SSE stream.
func (s *Server) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	// SSE format: event: type\ndata: json\n\n
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

// sendEventToClient converts a run event to its SSE payload and sends it.
func (s *Server) sendEventToClient(w http.ResponseWriter, flusher http.Flusher, event events.Event) {
	var payload interface{}

	switch e := event.(type) {
	case events.RunStartedEvent:
		payload = map[string]interface{}{
			"run_id":    e.RunID(),
			"query":     e.Query,
			"timestamp": e.Timestamp(),
		}

	case events.RunStageEvent:
		payload = map[string]interface{}{
			"run_id":    e.RunID(),
			"stage":     e.Stage,
			"agent":     e.Agent,
			"timestamp": e.Timestamp(),
		}

	case events.RunCompletedEvent:
		payload = map[string]interface{}{
			"run_id":    e.RunID(),
			"result":    e.Result,
			"timestamp": e.Timestamp(),
		}

	case events.RunFailedEvent:
		payload = map[string]interface{}{
			"run_id":    e.RunID(),
			"stage":     e.Stage,
			"error":     e.Error,
			"timestamp": e.Timestamp(),
		}

	case events.SimulationEvent:
		payload = map[string]interface{}{
			"run_id":    e.RunID(),
			"scenario":  e.Scenario,
			"result":    e.Result,
			"timestamp": e.Timestamp(),
		}

	default:
		payload = map[string]interface{}{
			"run_id":    event.RunID(),
			"timestamp": event.Timestamp(),
		}
	}

	s.sendSSEEvent(w, flusher, event.EventType(), payload)
}
