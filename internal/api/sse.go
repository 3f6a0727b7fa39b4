package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/lumenhub-core/internal/events"
)

// defaultHeartbeat is used when stream.heartbeat_interval is unset.
const defaultHeartbeat = 30

// handleSSE streams state changes as server-sent events. Each frame is
//
//	event: LightUpdate
//	data: {"type":"LightUpdate","data":{...}}
//
// and a ": heartbeat" comment is sent after every idle interval.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	ctx := r.Context()

	// Streams outlive the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Debug("clearing write deadline failed", "error", err)
	}

	// Subscribe before the headers go out so a client that has seen the
	// response cannot miss an event.
	sub, done := s.openStream(userIDFromContext(ctx), transportSSE)
	defer done()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Warn("SSE not supported by response writer", "error", err)
		return
	}

	heartbeat := secondsOr(s.streamCfg.HeartbeatInterval, defaultHeartbeat)
	for {
		msg, err := s.nextMessage(ctx, sub, heartbeat)
		switch {
		case err == nil:
			if err := writeSSEMessage(w, msg); err != nil {
				return
			}
		case errors.Is(err, errIdle):
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
		default:
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// writeSSEMessage writes one event frame. Encoded JSON has no raw
// newlines, so a single data line suffices.
func writeSSEMessage(w http.ResponseWriter, msg events.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding stream message: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
	return err
}
