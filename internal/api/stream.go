package api

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/lumenhub-core/internal/events"
)

// Stream transports, as labelled in metrics.
const (
	transportSSE       = "sse"
	transportWebSocket = "websocket"
)

// errIdle is returned by nextMessage when no event arrived within the
// idle interval and the stream should send a keepalive.
var errIdle = errors.New("stream idle")

// openStream subscribes userID and counts the stream until the returned
// function is called.
func (s *Server) openStream(userID, transport string) (*events.Subscription, func()) {
	sub := s.bus.Subscribe(userID)
	s.streams.Add(1)
	s.metrics.StreamOpened(transport)
	s.logger.Debug("stream opened", "transport", transport, "user_id", userID)

	return sub, func() {
		sub.Close()
		s.streams.Add(-1)
		s.metrics.StreamClosed(transport)
		s.logger.Debug("stream closed", "transport", transport, "user_id", userID)
	}
}

// nextMessage waits up to idle for the next message. Lag is logged and
// skipped. Any other error ends the stream: ctx cancellation when the
// client goes away, events.ErrClosed on shutdown.
func (s *Server) nextMessage(ctx context.Context, sub *events.Subscription, idle time.Duration) (events.Message, error) {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, idle)
		msg, err := sub.Next(waitCtx)
		cancel()

		var lagged *events.LaggedError
		switch {
		case err == nil:
			return msg, nil
		case errors.As(err, &lagged):
			s.logger.Warn("stream subscriber lagged", "user_id", sub.UserID(), "skipped", lagged.Skipped)
			continue
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return events.Message{}, errIdle
		default:
			return events.Message{}, err
		}
	}
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
