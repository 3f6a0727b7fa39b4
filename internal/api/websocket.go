package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/lumenhub-core/internal/events"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/config"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/logging"
)

// WebSocket defaults used when the stream config leaves a field unset.
const (
	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 16

	defaultPingInterval   = 30
	defaultPongTimeout    = 10
	defaultMaxMessageSize = 4096
)

// wsClient is one upgraded connection. Only writePump writes to conn.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *logging.Logger
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(s.cfg.CORS.AllowedOrigins) == 0 {
				return true
			}
			return s.isAllowedOrigin(origin)
		},
	}
}

// handleWebSocket mirrors /api/sse over a WebSocket. Every text frame is
// one {"type", "data"} message; the server sends protocol pings and
// closes with 1001 on shutdown. Client frames are read only to process
// pongs and detect disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	sub, done := s.openStream(userID, transportWebSocket)
	defer done()

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan []byte, wsSendBufferSize),
		logger: s.logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.pumpEvents(ctx, sub, client.send)
	}()
	go client.readPump(s.streamCfg, cancel)

	client.writePump(ctx, s.streamCfg)

	cancel()
	conn.Close()
	<-pumpDone
}

// pumpEvents feeds encoded messages to send until ctx is done. It closes
// send when the bus shuts down so writePump can say goodbye.
func (s *Server) pumpEvents(ctx context.Context, sub *events.Subscription, send chan<- []byte) {
	idle := secondsOr(s.streamCfg.PingInterval, defaultPingInterval)
	for {
		msg, err := s.nextMessage(ctx, sub, idle)
		if errors.Is(err, errIdle) {
			continue
		}
		if err != nil {
			if errors.Is(err, events.ErrClosed) {
				close(send)
			}
			return
		}

		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("encoding stream message failed", "error", err)
			continue
		}

		select {
		case send <- data:
		case <-ctx.Done():
			return
		}
	}
}

// readPump drains client frames and calls stop once the connection fails.
func (c *wsClient) readPump(cfg config.StreamConfig, stop context.CancelFunc) {
	defer stop()

	limit := cfg.MaxMessageSize
	if limit <= 0 {
		limit = defaultMaxMessageSize
	}
	c.conn.SetReadLimit(int64(limit))
	pingInterval := secondsOr(cfg.PingInterval, defaultPingInterval)
	pongWait := secondsOr(cfg.PongTimeout, defaultPongTimeout)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			} else {
				c.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client frame counts as liveness
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	}
}

// writePump writes queued messages and periodic pings until ctx is done,
// a write fails, or send is closed.
func (c *wsClient) writePump(ctx context.Context, cfg config.StreamConfig) {
	pingInterval := secondsOr(cfg.PingInterval, defaultPingInterval)
	pongWait := secondsOr(cfg.PongTimeout, defaultPongTimeout)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-c.send:
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
