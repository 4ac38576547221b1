package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnConfig configures the single multiplexed socket a Runtime owns,
// per spec.md §4.9.1.
type ConnConfig struct {
	URL                string
	HandshakeTimeout   time.Duration
	HeartbeatInterval  time.Duration // default 30s, per §4.9.2
	PongTimeout        time.Duration // default 10s
	EnableCompression  bool
}

func (c ConnConfig) withDefaults() ConnConfig {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 10 * time.Second
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	return c
}

// conn wraps a single *websocket.Conn with a write mutex (gorilla
// requires serialized writers) and the heartbeat/pong-timeout machinery
// of spec.md §4.9.2, grounded on the teacher's readHandler/
// heartbeatHandler split in ws_order_manager.go.
type conn struct {
	cfg ConnConfig
	ws  *websocket.Conn

	writeMu sync.Mutex
}

func dial(ctx context.Context, cfg ConnConfig) (*conn, error) {
	cfg = cfg.withDefaults()
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		EnableCompression: cfg.EnableCompression,
	}
	ws, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", cfg.URL, err)
	}
	c := &conn{cfg: cfg, ws: ws}
	ws.SetReadDeadline(time.Now().Add(cfg.HeartbeatInterval + cfg.PongTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(cfg.HeartbeatInterval + cfg.PongTimeout))
		return nil
	})
	return c, nil
}

func (c *conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *conn) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(messageType, data)
}

func (c *conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (c *conn) readMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

func (c *conn) close() error {
	return c.ws.Close()
}
