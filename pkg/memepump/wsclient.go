package memepump

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnState is the lifecycle state of the streaming connection.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateOpen
	StateClosed
	StateErrored
	StateStopped // terminal, no reconnect is ever scheduled again
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateErrored:
		return "ERRORED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// WSConfig configures the streaming connection.
type WSConfig struct {
	// ReconnectDelay is the fixed delay between a close and the next connect attempt.
	ReconnectDelay time.Duration
	// HandshakeTimeout bounds the websocket opening handshake.
	HandshakeTimeout time.Duration
	// PingInterval enables keepalive pings when > 0. The read deadline is
	// twice the interval and is refreshed by every pong and message.
	PingInterval time.Duration
}

// DefaultWSConfig returns default streaming configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:   3 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// WSClient owns the streaming connection to the memepump server and keeps it
// alive: every close schedules exactly one reconnect after ReconnectDelay until
// Stop is called. Frames are handed to the message handler one at a time, in
// arrival order, from a single reader goroutine per connection.
type WSClient struct {
	url    string
	cfg    WSConfig
	dialer *websocket.Dialer
	logger *zap.Logger

	handler func([]byte)
	onState func(ConnState)

	// deliverMu is held for reading while a frame is handed to the handler
	// and for writing by Stop, so no frame is delivered once Stop returns.
	deliverMu sync.RWMutex

	mu             sync.Mutex
	state          ConnState
	conn           *websocket.Conn
	reconnectTimer *time.Timer
	dialCancel     context.CancelFunc
}

// NewWSClient creates a streaming client for url. It does not connect until Start.
func NewWSClient(url string, cfg WSConfig, logger *zap.Logger) *WSClient {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultWSConfig().ReconnectDelay
	}
	return &WSClient{
		url:    url,
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		logger: logger,
		state:  StateIdle,
	}
}

// SetMessageHandler sets the function to handle incoming frames. Call before
// Start. The handler must not call Stop.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// SetStateHandler registers a hook called on every state transition. Call before
// Start. The hook runs with the client's lock held and must not call back into the client.
func (c *WSClient) SetStateHandler(h func(ConnState)) {
	c.onState = h
}

// State returns the current connection state.
func (c *WSClient) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens the connection. It is a no-op unless the client is Idle.
func (c *WSClient) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return
	}
	c.connectLocked()
}

// Stop cancels any pending reconnect, closes the active connection and moves
// the client to the terminal Stopped state. A frame already being handled
// finishes first; none is delivered after Stop returns. It is idempotent.
func (c *WSClient) Stop() {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return
	}
	c.setStateLocked(StateStopped)

	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	if c.conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = c.conn.Close()
		c.conn = nil
	}
	c.logger.Info("WebSocket stopped", zap.String("url", c.url))
}

func (c *WSClient) setStateLocked(s ConnState) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *WSClient) connectLocked() {
	c.setStateLocked(StateConnecting)

	ctx, cancel := context.WithCancel(context.Background())
	c.dialCancel = cancel
	go c.dial(ctx, cancel)
}

func (c *WSClient) dial(ctx context.Context, cancel context.CancelFunc) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialCancel = nil

	if c.state == StateStopped {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.logger.Warn("Failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
		c.setStateLocked(StateErrored)
		c.scheduleReconnectLocked()
		return
	}

	if c.cfg.PingInterval > 0 {
		wait := 2 * c.cfg.PingInterval
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wait))
		})
		go c.pingLoop(conn)
	}

	c.conn = conn
	c.setStateLocked(StateOpen)
	c.logger.Info("WebSocket connected", zap.String("url", c.url))

	go c.readLoop(conn)
}

func (c *WSClient) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}
		if c.cfg.PingInterval > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(2 * c.cfg.PingInterval))
		}
		if !c.deliver(conn, msg) {
			return
		}
	}
}

// deliver hands msg to the handler if conn is still the live connection.
func (c *WSClient) deliver(conn *websocket.Conn, msg []byte) bool {
	c.deliverMu.RLock()
	defer c.deliverMu.RUnlock()

	if !c.isCurrent(conn) {
		return false
	}
	if c.handler != nil {
		c.handler(msg)
	}
	return true
}

func (c *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !c.isCurrent(conn) {
			return
		}
		deadline := time.Now().Add(c.cfg.PingInterval)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			c.logger.Warn("WebSocket ping failed", zap.Error(err))
			// the reader observes the close and drives the transition
			_ = conn.Close()
			return
		}
	}
}

func (c *WSClient) isCurrent(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == conn
}

// handleClose runs once per connection, from its reader goroutine.
func (c *WSClient) handleClose(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		return
	}
	c.conn = nil
	_ = conn.Close()

	if c.state == StateStopped {
		return
	}
	c.logger.Info("WebSocket disconnected, reconnecting...",
		zap.Duration("delay", c.cfg.ReconnectDelay), zap.Error(cause))
	c.setStateLocked(StateClosed)
	c.scheduleReconnectLocked()
}

func (c *WSClient) scheduleReconnectLocked() {
	if c.reconnectTimer != nil {
		return
	}
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectDelay, c.reconnect)
}

// reconnect is the timer callback. As a method value it always runs the
// client's current connect path, however many cycles have passed.
func (c *WSClient) reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconnectTimer = nil
	if c.state != StateClosed && c.state != StateErrored {
		return
	}
	c.connectLocked()
}
