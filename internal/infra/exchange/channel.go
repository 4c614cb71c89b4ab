package exchange

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haodong0616/velocity-client/internal/domain"
	"github.com/haodong0616/velocity-client/internal/event"
	"github.com/haodong0616/velocity-client/internal/infra"
)

const (
	handshakeTimeout = 10 * time.Second
	pingInterval     = 30 * time.Second
	readTimeout      = 60 * time.Second
)

// Handler consumes one decoded push event.
type Handler func(event.Event)

// Channel is the single persistent WebSocket to the backend. One physical
// connection exists at a time; all symbols and components share it.
//
// On socket close or error exactly one reconnect is scheduled after a fixed
// delay. Disconnect cancels the pending reconnect and suppresses further
// auto-reconnects until Connect is called again.
type Channel struct {
	url            string
	reconnectDelay time.Duration
	logger         *slog.Logger

	mu             sync.Mutex
	conn           *websocket.Conn
	connecting     bool
	suppressed     bool // manual disconnect: no auto-reconnect
	reconnectTimer *time.Timer
	writeMu        sync.Mutex

	handlersMu sync.RWMutex
	nextSubID  uint64
	handlers   map[event.Kind][]subscription
}

type subscription struct {
	id uint64
	fn Handler
}

// NewChannel creates a channel for the given ws:// or wss:// endpoint.
func NewChannel(url string, reconnectDelay time.Duration) *Channel {
	return &Channel{
		url:            url,
		reconnectDelay: reconnectDelay,
		logger:         slog.Default().With("module", "ws_channel"),
		handlers:       make(map[event.Kind][]subscription),
	}
}

// Connect opens the socket. Calling it while a connection is open or a dial
// is in flight is a no-op. A dial failure schedules the usual reconnect.
func (c *Channel) Connect() error {
	c.mu.Lock()
	if c.conn != nil || c.connecting {
		c.mu.Unlock()
		return nil
	}
	c.connecting = true
	c.suppressed = false
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(c.url, http.Header{})

	c.mu.Lock()
	c.connecting = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("connect failed", slog.Any("error", err))
		c.scheduleReconnect()
		return domain.NewNetworkError("connect", err)
	}
	if c.suppressed {
		// Disconnect raced the dial; drop the fresh socket.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	infra.GlobalMetrics.SetConnected(true)
	c.logger.Info("connected", slog.String("url", c.url))

	go c.readLoop(conn)
	go c.pingLoop(conn)
	return nil
}

// Disconnect closes the socket and cancels any pending reconnect. The
// channel stays down until Connect is called again.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.suppressed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	infra.GlobalMetrics.SetConnected(false)
}

// IsConnected reports whether a socket is currently open.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Subscribe registers a handler for one event kind and returns its id.
// Handlers for the same kind run in registration order.
func (c *Channel) Subscribe(kind event.Kind, fn Handler) uint64 {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.nextSubID++
	c.handlers[kind] = append(c.handlers[kind], subscription{id: c.nextSubID, fn: fn})
	return c.nextSubID
}

// Unsubscribe removes a previously registered handler.
func (c *Channel) Unsubscribe(kind event.Kind, id uint64) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	subs := c.handlers[kind]
	for i, s := range subs {
		if s.id == id {
			c.handlers[kind] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Send marshals and writes a message, fire-and-forget. Messages are silently
// dropped while the socket is not open; callers must not depend on delivery.
func (c *Channel) Send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("send marshal failed", slog.Any("error", err))
		return
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return // DROP
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Warn("send failed", slog.Any("error", err))
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.dropConnection(conn)
			return
		}
		c.handleMessage(msg)
	}
}

func (c *Channel) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		current := c.conn
		c.mu.Unlock()
		if current != conn {
			return
		}
		c.writeMu.Lock()
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		c.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (c *Channel) handleMessage(msg []byte) {
	ev, err := event.Decode(msg)
	if err != nil {
		infra.GlobalMetrics.RecordFrameDrop()
		c.logger.Debug("undecodable frame dropped", slog.Any("error", err))
		return
	}
	if ev == nil {
		return // unknown type, ignored
	}

	c.handlersMu.RLock()
	subs := make([]subscription, len(c.handlers[ev.Kind()]))
	copy(subs, c.handlers[ev.Kind()])
	c.handlersMu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// dropConnection tears down a dead socket and schedules the reconnect.
func (c *Channel) dropConnection(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	if c.conn != conn {
		// Already replaced or manually closed.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	infra.GlobalMetrics.SetConnected(false)
	c.logger.Warn("disconnected")
	c.scheduleReconnect()
}

// scheduleReconnect arms the single fixed-delay reconnect timer. A pending
// timer or a manual disconnect means no-op.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suppressed || c.reconnectTimer != nil {
		return
	}
	infra.GlobalMetrics.RecordReconnect()
	c.reconnectTimer = time.AfterFunc(c.reconnectDelay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		suppressed := c.suppressed
		c.mu.Unlock()
		if suppressed {
			return
		}
		c.logger.Info("reconnecting")
		c.Connect()
	})
}
