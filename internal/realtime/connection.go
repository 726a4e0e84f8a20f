package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// How long a teardown waits for the writer to flush queued frames
	// before force-closing the socket.
	closeFlushWait = 500 * time.Millisecond

	sendBufferSize = 256
)

var ErrConnectionClosed = errors.New("connection closed")

// Scope is the room a connection is dedicated to, or ScopeGlobal for a
// general-purpose session that receives events for all of the owner's
// subscribed lists.
type Scope string

const ScopeGlobal Scope = "global"

// RoomScope returns the scope for a session dedicated to one list.
func RoomScope(listID string) Scope {
	return Scope(listID)
}

func (s Scope) IsGlobal() bool {
	return s == ScopeGlobal
}

// Covers reports whether a connection with this scope should receive events
// for the given room. A connection scoped to a different room never does.
func (s Scope) Covers(room string) bool {
	return s == ScopeGlobal || string(s) == room
}

// Connection lifecycle states. Terminal is StateClosed; a new physical
// session always gets a brand-new Connection, never a resurrected one.
const (
	StateConnecting int32 = iota
	StateOpen
	StateClosing
	StateClosed
)

// Conn is the subset of *websocket.Conn the realtime package touches.
// Production code passes the upgraded gorilla connection; tests substitute
// an in-memory mock.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Connection is one physical session: a socket tagged with its owner and
// scope. A user may hold any number of them at once (tabs, devices), each
// with an independent scope.
type Connection struct {
	ID     string
	UserID string
	Scope  Scope

	conn Conn
	send chan []byte

	state   atomic.Int32
	started atomic.Bool

	// mu serializes sends on the channel against its close. A send that
	// slips past the state check while a teardown is in flight must land
	// before the close, never after.
	mu         sync.Mutex
	sendClosed bool

	// set under mu before the send channel is closed; the writer reads
	// them after draining, so the close frame trails every queued frame
	closeCode   int
	closeReason string

	writerDone chan struct{}
}

func newConnection(userID string, scope Scope, conn Conn) *Connection {
	c := &Connection{
		ID:         uuid.New().String(),
		UserID:     userID,
		Scope:      scope,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		closeCode:  websocket.CloseNormalClosure,
		writerDone: make(chan struct{}),
	}
	c.state.Store(StateConnecting)
	return c
}

// State returns the connection's lifecycle state.
func (c *Connection) State() int32 {
	return c.state.Load()
}

func (c *Connection) isClosed() bool {
	return c.state.Load() >= StateClosing
}

// enqueue hands a frame to the connection's writer. Delivery order is
// preserved because a single writer goroutine drains the channel. A full
// buffer means the peer stopped reading; the connection is declared dead.
//
// The state check and the channel send happen under mu so a concurrent
// teardown can never close the channel between them.
func (c *Connection) enqueue(data []byte) error {
	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		c.mu.Unlock()
		return nil
	default:
		c.mu.Unlock()
		slog.Warn("send buffer full, dropping connection",
			"connectionID", c.ID, "userID", c.UserID)
		c.closeWith(websocket.CloseGoingAway, "send buffer overflow")
		return ErrConnectionClosed
	}
}

// closeWith transitions the connection to CLOSING and arranges for the close
// frame to be written after all queued frames have been flushed. It is
// idempotent: only the first caller wins, later calls are no-ops.
//
// The call is synchronous: when it returns, the underlying socket is closed.
// A writer that will not flush within closeFlushWait is abandoned and the
// socket force-closed, so a stuck peer cannot stall a logout.
func (c *Connection) closeWith(code int, reason string) {
	if !c.state.CompareAndSwap(StateOpen, StateClosing) &&
		!c.state.CompareAndSwap(StateConnecting, StateClosing) {
		return
	}

	// the state is already CLOSING, so an enqueue that grabs mu first
	// bails on its state check; one that got in before us has already
	// completed its send
	c.mu.Lock()
	c.closeCode = code
	c.closeReason = reason
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
	c.mu.Unlock()

	if c.started.Load() {
		select {
		case <-c.writerDone:
		case <-time.After(closeFlushWait):
		}
	} else {
		// no writer running, write the close frame inline
		deadline := time.Now().Add(writeWait)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), deadline)
	}

	_ = c.conn.Close()
	c.state.Store(StateClosed)
}

// Close tears the connection down with an explicit close code. Callers
// outside the hub use it when a session must be refused after it was
// already registered.
func (c *Connection) Close(code int, reason string) {
	c.closeWith(code, reason)
}

// writePump drains the send channel onto the socket. There is exactly one
// writePump per connection, which is what guarantees per-connection frame
// ordering. It exits when the send channel closes, writing the recorded
// close frame after the last queued message.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// channel closed after the buffer drained; the close
				// frame trails everything that was queued before it
				deadline := time.Now().Add(writeWait)
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(c.closeCode, c.closeReason), deadline)
				return
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("write failed",
					"connectionID", c.ID, "userID", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			if c.isClosed() {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads raw frames off the socket and hands them to handle until
// the peer goes away or the connection is torn down.
func (c *Connection) readPump(handle func(raw []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("websocket error",
					"connectionID", c.ID, "userID", c.UserID, "error", err)
			} else {
				slog.Debug("websocket closed",
					"connectionID", c.ID, "userID", c.UserID, "error", err)
			}
			return
		}
		if c.isClosed() {
			return
		}
		handle(raw)
	}
}
