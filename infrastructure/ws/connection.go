package ws

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/event"
	"chat-live/errors"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	// CloseSessionReplaced tells a client that a newer connection of the same
	// user took over.
	CloseSessionReplaced = 4001
)

var _ contract.EventSink = (*Connection)(nil)

// Connection is the live handle of one admitted user. Outbound events are
// queued on a bounded buffer drained by a single writer goroutine, so a slow
// client never blocks fan-out.
type Connection struct {
	ID     string
	UserID domain.UserID

	log   *slog.Logger
	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

func NewConnection(log *slog.Logger, userID domain.UserID, ws *websocket.Conn, bufferSize int) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		log:    log,
		ws:     ws,
		send:   make(chan []byte, bufferSize),
		close:  make(chan struct{}),
	}
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Consume encodes the event and queues it without ever blocking, so the
// context is not consulted. A client whose buffer is full is disconnected to
// keep memory bounded.
func (c *Connection) Consume(_ context.Context, e event.DomainEvent) error {
	payload, err := json.Marshal(Envelope{Event: e.Name(), Data: e})
	if err != nil {
		return err
	}
	select {
	case <-c.close:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case <-c.close:
		return errors.ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.log.Warn("Send buffer full, dropping connection", "user_id", c.UserID, "connection_id", c.ID)
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.ErrBufferFull
	}
}

// Replaced closes the connection once a newer one of the same user is registered.
func (c *Connection) Replaced() {
	c.Close(CloseSessionReplaced, "session replaced")
}

// Close terminates the connection and stops the write loop. Calls after the
// first one are no-ops.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.close
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.log.Debug("Write failed", "connection_id", c.ID, "error", err)
				c.Close(websocket.CloseGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseGoingAway, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
