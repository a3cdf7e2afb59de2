package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeTimeout bounds each event write so a stalled client cannot wedge
// the countdown goroutine.
const writeTimeout = 10 * time.Second

// Conn wraps an upgraded connection with a write mutex. The countdown
// goroutine pushes ticks alongside the read loop's acks, and gorilla
// connections allow only one concurrent writer.
type Conn struct {
	raw *websocket.Conn
	mu  sync.Mutex
}

// Wrap prepares an upgraded connection for concurrent event writes.
func Wrap(raw *websocket.Conn) *Conn {
	return &Conn{raw: raw}
}

// WriteEvent sends a typed server event.
func (c *Conn) WriteEvent(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.raw.WriteJSON(v)
}

// WriteError sends an ErrorResponse. The write error is discarded; a dead
// connection surfaces on the read loop's next read.
func (c *Conn) WriteError(msg string) {
	_ = c.WriteEvent(ErrorResponse{Event: EventError, Error: msg})
}
