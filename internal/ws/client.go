package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
)

// Client wraps one websocket connection. Writes are serialized so concurrent
// fanouts cannot interleave frames on the same socket.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	Info    ConnInfo

	// conversation ids this client joined, guarded by the hub mutex.
	subs map[string]bool
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{conn: conn, Info: info, subs: make(map[string]bool)}
}

// Send writes one event to the peer.
func (c *Client) Send(event models.ServerEvent) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(event)
}

// Ping sends a control ping with the given deadline.
func (c *Client) Ping(deadline time.Time) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
