package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Connection wraps one subscriber socket. Writes are serialized; gorilla
// connections do not allow concurrent writers.
type Connection struct {
	conn      *websocket.Conn
	clientID  string
	feedKey   string
	writeLock sync.Mutex
}

func NewConnection(conn *websocket.Conn, clientID, feedKey string) *Connection {
	return &Connection{
		conn:     conn,
		clientID: clientID,
		feedKey:  feedKey,
	}
}

func (c *Connection) Send(message interface{}) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) ClientID() string {
	return c.clientID
}

func (c *Connection) FeedKey() string {
	return c.feedKey
}
