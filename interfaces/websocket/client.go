package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024

	// Send buffer size per viewer
	sendBufferSize = 64
)

// Client is one connected log-stream viewer. The stream is one-way: viewers
// only receive lines, anything they send besides control frames is ignored.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

// NewClient creates a viewer connection around an upgraded socket.
func NewClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(zap.String("connectionID", id)),
	}
}

// Start registers the viewer, queues the greeting line and starts the pumps.
// The greeting goes first: once readPump runs, a dropped connection can make
// the hub close the send channel at any moment.
func (c *Client) Start() {
	c.hub.register <- c
	c.sendGreeting()

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection so pong handlers run and close frames are
// noticed.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("log stream read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps lines from the hub to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case line, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, line); err != nil {
				c.logger.Debug("failed to write log line", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendGreeting confirms the subscription on the viewer's own stream.
func (c *Client) sendGreeting() {
	line := formatLine("INFO", "Connected to live log stream")
	select {
	case c.send <- []byte(line):
	default:
	}
}

// ID returns the viewer's connection ID.
func (c *Client) ID() string {
	return c.id
}
