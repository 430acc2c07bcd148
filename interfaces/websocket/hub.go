package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"omnichannel/application/ports"

	"go.uber.org/zap"
)

// Hub maintains the set of live log-stream connections and fans notification
// lines out to all of them. It implements the NotificationSink port: Notify
// enqueues and returns immediately, so repository calls are never held up by
// a slow or absent viewer.
type Hub struct {
	connections map[*Client]bool
	mu          sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	dropped int64
}

// NewHub creates a new log-stream hub. Call Run to start the event loop.
func NewHub(logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		connections: make(map[*Client]bool),
		register:    make(chan *Client, 16),
		unregister:  make(chan *Client, 16),
		broadcast:   make(chan []byte, 256),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Run starts the hub's main event loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("log hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case line := <-h.broadcast:
			h.broadcastLine(line)
		}
	}
}

// Stop gracefully shuts down the hub.
func (h *Hub) Stop() {
	h.cancel()
}

// Notify formats the message as a log line and hands it to the broadcast
// loop. When the buffer is full the line is dropped rather than blocking the
// caller.
func (h *Hub) Notify(ctx context.Context, message string, severity ports.Severity) {
	select {
	case h.broadcast <- []byte(formatLine(string(severity), message)):
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.logger.Warn("log line dropped, broadcast buffer full",
			zap.String("severity", string(severity)),
		)
	}
}

// formatLine renders a stream line as "[SEVERITY] HH:MM:SS - message".
func formatLine(severity, message string) string {
	return fmt.Sprintf("[%s] %s - %s", severity, time.Now().Format("15:04:05"), message)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.connections[client] = true
	count := len(h.connections)
	h.mu.Unlock()

	h.logger.Info("log stream viewer connected",
		zap.String("connectionID", client.id),
		zap.Int("viewers", count),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[client]; !ok {
		return
	}
	delete(h.connections, client)
	close(client.send)

	h.logger.Info("log stream viewer disconnected",
		zap.String("connectionID", client.id),
		zap.Int("viewers", len(h.connections)),
	)
}

// broadcastLine delivers a line to every connection. A viewer whose send
// buffer is full is considered stalled and gets disconnected.
func (h *Hub) broadcastLine(line []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.connections))
	for client := range h.connections {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- line:
		default:
			h.logger.Warn("disconnecting stalled log stream viewer",
				zap.String("connectionID", client.id),
			)
			go func(c *Client) {
				h.unregister <- c
				c.conn.Close()
			}(client)
		}
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.connections {
		close(client.send)
		client.conn.Close()
		delete(h.connections, client)
	}
}

// ConnectionCount returns the number of connected viewers.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

var _ ports.NotificationSink = (*Hub)(nil)
