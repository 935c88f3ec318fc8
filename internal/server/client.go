package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pingPeriod keeps idle connections alive through NAT and Wi-Fi power
	// saving, and surfaces dead peers as write errors.
	pingPeriod = 30 * time.Second

	// maxFrameSize bounds a single client frame (1 MiB).
	maxFrameSize = 1 << 20
)

// client is one live WebSocket connection.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, buf int) *client {
	return &client{
		id:   conn.RemoteAddr().String(),
		conn: conn,
		send: make(chan []byte, buf),
		done: make(chan struct{}),
	}
}

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

// enqueue queues data for the write pump without blocking.
func (c *client) enqueue(data []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// close tears down the transport. Safe to call more than once.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// shutdown sends a going-away close frame, best effort, then closes.
func (c *client) shutdown() {
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
		time.Now().Add(time.Second),
	)
	c.close()
}

// writePump drains the send queue into the connection and pings
// periodically. It exits when the client is closed or a write fails.
func (c *client) writePump(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("write failed", "client", c.id, "err", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				log.Debug("ping failed", "client", c.id, "err", err)
				return
			}
		}
	}
}
