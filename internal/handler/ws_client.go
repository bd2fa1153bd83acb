package handler

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JLSed/ShoeFreak-Admin/internal/config"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

// wsClient owns one WebSocket connection: a buffered send queue, a read
// pump feeding inbound frames to a handler, and a write pump with
// ping/pong keepalive.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	cfg  config.WebSocketConfig

	mu     sync.Mutex
	closed bool
}

func newWSClient(id string, conn *websocket.Conn, cfg config.WebSocketConfig) *wsClient {
	return &wsClient{
		id:   id,
		conn: conn,
		send: make(chan []byte, 256),
		cfg:  cfg,
	}
}

// readPump consumes inbound frames until the connection drops, then
// runs onClose. Must be the only reader of the connection.
func (c *wsClient) readPump(handle func([]byte), onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str("client_id", c.id).Msg("websocket read error")
			}
			break
		}
		handle(message)
	}
}

// writePump drains the send queue and keeps the connection alive.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue marshals and queues a frame. A full queue drops the frame;
// the client will resync from the next transcript snapshot.
func (c *wsClient) enqueue(frame interface{}) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	// Producers may still be in flight (the push feed's transcript
	// callback) when the read pump tears the client down, so the queue
	// is guarded rather than closed out from under them.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// closeSend stops the write pump. Safe to call more than once and
// concurrently with enqueue.
func (c *wsClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
