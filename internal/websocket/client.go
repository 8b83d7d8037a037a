package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Subscribers only listen, so anything larger than a control frame is abuse
	maxReadBytes = 256

	// Events queued for a subscriber before it counts as too slow
	sendQueueSize = 32
)

// Client is one websocket subscriber of the import event stream
type Client struct {
	id     string
	conn   *websocket.Conn
	hub    *Hub
	queue  chan []byte
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	id := uuid.New().String()
	return &Client{
		id:     id,
		conn:   conn,
		hub:    hub,
		queue:  make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		logger: hub.logger.With().Str("client_id", id).Logger(),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// Send queues data without blocking. A full queue means the peer is too slow.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.queue <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close sends a going-away frame and closes the connection. Safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait),
		)
		err = c.conn.Close()
	})
	return err
}

// Serve streams queued events to the peer until either side goes away. It
// blocks, and unregisters the client from the hub on return.
func (c *Client) Serve() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	go c.writeLoop()
	c.readLoop()
}

// readLoop discards incoming frames and keeps the read deadline alive on pongs
func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("Subscriber connection lost")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Msg("Event write failed")
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		}
	}
}
