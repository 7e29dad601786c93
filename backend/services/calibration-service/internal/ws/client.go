package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit = 4 * 1024
	pongWait  = 60 * time.Second
)

// Client is one subscriber of the calibrated measurement feed.
type Client struct {
	id           uint64
	deviceID     string
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	onClose      func(id uint64)
}

func newClient(id uint64, deviceID string, ws *websocket.Conn, pingInterval, writeTimeout time.Duration, logger *zap.Logger, onClose func(uint64)) *Client {
	return &Client{
		id:           id,
		deviceID:     deviceID,
		ws:           ws,
		send:         make(chan []byte, 16),
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		onClose:      onClose,
	}
}

// wants reports whether the client subscribed to the device. Empty filter means all devices.
func (c *Client) wants(deviceID string) bool {
	return c.deviceID == "" || c.deviceID == deviceID
}

// readPump only drains control frames; subscribers do not send data.
func (c *Client) readPump() {
	defer c.cleanup()
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("subscriber read closed", zap.Uint64("client_id", c.id), zap.Error(err))
			return
		}
	}
}

// writePump is the only writer of the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("subscriber write failed", zap.Uint64("client_id", c.id), zap.Error(err))
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

// enqueue drops the message when the subscriber is too slow.
func (c *Client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping calibrated measurement, subscriber buffer full", zap.Uint64("client_id", c.id))
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Client) cleanup() {
	if c.onClose != nil {
		c.onClose(c.id)
	}
	_ = c.ws.Close()
}
