package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"aircalibration/backend/services/calibration-service/internal/models"
)

// Hub tracks feed subscribers and broadcasts calibrated measurements to them.
type Hub struct {
	mu           sync.Mutex
	clients      map[uint64]*Client
	nextID       uint64
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

// NewHub builds the feed hub.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		clients:      make(map[uint64]*Client),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for GET /ws/calibrated. Optional device_id narrows the feed.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.nextID++
	client := newClient(h.nextID, r.URL.Query().Get("device_id"), conn, h.pingInterval, h.writeTimeout, h.logger, h.remove)
	h.clients[client.id] = client
	h.mu.Unlock()

	h.logger.Info("feed subscriber connected",
		zap.Uint64("client_id", client.id),
		zap.String("device_id", client.deviceID),
	)

	go client.writePump()
	go client.readPump()
}

// Publish implements service.Publisher.
func (h *Hub) Publish(m models.CalibratedMeasurement) {
	data, err := json.Marshal(m)
	if err != nil {
		h.logger.Warn("failed to encode calibrated measurement", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.wants(m.DeviceID) {
			c.enqueue(data)
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run blocks until ctx is done, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}
