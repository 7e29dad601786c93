package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aircalibration/backend/services/calibration-service/internal/models"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/calibrated" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(time.Minute, time.Second, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForSubscribers(t, hub, 1)

	hub.Publish(models.CalibratedMeasurement{
		DeviceID:        "d1",
		Datetime:        "2021-02-01T10:00:00Z",
		CalibratedValue: json.RawMessage(`12.4`),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.CalibratedMeasurement
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "d1", got.DeviceID)
	assert.JSONEq(t, `12.4`, string(got.CalibratedValue))
}

func TestHubDeviceFilter(t *testing.T) {
	hub := NewHub(time.Minute, time.Second, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv, "?device_id=d2")
	waitForSubscribers(t, hub, 1)

	hub.Publish(models.CalibratedMeasurement{DeviceID: "d1", CalibratedValue: json.RawMessage(`1`)})
	hub.Publish(models.CalibratedMeasurement{DeviceID: "d2", CalibratedValue: json.RawMessage(`2`)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.CalibratedMeasurement
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "d2", got.DeviceID)
}

func TestHubRemovesClosedSubscribers(t *testing.T) {
	hub := NewHub(time.Minute, time.Second, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForSubscribers(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForSubscribers(t, hub, 0)
}

func TestHubRunClosesSubscribersOnShutdown(t *testing.T) {
	hub := NewHub(time.Minute, time.Second, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForSubscribers(t, hub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	assert.Equal(t, 0, hub.Count())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "got %v", err)
}
