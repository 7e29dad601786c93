package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := NewCalibration()

	m.ObserveRequest(OutcomeCalibrated, 20*time.Millisecond)
	m.ObserveRequest(OutcomeCalibrated, 30*time.Millisecond)
	m.ObserveRequest(OutcomeFallback, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeCalibrated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeFallback)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeError)))
}

func TestNilCalibrationIsNoop(t *testing.T) {
	var m *Calibration
	assert.NotPanics(t, func() {
		m.ObserveRequest(OutcomeError, time.Second)
		m.ObserveStreamEntry("acked")
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	m := NewCalibration()
	m.ObserveStreamEntry("acked")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `calibration_stream_entries_total{result="acked"} 1`)
}
