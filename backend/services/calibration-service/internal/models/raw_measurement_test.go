package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawMeasurementNormalize(t *testing.T) {
	const raw = `{
		"_id": "5f1",
		"time": "2021-02-01T10:00:00Z",
		"device": "ANQ16PZJ",
		"deviceCode": "aq_01",
		"location": {"coordinates": [32.5, 0.3]},
		"characteristics": {
			"pm2_5ConcMass": {"value": 35.2, "raw": 40.1},
			"pm10ConcMass": {"raw": 51},
			"relHumid": {"value": 61.5},
			"no2Conc": {"value": 3}
		}
	}`

	var m RawMeasurement
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	r := m.Normalize()
	assert.Equal(t, "aq_01", r.DeviceID)
	assert.Equal(t, "2021-02-01T10:00:00Z", r.Timestamp)
	require.NotNil(t, r.PM25)
	assert.Equal(t, 35.2, *r.PM25)
	require.NotNil(t, r.PM10)
	assert.Equal(t, 51.0, *r.PM10)
	assert.Nil(t, r.Temperature)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 61.5, *r.Humidity)
}

func TestRawMeasurementNormalizeFallsBackToDevice(t *testing.T) {
	r := RawMeasurement{Device: " ANQ16PZJ "}.Normalize()
	assert.Equal(t, "ANQ16PZJ", r.DeviceID)
	assert.Nil(t, r.PM25)
}
