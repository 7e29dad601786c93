package calibration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircalibration/backend/services/calibration-service/internal/models"
)

func TestBuildPayload(t *testing.T) {
	reading := &models.Reading{
		DeviceID:    "aq_01",
		Timestamp:   "2021-02-01T10:00:00Z",
		PM25:        models.Float(35.2),
		PM10:        models.Float(51),
		Temperature: models.Float(27.5),
		Humidity:    models.Float(61),
	}

	payload, err := BuildPayload(reading)
	require.NoError(t, err)

	assert.Equal(t, "2021-02-01T10:00:00Z", payload.Datetime)
	assert.Len(t, payload.RawValues, 5)
	assert.Equal(t, "aq_01", payload.RawValues[KeyDeviceID])
	assert.Equal(t, reading.PM25, payload.RawValues[KeyPM25])
	assert.Equal(t, reading.PM10, payload.RawValues[KeyPM10])
	assert.Equal(t, reading.Temperature, payload.RawValues[KeyTemperature])
	assert.Equal(t, reading.Humidity, payload.RawValues[KeyHumidity])
}

func TestBuildPayloadWireFormat(t *testing.T) {
	payload, err := BuildPayload(&models.Reading{
		DeviceID:  "aq_02",
		Timestamp: "2021-02-01T11:00:00Z",
		PM25:      models.Float(12.5),
		PM10:      models.Float(20),
	})
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"datetime": "2021-02-01T11:00:00Z",
		"raw_values": {
			"device_id": "aq_02",
			"pm2.5": 12.5,
			"pm10": 20,
			"temperature": null,
			"humidity": null
		}
	}`, string(data))
}

func TestBuildPayloadNilReading(t *testing.T) {
	_, err := BuildPayload(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
