package calibration

import "aircalibration/backend/services/calibration-service/internal/models"

// Keys of the raw_values object sent to the calibration service.
const (
	KeyDeviceID    = "device_id"
	KeyPM25        = "pm2.5"
	KeyPM10        = "pm10"
	KeyTemperature = "temperature"
	KeyHumidity    = "humidity"
)

// Payload is the request body of a calibration call.
type Payload struct {
	Datetime  string         `json:"datetime"`
	RawValues map[string]any `json:"raw_values"`
}

// BuildPayload copies the reading into the wire shape without validating values.
func BuildPayload(reading *models.Reading) (Payload, error) {
	if reading == nil {
		return Payload{}, ErrInvalidInput
	}
	return Payload{
		Datetime: reading.Timestamp,
		RawValues: map[string]any{
			KeyDeviceID:    reading.DeviceID,
			KeyPM25:        reading.PM25,
			KeyPM10:        reading.PM10,
			KeyTemperature: reading.Temperature,
			KeyHumidity:    reading.Humidity,
		},
	}, nil
}
