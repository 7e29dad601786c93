package models

import (
	"encoding/json"
	"time"
)

// CalibratedMeasurement is a reading together with its resolved calibrated value.
// CalibratedValue holds the JSON encoding of the value (a number, a string or null).
type CalibratedMeasurement struct {
	ID              int64           `db:"id" json:"id,omitempty"`
	DeviceID        string          `db:"device_id" json:"device_id"`
	Datetime        string          `db:"datetime" json:"datetime"`
	PM25            *float64        `db:"pm2_5" json:"pm2_5"`
	PM10            *float64        `db:"pm10" json:"pm10"`
	Temperature     *float64        `db:"temperature" json:"temperature"`
	Humidity        *float64        `db:"humidity" json:"humidity"`
	CalibratedValue json.RawMessage `db:"calibrated_value" json:"calibrated_value"`
	CalibratedAt    time.Time       `db:"calibrated_at" json:"calibrated_at"`
}
