package models

// Reading is a normalized measurement submitted for calibration. Numeric fields
// are pointers so a missing value is carried through as JSON null.
type Reading struct {
	DeviceID    string   `json:"device_id"`
	Timestamp   string   `json:"timestamp"`
	PM25        *float64 `json:"pm2_5"`
	PM10        *float64 `json:"pm10"`
	Temperature *float64 `json:"internal_temperature"`
	Humidity    *float64 `json:"internal_humidity"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
