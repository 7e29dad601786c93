package models

import "strings"

// Characteristic keys reported by KCCA-style devices.
const (
	CharacteristicPM25        = "pm2_5ConcMass"
	CharacteristicPM10        = "pm10ConcMass"
	CharacteristicTemperature = "temperature"
	CharacteristicHumidity    = "relHumid"
)

// RawMeasurement is the record produced by device ingestion before normalization.
type RawMeasurement struct {
	ID              string                        `json:"_id"`
	Time            string                        `json:"time"`
	Device          string                        `json:"device"`
	DeviceCode      string                        `json:"deviceCode"`
	Average         string                        `json:"average"`
	Location        map[string]any                `json:"location"`
	Characteristics map[string]map[string]float64 `json:"characteristics"`
}

// Normalize maps the raw record onto a Reading. The device code wins over the
// device name when both are present. Absent characteristics stay nil.
func (m RawMeasurement) Normalize() Reading {
	deviceID := strings.TrimSpace(m.DeviceCode)
	if deviceID == "" {
		deviceID = strings.TrimSpace(m.Device)
	}
	return Reading{
		DeviceID:    deviceID,
		Timestamp:   m.Time,
		PM25:        m.characteristic(CharacteristicPM25),
		PM10:        m.characteristic(CharacteristicPM10),
		Temperature: m.characteristic(CharacteristicTemperature),
		Humidity:    m.characteristic(CharacteristicHumidity),
	}
}

func (m RawMeasurement) characteristic(name string) *float64 {
	values, ok := m.Characteristics[name]
	if !ok {
		return nil
	}
	if v, ok := values["value"]; ok {
		return Float(v)
	}
	if v, ok := values["raw"]; ok {
		return Float(v)
	}
	return nil
}
