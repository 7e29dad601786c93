package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"aircalibration/backend/services/calibration-service/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS calibrated_measurements (
		id               BIGSERIAL PRIMARY KEY,
		device_id        TEXT NOT NULL,
		datetime         TEXT NOT NULL,
		pm2_5            DOUBLE PRECISION,
		pm10             DOUBLE PRECISION,
		temperature      DOUBLE PRECISION,
		humidity         DOUBLE PRECISION,
		calibrated_value JSONB NOT NULL,
		calibrated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS calibrated_measurements_device_idx
		ON calibrated_measurements (device_id, calibrated_at DESC);
`

// CalibrationRepository persists calibrated measurements.
type CalibrationRepository struct {
	db *sql.DB
}

// NewCalibrationRepository returns repository.
func NewCalibrationRepository(db *sql.DB) *CalibrationRepository {
	return &CalibrationRepository{db: db}
}

// EnsureSchema creates the history table when missing.
func (r *CalibrationRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Insert stores a calibrated measurement and fills ID and CalibratedAt.
func (r *CalibrationRepository) Insert(ctx context.Context, m *models.CalibratedMeasurement) error {
	const query = `
		INSERT INTO calibrated_measurements (device_id, datetime, pm2_5, pm10, temperature, humidity, calibrated_value, calibrated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, calibrated_at
	`
	value := m.CalibratedValue
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return r.db.QueryRowContext(ctx, query,
		m.DeviceID,
		m.Datetime,
		m.PM25,
		m.PM10,
		m.Temperature,
		m.Humidity,
		string(value),
	).Scan(&m.ID, &m.CalibratedAt)
}

// ListByDevice returns the latest calibrated measurements for a device, newest first.
func (r *CalibrationRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.CalibratedMeasurement, error) {
	const query = `
		SELECT id, device_id, datetime, pm2_5, pm10, temperature, humidity, calibrated_value, calibrated_at
		FROM calibrated_measurements
		WHERE device_id = $1
		ORDER BY calibrated_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CalibratedMeasurement
	for rows.Next() {
		var (
			m     models.CalibratedMeasurement
			value []byte
		)
		if err := rows.Scan(
			&m.ID,
			&m.DeviceID,
			&m.Datetime,
			&m.PM25,
			&m.PM10,
			&m.Temperature,
			&m.Humidity,
			&value,
			&m.CalibratedAt,
		); err != nil {
			return nil, err
		}
		m.CalibratedValue = json.RawMessage(value)
		out = append(out, m)
	}
	return out, rows.Err()
}
