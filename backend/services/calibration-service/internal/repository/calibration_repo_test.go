package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircalibration/backend/services/calibration-service/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *CalibrationRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewCalibrationRepository(db)
}

func TestInsert(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	m := &models.CalibratedMeasurement{
		DeviceID:        "d1",
		Datetime:        "2021-02-01T10:00:00Z",
		PM25:            models.Float(35.2),
		CalibratedValue: json.RawMessage(`12.4`),
	}

	mock.ExpectQuery(`INSERT INTO calibrated_measurements`).
		WithArgs("d1", "2021-02-01T10:00:00Z", m.PM25, nil, nil, nil, "12.4").
		WillReturnRows(sqlmock.NewRows([]string{"id", "calibrated_at"}).AddRow(int64(7), now))

	require.NoError(t, repo.Insert(context.Background(), m))
	assert.Equal(t, int64(7), m.ID)
	assert.Equal(t, now, m.CalibratedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDefaultsValueToNull(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO calibrated_measurements`).
		WithArgs("d1", "", nil, nil, nil, nil, "null").
		WillReturnRows(sqlmock.NewRows([]string{"id", "calibrated_at"}).AddRow(int64(1), time.Now()))

	require.NoError(t, repo.Insert(context.Background(), &models.CalibratedMeasurement{DeviceID: "d1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByDevice(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "device_id", "datetime", "pm2_5", "pm10", "temperature", "humidity", "calibrated_value", "calibrated_at",
	}).
		AddRow(int64(2), "d1", "2021-02-01T11:00:00Z", 30.0, 40.0, nil, nil, []byte(`"null"`), now).
		AddRow(int64(1), "d1", "2021-02-01T10:00:00Z", 35.2, 51.0, 27.5, 61.0, []byte(`12.4`), now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT id, device_id`).
		WithArgs("d1", 10).
		WillReturnRows(rows)

	out, err := repo.ListByDevice(context.Background(), "d1", 10)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, int64(2), out[0].ID)
	assert.JSONEq(t, `"null"`, string(out[0].CalibratedValue))
	assert.Nil(t, out[0].Temperature)
	require.NotNil(t, out[1].PM25)
	assert.Equal(t, 35.2, *out[1].PM25)
	assert.JSONEq(t, `12.4`, string(out[1].CalibratedValue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS calibrated_measurements`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
