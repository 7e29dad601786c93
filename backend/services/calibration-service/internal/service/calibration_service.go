package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"aircalibration/backend/libs/metrics"
	"aircalibration/backend/services/calibration-service/internal/calibration"
	"aircalibration/backend/services/calibration-service/internal/models"
)

// ErrHistoryDisabled is returned by History when no repository is configured.
var ErrHistoryDisabled = errors.New("calibration history is disabled")

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Resolver resolves a calibrated value for one reading.
type Resolver interface {
	Resolve(ctx context.Context, reading *models.Reading) (calibration.Value, error)
}

// Repository stores calibrated measurements.
type Repository interface {
	Insert(ctx context.Context, m *models.CalibratedMeasurement) error
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.CalibratedMeasurement, error)
}

// Publisher fans calibrated measurements out to live subscribers.
type Publisher interface {
	Publish(m models.CalibratedMeasurement)
}

// CalibrationService resolves readings and records the outcome.
type CalibrationService struct {
	resolver  Resolver
	repo      Repository
	publisher Publisher
	metrics   *metrics.Calibration
	logger    *zap.Logger
	now       func() time.Time
}

// NewCalibrationService returns service instance. repo, publisher and m may be nil.
func NewCalibrationService(resolver Resolver, repo Repository, publisher Publisher, m *metrics.Calibration, logger *zap.Logger) *CalibrationService {
	return &CalibrationService{
		resolver:  resolver,
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Calibrate resolves the reading. Persistence and publishing are best-effort.
func (s *CalibrationService) Calibrate(ctx context.Context, reading *models.Reading) (models.CalibratedMeasurement, calibration.Value, error) {
	started := s.now()
	value, err := s.resolver.Resolve(ctx, reading)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.metrics.ObserveRequest(metrics.OutcomeError, elapsed)
		return models.CalibratedMeasurement{}, calibration.Value{}, err
	}

	outcome := metrics.OutcomeCalibrated
	if value.IsSentinel() {
		outcome = metrics.OutcomeFallback
	}
	s.metrics.ObserveRequest(outcome, elapsed)

	encoded, err := json.Marshal(value)
	if err != nil {
		return models.CalibratedMeasurement{}, calibration.Value{}, err
	}

	measurement := models.CalibratedMeasurement{
		DeviceID:        reading.DeviceID,
		Datetime:        reading.Timestamp,
		PM25:            reading.PM25,
		PM10:            reading.PM10,
		Temperature:     reading.Temperature,
		Humidity:        reading.Humidity,
		CalibratedValue: encoded,
		CalibratedAt:    s.now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.Insert(ctx, &measurement); err != nil {
			s.logger.Warn("failed to store calibrated measurement",
				zap.String("device_id", reading.DeviceID),
				zap.Error(err),
			)
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(measurement)
	}

	return measurement, value, nil
}

// History returns stored calibrations for a device, newest first.
func (s *CalibrationService) History(ctx context.Context, deviceID string, limit int) ([]models.CalibratedMeasurement, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListByDevice(ctx, deviceID, limit)
}
