package calibration

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"aircalibration/backend/services/calibration-service/internal/models"
)

// Resolver turns a reading into its calibrated value using a remote calibration service.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	endpoint  string
	transport Transport
	logger    *zap.Logger
}

// NewResolver returns a resolver posting to endpoint. An empty endpoint is accepted
// here and reported as ErrConfiguration on each Resolve call.
func NewResolver(endpoint string, transport Transport, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		endpoint:  strings.TrimSpace(endpoint),
		transport: transport,
		logger:    logger,
	}
}

// Endpoint returns the configured calibrate url.
func (r *Resolver) Endpoint() string {
	return r.endpoint
}

// Resolve returns the first calibrated value reported for the reading, or Sentinel
// when the service answers with no results or a status other than 200.
func (r *Resolver) Resolve(ctx context.Context, reading *models.Reading) (Value, error) {
	if reading == nil {
		return Value{}, ErrInvalidInput
	}
	if r.endpoint == "" {
		return Value{}, ErrConfiguration
	}

	payload, err := BuildPayload(reading)
	if err != nil {
		return Value{}, err
	}

	status, body, err := r.transport.Send(ctx, r.endpoint, payload)
	if err != nil {
		return Value{}, err
	}

	var results []Result
	if status == http.StatusOK {
		results, err = ParseResults(body)
		if err != nil {
			r.logger.Warn("calibration response rejected",
				zap.String("device_id", reading.DeviceID),
				zap.Error(err),
			)
			return Value{}, err
		}
	}

	if len(results) == 0 {
		r.logger.Debug("no calibration available",
			zap.String("device_id", reading.DeviceID),
			zap.Int("status", status),
		)
		return Sentinel, nil
	}

	value := results[0].CalibratedValue
	r.logger.Debug("calibration resolved",
		zap.String("device_id", reading.DeviceID),
		zap.Stringer("kind", value.Kind()),
		zap.Int("results", len(results)),
	)
	return value, nil
}
