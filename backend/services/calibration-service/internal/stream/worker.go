package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"aircalibration/backend/libs/metrics"
	"aircalibration/backend/services/calibration-service/internal/calibration"
	"aircalibration/backend/services/calibration-service/internal/models"
)

// PayloadField is the stream entry field carrying the JSON document.
const PayloadField = "payload"

// Stream entry results, used as metric labels.
const (
	resultCalibrated = "calibrated"
	resultInvalid    = "invalid"
	resultRejected   = "rejected"
	resultPending    = "pending"
)

const (
	readCount        = 10
	defaultClaimIdle = 30 * time.Second
	errorBackoff     = time.Second
	busyGroupText    = "BUSYGROUP"
)

// Calibrator resolves and records one reading.
type Calibrator interface {
	Calibrate(ctx context.Context, reading *models.Reading) (models.CalibratedMeasurement, calibration.Value, error)
}

// Options names the streams and consumer group used by the worker.
type Options struct {
	Input     string
	Output    string
	Group     string
	Consumer  string
	Block     time.Duration
	// ClaimIdle is how long an entry stays pending before it is claimed and retried.
	ClaimIdle time.Duration
}

// Worker consumes raw measurements from a Redis stream and publishes calibrated ones.
type Worker struct {
	client     *redis.Client
	calibrator Calibrator
	opts       Options
	metrics    *metrics.Calibration
	logger     *zap.Logger
}

// NewWorker returns stream worker.
func NewWorker(client *redis.Client, calibrator Calibrator, opts Options, m *metrics.Calibration, logger *zap.Logger) *Worker {
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	if opts.ClaimIdle <= 0 {
		opts.ClaimIdle = defaultClaimIdle
	}
	return &Worker{
		client:     client,
		calibrator: calibrator,
		opts:       opts,
		metrics:    m,
		logger:     logger,
	}
}

// EnsureGroup creates the consumer group (and the input stream) if missing.
func (w *Worker) EnsureGroup(ctx context.Context) error {
	err := w.client.XGroupCreateMkStream(ctx, w.opts.Input, w.opts.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), busyGroupText) {
		return err
	}
	return nil
}

// Run processes entries until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.EnsureGroup(ctx); err != nil {
		return err
	}
	w.logger.Info("stream worker started",
		zap.String("input", w.opts.Input),
		zap.String("output", w.opts.Output),
		zap.String("group", w.opts.Group),
	)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.ProcessOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn("stream read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
		}
	}
}

// ProcessOnce retries entries left pending for at least ClaimIdle, then reads one
// batch of new entries. It returns the number of entries handled.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	n, err := w.reclaim(ctx)
	if err != nil {
		return n, err
	}

	streams, err := w.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.opts.Group,
		Consumer: w.opts.Consumer,
		Streams:  []string{w.opts.Input, ">"},
		Count:    readCount,
		Block:    w.opts.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return n, nil
	}
	if err != nil {
		return n, err
	}

	for _, s := range streams {
		for _, msg := range s.Messages {
			n++
			w.handle(ctx, msg)
		}
	}
	return n, nil
}

// reclaim takes over idle pending entries of any consumer in the group, including
// entries this consumer left pending after a failed calibration.
func (w *Worker) reclaim(ctx context.Context) (int, error) {
	messages, _, err := w.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   w.opts.Input,
		Group:    w.opts.Group,
		Consumer: w.opts.Consumer,
		MinIdle:  w.opts.ClaimIdle,
		Start:    "0-0",
		Count:    readCount,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for _, msg := range messages {
		w.logger.Debug("retrying pending stream entry", zap.String("entry_id", msg.ID))
		w.handle(ctx, msg)
	}
	return len(messages), nil
}

func (w *Worker) handle(ctx context.Context, msg redis.XMessage) {
	logger := w.logger.With(zap.String("entry_id", msg.ID))

	raw, ok := msg.Values[PayloadField].(string)
	if !ok {
		logger.Warn("stream entry has no payload")
		w.ack(ctx, msg.ID, resultInvalid)
		return
	}

	var measurement models.RawMeasurement
	if err := json.Unmarshal([]byte(raw), &measurement); err != nil {
		logger.Warn("failed to decode raw measurement", zap.Error(err))
		w.ack(ctx, msg.ID, resultInvalid)
		return
	}

	reading := measurement.Normalize()
	if reading.DeviceID == "" {
		logger.Warn("raw measurement has no device")
		w.ack(ctx, msg.ID, resultInvalid)
		return
	}

	calibrated, _, err := w.calibrator.Calibrate(ctx, &reading)
	if err != nil {
		var transportErr *calibration.TransportError
		if errors.Is(err, calibration.ErrConfiguration) || errors.As(err, &transportErr) {
			logger.Warn("calibration unavailable, leaving entry pending",
				zap.String("device_id", reading.DeviceID),
				zap.Error(err),
			)
			w.metrics.ObserveStreamEntry(resultPending)
			return
		}
		logger.Warn("calibration rejected", zap.String("device_id", reading.DeviceID), zap.Error(err))
		w.ack(ctx, msg.ID, resultRejected)
		return
	}

	if err := w.publish(ctx, calibrated); err != nil {
		logger.Warn("failed to publish calibrated measurement", zap.Error(err))
		w.metrics.ObserveStreamEntry(resultPending)
		return
	}
	w.ack(ctx, msg.ID, resultCalibrated)
}

func (w *Worker) publish(ctx context.Context, m models.CalibratedMeasurement) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return w.client.XAdd(ctx, &redis.XAddArgs{
		Stream: w.opts.Output,
		Values: map[string]interface{}{
			"device_id":        m.DeviceID,
			"calibrated_value": string(m.CalibratedValue),
			PayloadField:       string(data),
		},
	}).Err()
}

func (w *Worker) ack(ctx context.Context, id, result string) {
	if err := w.client.XAck(ctx, w.opts.Input, w.opts.Group, id).Err(); err != nil {
		w.logger.Warn("failed to ack stream entry", zap.String("entry_id", id), zap.Error(err))
	}
	w.metrics.ObserveStreamEntry(result)
}
