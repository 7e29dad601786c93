package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"aircalibration/backend/services/calibration-service/internal/calibration"
	"aircalibration/backend/services/calibration-service/internal/http/middleware"
	"aircalibration/backend/services/calibration-service/internal/models"
	"aircalibration/backend/services/calibration-service/internal/service"
)

const maxBodyBytes = 64 * 1024

// Calibrator is the service surface used by the handlers.
type Calibrator interface {
	Calibrate(ctx context.Context, reading *models.Reading) (models.CalibratedMeasurement, calibration.Value, error)
	History(ctx context.Context, deviceID string, limit int) ([]models.CalibratedMeasurement, error)
}

// CalibrateResponse is returned by POST /api/calibrate.
type CalibrateResponse struct {
	DeviceID        string            `json:"device_id"`
	Datetime        string            `json:"datetime"`
	CalibratedValue calibration.Value `json:"calibrated_value"`
}

// CalibrationHandlers serves calibration endpoints.
type CalibrationHandlers struct {
	service Calibrator
	logger  *zap.Logger
}

// NewCalibrationHandlers returns handlers.
func NewCalibrationHandlers(service Calibrator, logger *zap.Logger) *CalibrationHandlers {
	return &CalibrationHandlers{
		service: service,
		logger:  logger,
	}
}

// Calibrate handles POST /api/calibrate.
func (h *CalibrationHandlers) Calibrate(w http.ResponseWriter, r *http.Request) {
	var reading models.Reading
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(reading.DeviceID) == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	subject, _ := middleware.SubjectFromContext(r.Context())
	_, value, err := h.service.Calibrate(r.Context(), &reading)
	if err != nil {
		status, message := statusFor(err)
		h.logger.Warn("calibration failed",
			zap.String("device_id", reading.DeviceID),
			zap.String("subject", subject),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeError(w, status, message)
		return
	}
	h.logger.Debug("calibration served",
		zap.String("device_id", reading.DeviceID),
		zap.String("subject", subject),
		zap.Stringer("kind", value.Kind()),
	)

	writeJSON(w, http.StatusOK, CalibrateResponse{
		DeviceID:        reading.DeviceID,
		Datetime:        reading.Timestamp,
		CalibratedValue: value,
	})
}

// History handles GET /api/calibrations?device_id=&limit=.
func (h *CalibrationHandlers) History(w http.ResponseWriter, r *http.Request) {
	deviceID := strings.TrimSpace(r.URL.Query().Get("device_id"))
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	items, err := h.service.History(r.Context(), deviceID, limit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}
	if err != nil {
		h.logger.Error("failed to load calibration history", zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if items == nil {
		items = []models.CalibratedMeasurement{}
	}
	writeJSON(w, http.StatusOK, items)
}

func statusFor(err error) (int, string) {
	var (
		transportErr *calibration.TransportError
		parseErr     *calibration.ParseError
	)
	switch {
	case errors.Is(err, calibration.ErrInvalidInput):
		return http.StatusBadRequest, "invalid measurement"
	case errors.Is(err, calibration.ErrConfiguration):
		return http.StatusServiceUnavailable, "calibration not configured"
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, "calibration service unreachable"
	case errors.As(err, &parseErr):
		return http.StatusBadGateway, "invalid calibration response"
	default:
		return http.StatusInternalServerError, "calibration failed"
	}
}
