package httpserver

import (
	"net/http"
	"time"

	"aircalibration/backend/services/calibration-service/internal/http/handlers"
	"aircalibration/backend/services/calibration-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies. Nil handlers are not mounted.
// RequestTimeout bounds /api requests; zero leaves them unbounded.
type RouterDeps struct {
	Calibration    *handlers.CalibrationHandlers
	Health         http.Handler
	Metrics        http.Handler
	Feed           http.Handler
	RequestTimeout time.Duration
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	if deps.Health != nil {
		mux.Handle("/health", method(http.MethodGet, deps.Health))
	}
	if deps.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.Metrics))
	}
	if deps.Feed != nil {
		mux.Handle("/ws/calibrated", method(http.MethodGet, middleware.Chain(deps.Feed, authMiddleware)))
	}
	if deps.Calibration != nil {
		timeout := middleware.Timeout(deps.RequestTimeout)
		mux.Handle("/api/calibrate", method(http.MethodPost, middleware.Chain(http.HandlerFunc(deps.Calibration.Calibrate), authMiddleware, timeout)))
		mux.Handle("/api/calibrations", method(http.MethodGet, middleware.Chain(http.HandlerFunc(deps.Calibration.History), authMiddleware, timeout)))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
