package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aircalibration/backend/libs/db"
	"aircalibration/backend/libs/metrics"
	redislib "aircalibration/backend/libs/redis"
	"aircalibration/backend/services/calibration-service/internal/calibration"
	"aircalibration/backend/services/calibration-service/internal/config"
	httpserver "aircalibration/backend/services/calibration-service/internal/http"
	"aircalibration/backend/services/calibration-service/internal/http/handlers"
	"aircalibration/backend/services/calibration-service/internal/http/middleware"
	"aircalibration/backend/services/calibration-service/internal/repository"
	"aircalibration/backend/services/calibration-service/internal/service"
	"aircalibration/backend/services/calibration-service/internal/stream"
	"aircalibration/backend/services/calibration-service/internal/ws"
)

const (
	feedPingInterval = 30 * time.Second
	feedWriteTimeout = 10 * time.Second
)

// App wires calibration service dependencies.
type App struct {
	server *httpserver.Server
	hub    *ws.Hub
	worker *stream.Worker
	db     *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

// New constructs application components. Postgres and Redis are optional.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	url, ok := cfg.CalibrateURL()
	if !ok {
		logger.Warn("calibrate url is not configured, calibration requests will fail")
	}
	transport := calibration.NewHTTPTransport(calibration.TransportOptions{
		Timeout:    cfg.Calibrate.Timeout,
		RetryCount: cfg.Calibrate.RetryCount,
		RetryWait:  cfg.Calibrate.RetryWait,
	}, logger)
	resolver := calibration.NewResolver(url, transport, logger)
	if ok {
		logger.Info("calibration endpoint configured",
			zap.String("endpoint", resolver.Endpoint()),
			zap.Duration("timeout", cfg.Calibrate.Timeout),
			zap.Int("retry_count", cfg.Calibrate.RetryCount),
		)
	}

	var repo service.Repository
	if cfg.HistoryEnabled() {
		sqlDB, err := db.NewPostgresDB(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = sqlDB
		calibrationRepo := repository.NewCalibrationRepository(sqlDB)
		if err := calibrationRepo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		repo = calibrationRepo
	}

	m := metrics.NewCalibration()
	a.hub = ws.NewHub(feedPingInterval, feedWriteTimeout, logger)
	calibrationService := service.NewCalibrationService(resolver, repo, a.hub, m, logger)

	if cfg.StreamEnabled() {
		client, err := redislib.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		a.worker = stream.NewWorker(client, calibrationService, stream.Options{
			Input:     cfg.Stream.Input,
			Output:    cfg.Stream.Output,
			Group:     cfg.Stream.Group,
			Consumer:  cfg.Stream.Consumer,
			Block:     cfg.Stream.Block,
			ClaimIdle: cfg.Stream.ClaimIdle,
		}, m, logger)
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Calibration:    handlers.NewCalibrationHandlers(calibrationService, logger),
		Health:         handlers.NewHealthHandler(),
		Metrics:        m.Handler(),
		Feed:           http.HandlerFunc(a.hub.HandleWS),
		RequestTimeout: httpserver.RequestTimeout,
	}, middleware.AuthMiddleware(cfg.JWT.Secret))
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return a, nil
}

// Run serves HTTP, the live feed and, when enabled, the stream worker until ctx is done.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Run(ctx)
	})
	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})
	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Run(ctx)
		})
	}

	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
