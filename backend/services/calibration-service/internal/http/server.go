package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WriteTimeout bounds how long a response may take to write.
const WriteTimeout = 60 * time.Second

// RequestTimeout is the deadline put on API request contexts. It ends before
// WriteTimeout so a slow upstream still gets an error response written.
const RequestTimeout = WriteTimeout - 5*time.Second

// Server wraps http.Server.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer builds server.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Run starts the HTTP server and shuts it down when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
