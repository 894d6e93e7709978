package httpt

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"salesnotifier/internal/config"
	"salesnotifier/pkg/logger"
)

type HTTPServer struct {
	srv *http.Server
	cfg *config.HTTP
	log logger.Logger
}

func NewHTTPServer(handler http.Handler, cfg *config.HTTP, log logger.Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		cfg: cfg,
		log: log,
	}
}

// Start serves until ctx is cancelled, then drains in-flight requests within the shutdown timeout.
func (s *HTTPServer) Start(ctx context.Context) error {
	const op = "transport.http.HTTPServer.Start"

	errCh := make(chan error, 1)
	go func() {
		s.log.LogAttrs(ctx, logger.InfoLevel, "http server started",
			logger.String("addr", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s: listen: %w", op, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.log.LogAttrs(ctx, logger.InfoLevel, "http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", op, err)
	}

	return nil
}
