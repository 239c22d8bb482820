// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"farecast/internal/http/handlers"
	"farecast/internal/modules/session"
)

type ServerDeps struct {
	Sessions *session.Manager
	Quotes   handlers.QuoteReader
	Upstream handlers.Upstream
	Log      *zap.Logger
}

type Server struct {
	deps ServerDeps
	srv  *http.Server
}

func NewServer(addr string, deps ServerDeps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	s := &Server{deps: deps}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	return newRouter(s.deps)
}

// Run serves until ctx is done, then drains open requests. Event streams are
// ended by closing their sessions before Run is asked to stop.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
