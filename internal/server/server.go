// Package server hosts the browser catalog and the /api/config endpoint the
// catalog and the terminal browser use to discover the backend.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/five82/tvhomerun/internal/config"
	"github.com/five82/tvhomerun/internal/tvhomerun"
)

// IndexFile is served for GET /.
const IndexFile = "shows.html"

// Server wraps an Echo instance configured for the catalog site.
type Server struct {
	echo *echo.Echo
	cfg  config.Server
	log  zerolog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// New builds the server. assets supplies the static site; when cfg.WebRoot
// is set the site is read from that directory instead.
func New(cfg config.Server, log zerolog.Logger, assets fs.FS) *Server {
	if cfg.WebRoot != "" {
		assets = os.DirFS(cfg.WebRoot)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, cfg: cfg, log: log}
	setupMiddlewares(e, log)

	e.GET(tvhomerun.ConfigPath, s.handleConfig)
	if assets != nil {
		e.FileFS("/", IndexFile, assets)
		e.StaticFS("/", assets)
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run binds the listener and serves until ctx is cancelled, then shuts down
// within cfg.ShutdownTimeout. Bind failures come back as *ListenError.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return newListenError(s.cfg.Port, err)
	}
	s.echo.Listener = ln
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.log.Info().Msgf("TVHomeRun Web Server running on http://%s", s.cfg.Addr())
	s.log.Info().Msgf("Backend URL configured as: %s", s.cfg.BackendURL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Dur("timeout", s.cfg.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Addr returns the bound address once Run is listening, otherwise nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handleConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, tvhomerun.RemoteConfig{BackendURL: s.cfg.BackendURL})
}
