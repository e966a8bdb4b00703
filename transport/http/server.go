// Package http serves the gateway over HTTP: the JSON-RPC endpoint, the SSE
// announcement channel and the plain JSON views of the catalog and status.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/transport/shared"
)

const (
	DefaultKeepalive       = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Gateway is what the HTTP surface needs from *gateway.Gateway.
type Gateway interface {
	shared.Gateway
	Status() gateway.StatusReport
}

// Options configures a Server.
type Options struct {
	Address         string
	Keepalive       time.Duration
	ShutdownTimeout time.Duration
	Metrics         gateway.Metrics
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

type Server struct {
	gateway Gateway
	opts    Options
	streams *StreamRegistry
	echo    *echo.Echo
}

func NewServer(gw Gateway, opts Options) *Server {
	if opts.Keepalive <= 0 {
		opts.Keepalive = DefaultKeepalive
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = gateway.NoopMetrics{}
	}
	s := &Server{
		gateway: gw,
		opts:    opts,
		streams: NewStreamRegistry(),
		echo:    echo.New(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelDebug
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.Default().LogAttrs(c.Request().Context(), level, "HTTP request", attrs...)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
	RegisterRoutes(s.echo, s)
}

// Handler exposes the routed echo instance, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Streams returns the open SSE stream registry.
func (s *Server) Streams() *StreamRegistry {
	return s.streams
}

// Run listens on the configured address until ctx is done, then closes open
// streams and shuts down gracefully. Only a listen failure is returned.
func (s *Server) Run(ctx context.Context) error {
	s.echo.Server.RegisterOnShutdown(s.streams.CloseAll)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting to listen", "address", s.opts.Address)
		if err := s.echo.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("HTTP server shutting down", "open_streams", s.streams.Len())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", "error", err)
	}
	return <-errCh
}
