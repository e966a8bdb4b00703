package cmd

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jstewartrr/sm-mcp-gateway-v2/config"
	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/telemetry"
	httptransport "github.com/jstewartrr/sm-mcp-gateway-v2/transport/http"
	"github.com/jstewartrr/sm-mcp-gateway-v2/transport/stdio"
)

// watchConfig is swapped in tests.
var watchConfig = config.Watch

func newServeCommand(root *rootOptions) *cobra.Command {
	var useStdio bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway over HTTP (default) or stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := root.loadConfig()
			if err != nil {
				return err
			}
			console := os.Stdout
			if useStdio {
				console = os.Stderr
			}
			if err := initLogging(cfg, console); err != nil {
				return err
			}
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return serve(ctx, cfg, path, useStdio)
		},
	}
	cmd.Flags().BoolVar(&useStdio, "stdio", false, "serve newline-delimited JSON-RPC on stdin/stdout instead of HTTP")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, path string, useStdio bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		metrics      gateway.Metrics = gateway.NoopMetrics{}
		promRegistry *prometheus.Registry
	)
	if cfg.Server.MetricsEnabled {
		promRegistry = prometheus.NewRegistry()
		metrics = telemetry.NewPrometheusMetrics(promRegistry)
	}

	gw := newGateway(ctx, cfg, metrics)
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()
	logger.Info("Gateway ready", "backends", gw.Registry().Len(), "environment", cfg.Environment, "stdio", useStdio)

	g, gctx := errgroup.WithContext(ctx)

	if useStdio {
		g.Go(func() error {
			// EOF on stdin ends the process.
			defer cancel()
			return stdio.NewStdioServer(gw).Serve(gctx)
		})
	} else {
		opts := httptransport.Options{
			Address:         cfg.Address(),
			Keepalive:       time.Duration(cfg.Server.KeepaliveSeconds) * time.Second,
			ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
			Metrics:         metrics,
		}
		if promRegistry != nil {
			opts.MetricsHandler = telemetry.Handler(promRegistry)
		}
		server := httptransport.NewServer(gw, opts)
		g.Go(func() error {
			defer cancel()
			return server.Run(gctx)
		})
	}

	if path != "" {
		// Reload is best effort: a watcher failure never stops serving.
		g.Go(func() error {
			err := watchConfig(gctx, path, func(next *config.Config) {
				level := logger.GetLevelFromString(next.Logging.Level)
				logger.SetLevel(level)
				logger.Info("Log level updated", "level", level.String())
			})
			if err != nil {
				logger.Warn("Config watcher stopped, hot reload disabled", "path", path, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}
