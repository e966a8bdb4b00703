// Package cmd holds the gateway command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jstewartrr/sm-mcp-gateway-v2/config"
	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools"
)

// Set with -ldflags "-X github.com/jstewartrr/sm-mcp-gateway-v2/cmd.buildDate=...".
var buildDate = ""

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "gateway",
		Short:         "Unified MCP gateway over many tool backends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (json or yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newToolsCommand(opts),
		newStatusCommand(opts),
		newValidateCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves and loads the configuration. The returned path is
// empty when no file was used.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path := config.ResolveConfigPath(o.configPath)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("load configuration: %w", err)
	}
	if buildDate != "" {
		cfg.BuildDate = buildDate
	}
	return cfg, path, nil
}

func initLogging(cfg *config.Config, console io.Writer) error {
	paths := []string{}
	if cfg.Logging.Path != "" {
		paths = append(paths, cfg.Logging.Path)
	}
	if err := logger.InitTo(console, logger.GetLevelFromString(cfg.Logging.Level), logger.Format(cfg.Logging.Format), paths...); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	return nil
}

func newGateway(ctx context.Context, cfg *config.Config, metrics gateway.Metrics) *gateway.Gateway {
	registry := gateway.RegisterAll(ctx, tools.DefaultSpecs(cfg))
	return gateway.New(registry, gateway.Options{
		Info: gateway.Info{
			Name:        cfg.Name,
			Version:     cfg.Version,
			BuildDate:   cfg.BuildDate,
			Environment: cfg.Environment,
		},
		Metrics:           metrics,
		ValidateArguments: cfg.Gateway.ValidateArguments,
	})
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
