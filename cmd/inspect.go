package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

// withGateway loads config, builds a gateway with every enabled backend and
// hands it to fn. Logs go to stderr so stdout stays machine readable.
func withGateway(cmd *cobra.Command, root *rootOptions, fn func(*gateway.Gateway) error) error {
	cfg, _, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg, os.Stderr); err != nil {
		return err
	}
	ctx, cancel := signalAwareContext(cmd.Context())
	defer cancel()

	gw := newGateway(ctx, cfg, gateway.NoopMetrics{})
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()
	return fn(gw)
}

func newToolsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the unified tool catalog as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGateway(cmd, root, func(gw *gateway.Gateway) error {
				tools := gw.Catalog()
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"tools":       tools,
					"total_tools": len(tools),
				})
			})
		},
	}
}

func newStatusCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print per-backend health as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGateway(cmd, root, func(gw *gateway.Gateway) error {
				return writeJSON(cmd.OutOrStdout(), gw.Status())
			})
		},
	}
}

func newValidateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration without starting backends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := root.loadConfig()
			if err != nil {
				return err
			}
			source := path
			if source == "" {
				source = "defaults and environment"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration OK (%s): %d of %d backends enabled\n",
				source, len(cfg.EnabledBackends()), len(cfg.Gateway.Backends))
			return nil
		},
	}
}
