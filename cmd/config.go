package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jstewartrr/sm-mcp-gateway-v2/config"
)

const redacted = "********"

var defaultConfigFile = filepath.Join("config", "gateway.yaml")

func newConfigCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration files",
	}
	cmd.AddCommand(newConfigPrintCommand(root), newConfigInitCommand())
	return cmd
}

func newConfigPrintCommand(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := root.loadConfig()
			if err != nil {
				return err
			}
			data, err := config.Marshal(redact(cfg), format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: json or yaml")
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file if none exists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			created, err := config.EnsureDefaultConfig(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	}
}

func redact(cfg *config.Config) *config.Config {
	out := *cfg
	if out.Asana.Token != "" {
		out.Asana.Token = redacted
	}
	if out.Snowflake.Password != "" {
		out.Snowflake.Password = redacted
	}
	out.Gateway.Backends = make([]config.Backend, len(cfg.Gateway.Backends))
	for i, b := range cfg.Gateway.Backends {
		if len(b.Headers) > 0 {
			headers := make(map[string]string, len(b.Headers))
			for k := range b.Headers {
				headers[k] = redacted
			}
			b.Headers = headers
		}
		out.Gateway.Backends[i] = b
	}
	return &out
}
