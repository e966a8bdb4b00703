package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gateway version",
		Run: func(cmd *cobra.Command, _ []string) {
			date := buildDate
			if date == "" {
				date = "unknown"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", mcp.ServerName, mcp.ServerVersion, date)
		},
	}
}
