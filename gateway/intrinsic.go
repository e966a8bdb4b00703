package gateway

import (
	"context"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// StatusToolName is the intrinsic status introspection tool.
const StatusToolName = ReservedPrefix + Separator + "status"

// IntrinsicHandler executes a tool implemented by the gateway itself.
type IntrinsicHandler func(ctx context.Context, args map[string]any) (any, error)

// Intrinsic is a gateway-owned tool. Its name is used verbatim, without a
// backend prefix.
type Intrinsic struct {
	Tool    mcp.Tool
	Handler IntrinsicHandler
}

// StatusIntrinsic exposes the status report as a tool.
func StatusIntrinsic(status *Status) Intrinsic {
	return Intrinsic{
		Tool: mcp.Tool{
			Name:        StatusToolName,
			Description: "[GATEWAY] Get the status of all MCP backends and health information",
			InputSchema: mcp.ObjectSchema(nil),
		},
		Handler: func(context.Context, map[string]any) (any, error) {
			return status.Report(), nil
		},
	}
}
