package gateway

import (
	"context"
	"fmt"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// The helpers below turn backend panics into errors so a single misbehaving
// integration cannot take down registration, catalog builds or dispatch.

func buildBackend(ctx context.Context, factory Factory) (backend Backend, err error) {
	defer func() {
		if r := recover(); r != nil {
			backend, err = nil, fmt.Errorf("backend factory panicked: %v", r)
		}
	}()
	if factory == nil {
		return nil, fmt.Errorf("no factory configured")
	}
	backend, err = factory(ctx)
	if err == nil && backend == nil {
		err = fmt.Errorf("factory returned no backend")
	}
	return backend, err
}

func listTools(backend Backend) (tools []mcp.Tool, err error) {
	defer func() {
		if r := recover(); r != nil {
			tools, err = nil, fmt.Errorf("list tools panicked: %v", r)
		}
	}()
	return backend.ListTools()
}

func invoke(ctx context.Context, backend Backend, name string, args map[string]any) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("tool %s panicked: %v", name, r)
		}
	}()
	return backend.Invoke(ctx, name, args)
}
