package gateway

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

type fakeBackend struct {
	tools   []mcp.Tool
	listErr error
	invoke  func(ctx context.Context, name string, args map[string]any) (any, error)
	calls   atomic.Int64
	closed  atomic.Bool
}

func (f *fakeBackend) ListTools() ([]mcp.Tool, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tools, nil
}

func (f *fakeBackend) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	f.calls.Add(1)
	if f.invoke != nil {
		return f.invoke(ctx, name, args)
	}
	return map[string]any{"tool": name, "args": args}, nil
}

func (f *fakeBackend) Close() error {
	f.closed.Store(true)
	return nil
}

func toolsNamed(names ...string) []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, mcp.Tool{Name: name, Description: name, InputSchema: mcp.ObjectSchema(nil)})
	}
	return tools
}

func staticSpec(prefix string, backend Backend) Spec {
	return Spec{Prefix: prefix, Factory: func(context.Context) (Backend, error) { return backend, nil }}
}

func failingSpec(prefix, message string) Spec {
	return Spec{Prefix: prefix, Factory: func(context.Context) (Backend, error) { return nil, errors.New(message) }}
}
