package tools

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jstewartrr/sm-mcp-gateway-v2/config"
	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/asana"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/catalog"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/hivemind"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/notebook"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/snowflake"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/upstream"
)

// DefaultSpecs returns one registration spec per enabled backend in cfg,
// in configuration order.
func DefaultSpecs(cfg *config.Config) []gateway.Spec {
	backends := cfg.EnabledBackends()
	specs := make([]gateway.Spec, 0, len(backends))
	for _, b := range backends {
		specs = append(specs, gateway.Spec{Prefix: b.Prefix, Factory: Factory(cfg, b)})
	}
	return specs
}

// Factory returns the constructor for one configured backend. Unknown kinds
// produce a factory that always fails, so the prefix shows up as FAILED.
func Factory(cfg *config.Config, b config.Backend) gateway.Factory {
	switch b.Kind {
	case config.KindSnowflake:
		return func(context.Context) (gateway.Backend, error) {
			client, err := snowflake.Open(snowflake.Config{
				Account:      cfg.Snowflake.Account,
				User:         cfg.Snowflake.User,
				Password:     cfg.Snowflake.Password,
				Warehouse:    cfg.Snowflake.Warehouse,
				Database:     cfg.Snowflake.Database,
				Schema:       cfg.Snowflake.Schema,
				Role:         cfg.Snowflake.Role,
				QueryTimeout: seconds(cfg.Snowflake.QueryTimeoutSeconds),
			})
			if err != nil {
				return nil, err
			}
			return newBackend(b.Prefix, snowflake.Tools(client), client)
		}
	case config.KindAsana:
		return func(context.Context) (gateway.Backend, error) {
			client, err := asana.NewClient(asana.Config{
				Token:        cfg.Asana.Token,
				WorkspaceGID: cfg.Asana.WorkspaceGID,
				BaseURL:      cfg.Asana.BaseURL,
				Timeout:      seconds(cfg.Asana.TimeoutSeconds),
				RetryMax:     cfg.Asana.RetryMax,
			})
			if err != nil {
				return nil, err
			}
			tools, err := asana.Tools(client)
			if err != nil {
				return nil, err
			}
			return newBackend(b.Prefix, tools)
		}
	case config.KindCatalog:
		return func(context.Context) (gateway.Backend, error) {
			tools, err := catalog.Tools(b.Prefix)
			if err != nil {
				return nil, err
			}
			return newBackend(b.Prefix, tools)
		}
	case config.KindNotebook:
		return func(context.Context) (gateway.Backend, error) {
			store, err := notebook.Open(cfg.Notebook.Path)
			if err != nil {
				return nil, err
			}
			return newBackend(b.Prefix, notebook.Tools(store), store)
		}
	case config.KindHivemind:
		return func(context.Context) (gateway.Backend, error) {
			builder, err := hivemind.NewBuilder(hivemind.Config{
				Table:      cfg.Hivemind.Table,
				TargetTool: cfg.Hivemind.TargetTool,
			})
			if err != nil {
				return nil, err
			}
			return newBackend(b.Prefix, hivemind.Tools(builder))
		}
	case config.KindMCP:
		return func(ctx context.Context) (gateway.Backend, error) {
			client, err := upstream.Connect(ctx, upstream.Config{
				Name:        b.Prefix,
				Endpoint:    b.Endpoint,
				Headers:     b.Headers,
				CallTimeout: seconds(b.CallTimeoutSeconds),
			})
			if err != nil {
				return nil, err
			}
			return newBackend(b.Prefix, client.Tools(), client)
		}
	default:
		return func(context.Context) (gateway.Backend, error) {
			return nil, fmt.Errorf("unsupported backend kind %q", b.Kind)
		}
	}
}

// newBackend wraps tools in a Manager that owns closers. Closers are released
// when registration fails.
func newBackend(name string, tools []types.Tool, closers ...io.Closer) (gateway.Backend, error) {
	m := NewManager(name)
	for _, c := range closers {
		m.AddCloser(c)
	}
	if err := m.RegisterTools(tools...); err != nil {
		m.Close()
		return nil, fmt.Errorf("register %s tools: %w", name, err)
	}
	return m, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
