package gateway

import (
	"context"
	"time"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// Options configures a Gateway.
type Options struct {
	Info              Info
	Metrics           Metrics
	ValidateArguments bool
	Now               func() time.Time
}

// Gateway wires the catalog, router and status aggregator around one
// registry. It is the value handed to transports.
type Gateway struct {
	registry *Registry
	catalog  *Catalog
	router   *Router
	status   *Status
	info     Info
}

// New creates a gateway over an initialized registry.
func New(registry *Registry, opts Options) *Gateway {
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	status := NewStatus(registry, opts.Info, opts.Now)
	intrinsics := []Intrinsic{StatusIntrinsic(status)}
	return &Gateway{
		registry: registry,
		catalog:  NewCatalog(registry, intrinsics, opts.Metrics),
		router: NewRouter(registry, intrinsics, RouterOptions{
			Metrics:           opts.Metrics,
			ValidateArguments: opts.ValidateArguments,
		}),
		status: status,
		info:   opts.Info,
	}
}

// Catalog returns a freshly built catalog snapshot.
func (g *Gateway) Catalog() []mcp.Tool {
	return g.catalog.Build()
}

// Dispatch routes one tool call.
func (g *Gateway) Dispatch(ctx context.Context, name string, args map[string]any) Envelope {
	return g.router.Dispatch(ctx, name, args)
}

// Status returns the current status report.
func (g *Gateway) Status() StatusReport {
	return g.status.Report()
}

// Info returns the gateway identity.
func (g *Gateway) Info() Info {
	return g.info
}

// Registry returns the underlying registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Close releases backend resources.
func (g *Gateway) Close() error {
	return g.registry.Close()
}
