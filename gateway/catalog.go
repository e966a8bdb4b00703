package gateway

import (
	"time"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// Catalog merges intrinsic tools and every healthy backend's tools into one
// namespaced list. Nothing is cached: each Build asks the backends again.
type Catalog struct {
	registry   *Registry
	intrinsics []Intrinsic
	metrics    Metrics
}

// NewCatalog creates a catalog builder over registry.
func NewCatalog(registry *Registry, intrinsics []Intrinsic, metrics Metrics) *Catalog {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Catalog{registry: registry, intrinsics: intrinsics, metrics: metrics}
}

// Build returns intrinsic descriptors followed by "<prefix>_<tool>"
// descriptors in registration order. A backend whose tool listing fails is
// logged and left out.
func (c *Catalog) Build() []mcp.Tool {
	start := time.Now()
	tools := make([]mcp.Tool, 0, len(c.intrinsics))
	for _, intrinsic := range c.intrinsics {
		tools = append(tools, intrinsic.Tool)
	}

	for _, reg := range c.registry.Registrations() {
		if !reg.Healthy() {
			continue
		}
		local, err := listTools(reg.Backend)
		if err != nil {
			logger.Warn("Skipping backend in catalog", "prefix", reg.Prefix, "error", err)
			continue
		}
		for _, tool := range local {
			tools = append(tools, tool.WithName(QualifiedName(reg.Prefix, tool.Name)))
		}
	}

	c.metrics.ObserveCatalog(len(tools), time.Since(start))
	logger.Debug("Catalog built", "tools", len(tools), "duration", time.Since(start))
	return tools
}

// localTool finds the descriptor a backend declares for a local name.
func localTool(backend Backend, name string) (mcp.Tool, bool, error) {
	tools, err := listTools(backend)
	if err != nil {
		return mcp.Tool{}, false, err
	}
	for _, tool := range tools {
		if tool.Name == name {
			return tool, true, nil
		}
	}
	return mcp.Tool{}, false, nil
}
