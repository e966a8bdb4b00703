package gateway

import (
	"time"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

// Backend health values in a status report.
const (
	StatusHealthy = "HEALTHY"
	StatusFailed  = "FAILED"
	StatusError   = "ERROR"
)

// Info identifies the running gateway.
type Info struct {
	Name        string
	Version     string
	BuildDate   string
	Environment string
}

// GatewayInfo is the gateway block of a status report.
type GatewayInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	BuildDate   string `json:"build_date"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

// BackendStatus is the health of one registration.
type BackendStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Tools  int    `json:"tools"`
}

// StatusReport is returned by gateway_status and GET /status.
type StatusReport struct {
	Gateway    GatewayInfo              `json:"gateway"`
	Backends   map[string]BackendStatus `json:"backends"`
	TotalTools int                      `json:"total_tools"`
}

// Status aggregates per-backend health.
type Status struct {
	registry *Registry
	info     Info
	now      func() time.Time
}

// NewStatus creates a status aggregator. A nil now uses time.Now.
func NewStatus(registry *Registry, info Info, now func() time.Time) *Status {
	if now == nil {
		now = time.Now
	}
	return &Status{registry: registry, info: info, now: now}
}

// Report probes every backend's tool list. Failures stay local to the
// backend that produced them.
func (s *Status) Report() StatusReport {
	report := StatusReport{
		Gateway: GatewayInfo{
			Name:        s.info.Name,
			Version:     s.info.Version,
			BuildDate:   s.info.BuildDate,
			Environment: s.info.Environment,
			Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		},
		Backends: make(map[string]BackendStatus, s.registry.Len()),
	}

	for _, reg := range s.registry.Registrations() {
		if !reg.Healthy() {
			report.Backends[reg.Prefix] = BackendStatus{Status: StatusFailed}
			continue
		}
		tools, err := listTools(reg.Backend)
		if err != nil {
			logger.Warn("Backend status probe failed", "prefix", reg.Prefix, "error", err)
			report.Backends[reg.Prefix] = BackendStatus{Status: StatusError, Error: err.Error()}
			continue
		}
		report.Backends[reg.Prefix] = BackendStatus{Status: StatusHealthy, Tools: len(tools)}
		report.TotalTools += len(tools)
	}
	return report
}
