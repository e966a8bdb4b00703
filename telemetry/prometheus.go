// Package telemetry exports gateway observations as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
)

const namespace = "sm_gateway"

type PrometheusMetrics struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	catalogTools     prometheus.Gauge
	catalogDuration  prometheus.Histogram
	openStreams      prometheus.Gauge
}

// NewPrometheusMetrics registers the gateway collectors on registerer. A nil
// registerer uses the process default.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		dispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool calls by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Duration of tool calls in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"backend"},
		),
		catalogTools: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_tools",
			Help:      "Number of tools in the most recent catalog build",
		}),
		catalogDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_build_duration_seconds",
			Help:      "Duration of catalog builds in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		openStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_streams_open",
			Help:      "Current number of open SSE streams",
		}),
	}
}

func (p *PrometheusMetrics) ObserveDispatch(backend, outcome string, duration time.Duration) {
	if backend == "" {
		backend = "none"
	}
	p.dispatchTotal.WithLabelValues(backend, outcome).Inc()
	p.dispatchDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveCatalog(tools int, duration time.Duration) {
	p.catalogTools.Set(float64(tools))
	p.catalogDuration.Observe(duration.Seconds())
}

func (p *PrometheusMetrics) StreamOpened() {
	p.openStreams.Inc()
}

func (p *PrometheusMetrics) StreamClosed() {
	p.openStreams.Dec()
}

var _ gateway.Metrics = (*PrometheusMetrics)(nil)
