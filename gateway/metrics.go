package gateway

import "time"

// Dispatch outcomes reported to Metrics.
const (
	OutcomeSuccess          = "success"
	OutcomeFailure          = "failure"
	OutcomeInvalidName      = "invalid_name"
	OutcomeUnknownBackend   = "unknown_backend"
	OutcomeNotInitialized   = "not_initialized"
	OutcomeInvalidArguments = "invalid_arguments"
)

// Metrics receives gateway observations.
type Metrics interface {
	ObserveDispatch(backend, outcome string, duration time.Duration)
	ObserveCatalog(tools int, duration time.Duration)
	StreamOpened()
	StreamClosed()
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) ObserveDispatch(string, string, time.Duration) {}
func (NoopMetrics) ObserveCatalog(int, time.Duration)             {}
func (NoopMetrics) StreamOpened()                                 {}
func (NoopMetrics) StreamClosed()                                 {}
