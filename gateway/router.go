package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

// RouterOptions configures a Router.
type RouterOptions struct {
	Metrics Metrics
	// ValidateArguments enforces declared input schemas before a call
	// reaches the backend. Off by default: schemas are advisory.
	ValidateArguments bool
}

// Router resolves qualified tool names to backends and normalizes every
// outcome into an Envelope. It holds no mutable state of its own.
type Router struct {
	registry   *Registry
	intrinsics map[string]IntrinsicHandler
	metrics    Metrics
	validator  *argumentValidator
}

// NewRouter creates a router over registry.
func NewRouter(registry *Registry, intrinsics []Intrinsic, opts RouterOptions) *Router {
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	handlers := make(map[string]IntrinsicHandler, len(intrinsics))
	for _, intrinsic := range intrinsics {
		handlers[intrinsic.Tool.Name] = intrinsic.Handler
	}
	r := &Router{
		registry:   registry,
		intrinsics: handlers,
		metrics:    opts.Metrics,
	}
	if opts.ValidateArguments {
		r.validator = &argumentValidator{}
	}
	return r
}

// Dispatch runs one tool call. It never returns an error: every failure,
// including a backend panic, comes back as a Failure envelope.
//
// The backend gets a context that keeps request values but is never
// cancelled by the caller; bounding latency is left to each backend.
func (r *Router) Dispatch(ctx context.Context, name string, args map[string]any) Envelope {
	start := time.Now()
	if args == nil {
		args = map[string]any{}
	}
	callCtx := context.WithoutCancel(ctx)

	if handler, ok := r.intrinsics[name]; ok {
		payload, err := handler(callCtx, args)
		if err != nil {
			return r.fail(ReservedPrefix, name, OutcomeFailure, err, start)
		}
		return r.succeed(ReservedPrefix, name, payload, start)
	}

	prefix, local, ok := SplitName(name)
	if !ok {
		return r.fail("", name, OutcomeInvalidName, fmt.Errorf("%w: %s", ErrInvalidToolName, name), start)
	}

	reg, ok := r.registry.Lookup(prefix)
	if !ok {
		return r.fail(prefix, name, OutcomeUnknownBackend, fmt.Errorf("%w: %s", ErrUnknownBackend, prefix), start)
	}
	if !reg.Healthy() {
		return r.fail(prefix, name, OutcomeNotInitialized, fmt.Errorf("%w: %s", ErrBackendNotInitialized, prefix), start)
	}

	if r.validator != nil {
		if err := r.checkArguments(reg, local, args); err != nil {
			return r.fail(prefix, name, OutcomeInvalidArguments, fmt.Errorf("%s: %w", name, err), start)
		}
	}

	payload, err := invoke(callCtx, reg.Backend, local, args)
	if err != nil {
		return r.fail(prefix, name, OutcomeFailure, err, start)
	}
	return r.succeed(prefix, name, payload, start)
}

func (r *Router) checkArguments(reg Registration, local string, args map[string]any) error {
	tool, found, err := localTool(reg.Backend, local)
	if err != nil || !found {
		// Unknown tools are reported by the backend itself.
		return nil
	}
	schemaErr, argsErr := r.validator.validate(tool.InputSchema, args)
	if schemaErr != nil {
		logger.Warn("Skipping argument validation", "prefix", reg.Prefix, "tool", local, "error", schemaErr)
		return nil
	}
	return argsErr
}

func (r *Router) succeed(backend, name string, payload any, start time.Time) Envelope {
	elapsed := time.Since(start)
	r.metrics.ObserveDispatch(backend, OutcomeSuccess, elapsed)
	logger.Debug("Tool call succeeded", "tool", name, "backend", backend, "duration", elapsed)
	return Success(payload)
}

func (r *Router) fail(backend, name, outcome string, err error, start time.Time) Envelope {
	elapsed := time.Since(start)
	r.metrics.ObserveDispatch(backend, outcome, elapsed)
	logger.Warn("Tool call failed", "tool", name, "backend", backend, "outcome", outcome, "error", err, "duration", elapsed)
	return FailureFromError(err)
}
