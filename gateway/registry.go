package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

// ReservedPrefix is owned by gateway-intrinsic tools.
const ReservedPrefix = "gateway"

// State is the initialization outcome of a backend.
type State int

const (
	StateHealthy State = iota
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Registration is the registry entry for one prefix. Failed entries keep a
// nil Backend and the initialization error.
type Registration struct {
	Prefix  string
	Backend Backend
	State   State
	Err     error
}

// Healthy reports whether the backend initialized.
func (r Registration) Healthy() bool {
	return r.State == StateHealthy && r.Backend != nil
}

// Registry is populated once by RegisterAll and read-only afterwards, so it
// is safe for concurrent use without locking.
type Registry struct {
	entries []*Registration
	index   map[string]*Registration
}

// RegisterAll builds every backend in order. A factory failure is recorded
// as a Failed registration and never stops the remaining entries.
func RegisterAll(ctx context.Context, specs []Spec) *Registry {
	r := &Registry{
		entries: make([]*Registration, 0, len(specs)),
		index:   make(map[string]*Registration, len(specs)),
	}
	for _, spec := range specs {
		prefix := strings.TrimSpace(spec.Prefix)
		if _, exists := r.index[prefix]; exists {
			logger.Warn("Duplicate backend prefix ignored", "prefix", prefix, "error", ErrDuplicatePrefix)
			continue
		}

		reg := &Registration{Prefix: prefix}
		if err := validatePrefix(prefix); err != nil {
			reg.State, reg.Err = StateFailed, err
		} else if backend, err := buildBackend(ctx, spec.Factory); err != nil {
			reg.State, reg.Err = StateFailed, err
		} else {
			reg.State, reg.Backend = StateHealthy, backend
		}

		if reg.State == StateFailed {
			logger.Error("Backend failed to initialize", "prefix", prefix, "error", reg.Err)
		} else {
			logger.Info("Backend initialized", "prefix", prefix)
		}
		r.entries = append(r.entries, reg)
		r.index[prefix] = reg
	}
	return r
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("%w: empty", ErrInvalidPrefix)
	case strings.Contains(prefix, Separator):
		return fmt.Errorf("%w: %q contains %q", ErrInvalidPrefix, prefix, Separator)
	case prefix == ReservedPrefix:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidPrefix, prefix)
	}
	return nil
}

// Lookup returns the registration for prefix.
func (r *Registry) Lookup(prefix string) (Registration, bool) {
	reg, ok := r.index[prefix]
	if !ok {
		return Registration{}, false
	}
	return *reg, true
}

// Registrations returns every entry in registration order.
func (r *Registry) Registrations() []Registration {
	out := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, *reg)
	}
	return out
}

// Prefixes returns the registered prefixes in order.
func (r *Registry) Prefixes() []string {
	out := make([]string, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg.Prefix)
	}
	return out
}

// Len returns the number of registrations, failed ones included.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Close releases backends that hold resources.
func (r *Registry) Close() error {
	var errs []error
	for _, reg := range r.entries {
		closer, ok := reg.Backend.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", reg.Prefix, err))
		}
	}
	return errors.Join(errs...)
}
