// Package gateway holds the tool registry and routing core: backends
// describe their tools, the catalog merges them under prefixed names and the
// router sends each call to the backend that owns it.
package gateway

import (
	"context"
	"strings"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// Separator joins a backend prefix and a local tool name.
const Separator = "_"

// Backend is implemented by every integration plugged into the gateway.
//
// ListTools returns local (unprefixed) tool names and must not have side
// effects. Invoke runs one tool; any error it returns is reported to the
// caller as a failure envelope.
type Backend interface {
	ListTools() ([]mcp.Tool, error)
	Invoke(ctx context.Context, name string, args map[string]any) (any, error)
}

// Factory builds a backend once at startup.
type Factory func(ctx context.Context) (Backend, error)

// Spec pairs a prefix with the factory for its backend.
type Spec struct {
	Prefix  string
	Factory Factory
}

// QualifiedName returns the public catalog name of a backend tool.
func QualifiedName(prefix, local string) string {
	return prefix + Separator + local
}

// SplitName splits a qualified name on the first separator. ok is false when
// there is no separator or either side is empty.
func SplitName(name string) (prefix, local string, ok bool) {
	prefix, local, found := strings.Cut(name, Separator)
	if !found || prefix == "" || local == "" {
		return "", "", false
	}
	return prefix, local, true
}
