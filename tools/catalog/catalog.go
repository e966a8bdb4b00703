// Package catalog serves tool sets whose descriptors are known but whose
// remote integrations are not wired in. Every call returns a stub payload.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

// StubStatus marks results produced without calling a remote service.
const StubStatus = "stub"

var ErrUnknownCatalog = errors.New("unknown tool catalog")

//go:embed catalogs.json
var catalogsJSON []byte

type entry struct {
	Prefix string          `json:"prefix"`
	Tools  json.RawMessage `json:"tools"`
}

var (
	loadOnce sync.Once
	order    []string
	byName   map[string][]mcp.Tool
	loadErr  error
)

func load() {
	var entries []entry
	if err := json.Unmarshal(catalogsJSON, &entries); err != nil {
		loadErr = fmt.Errorf("decode catalogs: %w", err)
		return
	}
	byName = make(map[string][]mcp.Tool, len(entries))
	for _, e := range entries {
		descriptors, err := types.LoadDescriptors(e.Tools)
		if err != nil {
			loadErr = fmt.Errorf("catalog %s: %w", e.Prefix, err)
			return
		}
		order = append(order, e.Prefix)
		byName[e.Prefix] = descriptors
	}
}

// Names returns the embedded catalog names in file order.
func Names() []string {
	loadOnce.Do(load)
	return append([]string(nil), order...)
}

// Tools returns the stub tool set for the named catalog.
func Tools(name string) ([]types.Tool, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	descriptors, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCatalog, name)
	}

	tools := make([]types.Tool, 0, len(descriptors))
	for _, descriptor := range descriptors {
		tools = append(tools, types.NewTool(descriptor, stub(descriptor.Name)))
	}
	return tools, nil
}

func stub(name string) types.ExecuteFunc {
	return func(_ context.Context, raw json.RawMessage) ([]byte, error) {
		args, err := types.Args(raw)
		if err != nil {
			return nil, err
		}
		return types.Result(map[string]any{"status": StubStatus, "tool": name, "args": args})
	}
}
