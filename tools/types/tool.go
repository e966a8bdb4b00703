package types

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// Tool interface defines the contract for all tools
type Tool interface {
	Name() string
	Description() string
	InputSchema() mcp.InputSchema
	Execute(ctx context.Context, args json.RawMessage) ([]byte, error)
}

// ToolRegistry interface defines the contract for tool registries
type ToolRegistry interface {
	RegisterTool(tool Tool) error
	GetTool(name string) (Tool, bool)
	Tools() []Tool
	ExecuteTool(ctx context.Context, name string, args json.RawMessage) ([]byte, error)
}

// ExecuteFunc runs a tool against raw JSON arguments and returns a JSON result.
type ExecuteFunc func(ctx context.Context, args json.RawMessage) ([]byte, error)

// FuncTool adapts a descriptor and a function to the Tool interface. Tools
// whose descriptors are data (embedded JSON, remote listings) use it instead
// of a dedicated struct.
type FuncTool struct {
	descriptor mcp.Tool
	execute    ExecuteFunc
}

// NewTool creates a FuncTool.
func NewTool(descriptor mcp.Tool, execute ExecuteFunc) *FuncTool {
	return &FuncTool{descriptor: descriptor, execute: execute}
}

func (t *FuncTool) Name() string                 { return t.descriptor.Name }
func (t *FuncTool) Description() string          { return t.descriptor.Description }
func (t *FuncTool) InputSchema() mcp.InputSchema { return t.descriptor.InputSchema }

func (t *FuncTool) Execute(ctx context.Context, args json.RawMessage) ([]byte, error) {
	if t.execute == nil {
		return nil, NewNotAvailableError(fmt.Sprintf("Tool %s has no implementation", t.descriptor.Name), nil)
	}
	return t.execute(ctx, args)
}

// LoadDescriptors decodes a JSON array of tool descriptors and normalizes
// each schema so empty properties and required lists serialize as {} and [].
func LoadDescriptors(data []byte) ([]mcp.Tool, error) {
	var descriptors []mcp.Tool
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("decode tool descriptors: %w", err)
	}
	for i := range descriptors {
		schema := descriptors[i].InputSchema
		normalized := mcp.ObjectSchema(schema.Properties, schema.Required...)
		normalized.Title = schema.Title
		descriptors[i].InputSchema = normalized
	}
	return descriptors, nil
}

// Result marshals a tool result.
func Result(v any) ([]byte, error) {
	return json.Marshal(v)
}
