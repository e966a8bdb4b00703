package hivemind

import (
	"context"
	"encoding/json"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

type ReadTool struct {
	builder *Builder
}

func (t *ReadTool) Name() string { return "read" }
func (t *ReadTool) Description() string {
	return "[GATEWAY] Read recent entries from the Sovereign Mind Hive Mind"
}
func (t *ReadTool) InputSchema() mcp.InputSchema {
	return mcp.ObjectSchema(map[string]any{
		"limit":      map[string]any{"type": "integer", "default": DefaultReadLimit, "maximum": MaxReadLimit},
		"workstream": map[string]any{"type": "string"},
		"category":   map[string]any{"type": "string"},
		"source":     map[string]any{"type": "string"},
	})
}
func (t *ReadTool) Execute(_ context.Context, raw json.RawMessage) ([]byte, error) {
	args, err := types.Args(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(t.builder.Read(ReadArgs{
		Limit:      types.IntArg(args, "limit", DefaultReadLimit),
		Workstream: types.StringArg(args, "workstream", ""),
		Category:   types.StringArg(args, "category", ""),
		Source:     types.StringArg(args, "source", ""),
	}))
}

type WriteTool struct {
	builder *Builder
}

func (t *WriteTool) Name() string { return "write" }
func (t *WriteTool) Description() string {
	return "[GATEWAY] Write an entry to the Sovereign Mind Hive Mind shared memory"
}
func (t *WriteTool) InputSchema() mcp.InputSchema {
	return mcp.ObjectSchema(map[string]any{
		"source":     map[string]any{"type": "string", "description": "Source identifier"},
		"category":   map[string]any{"type": "string", "description": "Category: CONTEXT, DECISION, ACTION_ITEM, etc"},
		"workstream": map[string]any{"type": "string", "description": "Workstream or project name", "default": DefaultWorkstream},
		"summary":    map[string]any{"type": "string", "description": "Clear summary", "maxLength": MaxSummaryLength},
		"details":    map[string]any{"type": "object", "description": "JSON details object"},
		"priority":   map[string]any{"type": "string", "enum": priorities, "default": DefaultPriority},
		"tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}, "source", "category", "summary")
}
func (t *WriteTool) Execute(_ context.Context, raw json.RawMessage) ([]byte, error) {
	var args WriteArgs
	if err := types.DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	request, err := t.builder.Write(args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(request)
}

// Tools returns the read and write tools.
func Tools(builder *Builder) []types.Tool {
	return []types.Tool{&ReadTool{builder: builder}, &WriteTool{builder: builder}}
}
