package notebook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

func idSchema(extra map[string]any, required ...string) mcp.InputSchema {
	props := map[string]any{"notebook_id": map[string]any{"type": "string"}}
	for key, value := range extra {
		props[key] = value
	}
	return mcp.ObjectSchema(props, append([]string{"notebook_id"}, required...)...)
}

// Tools returns the notebook tool set backed by store.
func Tools(store *Store) []types.Tool {
	str := map[string]any{"type": "string"}
	return []types.Tool{
		types.NewTool(mcp.Tool{
			Name:        "list_notebooks",
			Description: "[NOTEBOOK] List notebooks",
			InputSchema: mcp.ObjectSchema(nil),
		}, func(ctx context.Context, _ json.RawMessage) ([]byte, error) {
			summaries, err := store.List(ctx)
			if err != nil {
				return nil, err
			}
			return types.Result(map[string]any{"notebooks": summaries, "count": len(summaries)})
		}),
		types.NewTool(mcp.Tool{
			Name:        "create_notebook",
			Description: "[NOTEBOOK] Create notebook",
			InputSchema: mcp.ObjectSchema(map[string]any{"title": str}, "title"),
		}, func(ctx context.Context, raw json.RawMessage) ([]byte, error) {
			args, err := types.Args(raw)
			if err != nil {
				return nil, err
			}
			title, err := types.RequireString(args, "title")
			if err != nil {
				return nil, err
			}
			nb, err := store.Create(ctx, title)
			if err != nil {
				return nil, err
			}
			return types.Result(map[string]any{"success": true, "notebook": nb})
		}),
		types.NewTool(mcp.Tool{
			Name:        "get_notebook",
			Description: "[NOTEBOOK] Get notebook",
			InputSchema: idSchema(nil),
		}, withID(func(ctx context.Context, id string, _ map[string]any) (any, error) {
			nb, err := store.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return map[string]any{"notebook": nb}, nil
		})),
		types.NewTool(mcp.Tool{
			Name:        "add_source",
			Description: "[NOTEBOOK] Add source",
			InputSchema: idSchema(map[string]any{"content": str}, "content"),
		}, withID(func(ctx context.Context, id string, args map[string]any) (any, error) {
			content, err := types.RequireString(args, "content")
			if err != nil {
				return nil, err
			}
			source, err := store.AddSource(ctx, id, content)
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "notebook_id": id, "source": source}, nil
		})),
		types.NewTool(mcp.Tool{
			Name:        "delete_notebook",
			Description: "[NOTEBOOK] Delete notebook",
			InputSchema: idSchema(nil),
		}, withID(func(ctx context.Context, id string, _ map[string]any) (any, error) {
			if err := store.Delete(ctx, id); err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "deleted": id}, nil
		})),
		types.NewTool(mcp.Tool{
			Name:        "share_notebook",
			Description: "[NOTEBOOK] Share notebook",
			InputSchema: idSchema(map[string]any{"email": str, "role": str}, "email", "role"),
		}, withID(func(ctx context.Context, id string, args map[string]any) (any, error) {
			email, err := types.RequireString(args, "email")
			if err != nil {
				return nil, err
			}
			role, err := types.RequireString(args, "role")
			if err != nil {
				return nil, err
			}
			nb, err := store.Share(ctx, id, strings.ToLower(email), strings.ToLower(role))
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "notebook_id": id, "shares": nb.Shares}, nil
		})),
	}
}

func withID(fn func(ctx context.Context, id string, args map[string]any) (any, error)) types.ExecuteFunc {
	return func(ctx context.Context, raw json.RawMessage) ([]byte, error) {
		args, err := types.Args(raw)
		if err != nil {
			return nil, err
		}
		id, err := types.RequireString(args, "notebook_id")
		if err != nil {
			return nil, err
		}
		result, err := fn(ctx, id, args)
		if err != nil {
			return nil, err
		}
		return types.Result(result)
	}
}
