package snowflake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

// QueryToolName is the local name of the SQL tool.
const QueryToolName = "query_snowflake"

// QueryTool executes SQL.
type QueryTool struct {
	client *Client
}

func (t *QueryTool) Name() string { return QueryToolName }
func (t *QueryTool) Description() string {
	return fmt.Sprintf("[SM] Execute SQL query on Snowflake as %s", t.client.User())
}
func (t *QueryTool) InputSchema() mcp.InputSchema {
	return mcp.ObjectSchema(map[string]any{
		"sql": map[string]any{
			"type":        "string",
			"description": "SQL query to execute",
		},
		"bindings": map[string]any{
			"type":        "array",
			"description": "Positional values for ? placeholders in sql",
		},
	}, "sql")
}
func (t *QueryTool) Execute(ctx context.Context, args json.RawMessage) ([]byte, error) {
	payload := struct {
		SQL      string          `json:"sql"`
		Bindings json.RawMessage `json:"bindings"`
	}{}
	if err := types.DecodeArgs(args, &payload); err != nil {
		return nil, err
	}
	if payload.SQL == "" {
		return nil, types.NewInvalidArgumentsError("sql is required", map[string]any{"argument": "sql"})
	}
	bindings, err := decodeBindings(payload.Bindings)
	if err != nil {
		return nil, err
	}

	result, err := t.client.Query(ctx, payload.SQL, bindings...)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// decodeBindings keeps integral numbers as int64 so they bind as NUMBER
// without losing precision. Other numbers become float64.
func decodeBindings(raw json.RawMessage) ([]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	invalid := func(reason string) error {
		return types.NewInvalidArgumentsError("bindings "+reason, map[string]any{"argument": "bindings"})
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var values []any
	if err := decoder.Decode(&values); err != nil {
		return nil, invalid("must be an array")
	}
	for i, value := range values {
		number, ok := value.(json.Number)
		if !ok {
			continue
		}
		if n, err := number.Int64(); err == nil {
			values[i] = n
			continue
		}
		f, err := number.Float64()
		if err != nil {
			return nil, invalid(fmt.Sprintf("value %d is out of range", i))
		}
		values[i] = f
	}
	return values, nil
}

// Tools returns the tool set served by client.
func Tools(client *Client) []types.Tool {
	return []types.Tool{&QueryTool{client: client}}
}
