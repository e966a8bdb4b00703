package upstream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.New(slog.LevelError, logger.FormatText, io.Discard))
	os.Exit(m.Run())
}

func newRemote(t *testing.T) *sdk.Server {
	t.Helper()
	server := sdk.NewServer(&sdk.Implementation{Name: "remote", Version: "0.1.0"}, nil)
	server.AddTool(&sdk.Tool{
		Name:        "echo",
		Description: "[REMOTE] Echo arguments",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"text": {Type: "string"}},
			Required:   []string{"text"},
		},
	}, func(_ context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: string(req.Params.Arguments)}}}, nil
	})
	server.AddTool(&sdk.Tool{
		Name:        "fail",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(context.Context, *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		return &sdk.CallToolResult{IsError: true, Content: []sdk.Content{&sdk.TextContent{Text: "quota exceeded"}}}, nil
	})
	server.AddTool(&sdk.Tool{
		Name:        "plain",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(context.Context, *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: "hello"}, &sdk.TextContent{Text: "world"}}}, nil
	})
	return server
}

func connect(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	ct, st := sdk.NewInMemoryTransports()
	_, err := newRemote(t).Connect(ctx, st, nil)
	require.NoError(t, err)

	client, err := ConnectTransport(ctx, Config{Name: "remote"}, ct)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnectCachesTools(t *testing.T) {
	client := connect(t)
	tools := client.Tools()
	require.Len(t, tools, 3)

	byName := map[string]int{}
	for i, tool := range tools {
		byName[tool.Name()] = i
	}
	echo := tools[byName["echo"]]
	assert.Equal(t, "[REMOTE] Echo arguments", echo.Description())
	assert.Equal(t, "object", echo.InputSchema().Type)
	assert.Equal(t, []string{"text"}, echo.InputSchema().Required)
	assert.Contains(t, echo.InputSchema().Properties, "text")
}

func execute(t *testing.T, client *Client, name string, args string) ([]byte, error) {
	t.Helper()
	for _, tool := range client.Tools() {
		if tool.Name() == name {
			return tool.Execute(context.Background(), json.RawMessage(args))
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil, nil
}

func TestCallProxiesArguments(t *testing.T) {
	client := connect(t)
	out, err := execute(t, client, "echo", `{"text":"hi"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(out))
}

func TestRemoteErrorBecomesError(t *testing.T) {
	client := connect(t)
	_, err := execute(t, client, "fail", `{}`)
	assert.EqualError(t, err, "quota exceeded")
}

func TestPlainTextResult(t *testing.T) {
	client := connect(t)
	out, err := execute(t, client, "plain", `{}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":["hello","world"]}`, string(out))
}

func TestConnectRequiresEndpoint(t *testing.T) {
	_, err := Connect(context.Background(), Config{Name: "x"})
	assert.ErrorIs(t, err, ErrMissingEndpoint)
}

func TestHeaderTransport(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	client := &http.Client{Transport: &headerTransport{
		headers: map[string]string{"Authorization": "Bearer upstream"},
		next:    http.DefaultTransport,
	}}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer upstream", got.Get("Authorization"))
}
