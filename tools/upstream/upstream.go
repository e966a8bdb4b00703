// Package upstream proxies the tools of a remote MCP server.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

const (
	DefaultCallTimeout = 60 * time.Second
	maxToolPages       = 50
)

var ErrMissingEndpoint = errors.New("upstream endpoint is required")

// Config describes a remote MCP server reachable over Streamable HTTP.
type Config struct {
	Name        string
	Endpoint    string
	Headers     map[string]string
	CallTimeout time.Duration
}

// Client is a connected upstream session with its tool list cached at
// connect time.
type Client struct {
	name    string
	session *sdk.ClientSession
	tools   []mcp.Tool
	timeout time.Duration
}

// Connect dials cfg.Endpoint and loads the remote tool list.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrMissingEndpoint
	}
	transport := &sdk.StreamableClientTransport{
		Endpoint:   cfg.Endpoint,
		HTTPClient: &http.Client{Transport: &headerTransport{headers: cfg.Headers, next: http.DefaultTransport}},
	}
	return ConnectTransport(ctx, cfg, transport)
}

// ConnectTransport is Connect over an arbitrary transport.
func ConnectTransport(ctx context.Context, cfg Config, transport sdk.Transport) (*Client, error) {
	client := sdk.NewClient(&sdk.Implementation{Name: mcp.ServerName, Version: mcp.ServerVersion}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect upstream %s: %w", cfg.Name, err)
	}

	tools, err := listAll(ctx, session)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("list upstream %s tools: %w", cfg.Name, err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	logger.Info("Upstream MCP server connected", "name", cfg.Name, "tools", len(tools))
	return &Client{name: cfg.Name, session: session, tools: tools, timeout: timeout}, nil
}

func listAll(ctx context.Context, session *sdk.ClientSession) ([]mcp.Tool, error) {
	var tools []mcp.Tool
	params := &sdk.ListToolsParams{}
	for range maxToolPages {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, remote := range res.Tools {
			tool, err := convertTool(remote)
			if err != nil {
				return nil, err
			}
			tools = append(tools, tool)
		}
		if res.NextCursor == "" {
			return tools, nil
		}
		params = &sdk.ListToolsParams{Cursor: res.NextCursor}
	}
	return nil, fmt.Errorf("tool listing exceeded %d pages", maxToolPages)
}

// convertTool maps a remote descriptor onto the gateway's schema type.
// Schema keywords beyond type, properties and required are dropped.
func convertTool(remote *sdk.Tool) (mcp.Tool, error) {
	var schema mcp.InputSchema
	if remote.InputSchema != nil {
		raw, err := json.Marshal(remote.InputSchema)
		if err != nil {
			return mcp.Tool{}, fmt.Errorf("encode schema of %s: %w", remote.Name, err)
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			return mcp.Tool{}, fmt.Errorf("decode schema of %s: %w", remote.Name, err)
		}
	}
	normalized := mcp.ObjectSchema(schema.Properties, schema.Required...)
	normalized.Title = schema.Title
	return mcp.Tool{Name: remote.Name, Description: remote.Description, InputSchema: normalized}, nil
}

// Tools returns one proxy tool per remote tool.
func (c *Client) Tools() []types.Tool {
	tools := make([]types.Tool, 0, len(c.tools))
	for _, descriptor := range c.tools {
		tools = append(tools, types.NewTool(descriptor, c.caller(descriptor.Name)))
	}
	return tools
}

func (c *Client) caller(name string) types.ExecuteFunc {
	return func(ctx context.Context, raw json.RawMessage) ([]byte, error) {
		args, err := types.Args(raw)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		res, err := c.session.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
		if err != nil {
			return nil, fmt.Errorf("upstream %s: %w", c.name, err)
		}
		return decodeResult(res)
	}
}

// decodeResult prefers structured content, then a single JSON text item,
// then falls back to the list of text items.
func decodeResult(res *sdk.CallToolResult) ([]byte, error) {
	texts := make([]string, 0, len(res.Content))
	for _, content := range res.Content {
		if text, ok := content.(*sdk.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	if res.IsError {
		message := strings.Join(texts, "\n")
		if message == "" {
			message = "upstream tool reported an error"
		}
		return nil, errors.New(message)
	}
	if res.StructuredContent != nil {
		return json.Marshal(res.StructuredContent)
	}
	if len(texts) == 1 && json.Valid([]byte(texts[0])) {
		return []byte(texts[0]), nil
	}
	return json.Marshal(map[string]any{"content": texts})
}

// Close ends the upstream session.
func (c *Client) Close() error {
	return c.session.Close()
}

type headerTransport struct {
	headers map[string]string
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}
	return t.next.RoundTrip(req)
}
