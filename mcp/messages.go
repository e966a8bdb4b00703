package mcp

import (
	"encoding/json"
)

// Tool represents a tool definition
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema represents the JSON schema for tool input. Property schemas
// are kept as free-form maps so type, default, enum and bound keywords pass
// through untouched.
type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
	Title      string         `json:"title,omitempty"`
}

// ObjectSchema returns an object schema with the given properties and
// required keys. A nil properties map is replaced by an empty one.
func ObjectSchema(properties map[string]any, required ...string) InputSchema {
	if properties == nil {
		properties = map[string]any{}
	}
	if required == nil {
		required = []string{}
	}
	return InputSchema{Type: "object", Properties: properties, Required: required}
}

// WithName returns a copy of the tool carrying a different name.
func (t Tool) WithName(name string) Tool {
	t.Name = name
	return t
}

// Implementation identifies a server or client.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the subset of the initialize request the gateway reads.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion,omitempty"`
	ClientInfo      Implementation `json:"clientInfo"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
}

// InitializeResult is returned by the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      Implementation `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

// ListToolsResult is returned by tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams carries a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Content is one item of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent builds a text content item.
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// CallToolResult is returned by tools/call.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// EndpointParams announces where JSON-RPC requests should be posted.
type EndpointParams struct {
	Endpoint string `json:"endpoint"`
}

// DecodeParams unmarshals raw params into dst. Empty params leave dst as is.
func DecodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
