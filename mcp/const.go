package mcp

// Protocol version announced in the initialize handshake.
const (
	ProtocolVersion = "2024-11-05"
)

// Server identity reported to clients.
const (
	ServerName    = "SM MCP Gateway V2"
	ServerVersion = "2.0.0"
)

// Content item types
const (
	ContentTypeText = "text"
)

// JSON-RPC method names handled by the gateway
const (
	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
	MethodPing       = "ping"
	MethodEndpoint   = "endpoint"

	NotificationPrefix = "notifications/"
)
