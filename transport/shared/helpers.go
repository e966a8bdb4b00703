// Package shared implements the JSON-RPC session layer used by every
// transport: framing, the initialize handshake, catalog listing and tool
// calls.
package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp/jsonrpc"
)

// Gateway is the part of *gateway.Gateway the session layer needs.
type Gateway interface {
	Catalog() []mcp.Tool
	Dispatch(ctx context.Context, name string, args map[string]any) gateway.Envelope
	Info() gateway.Info
}

// ServerCapabilities is the capability block announced by initialize.
func ServerCapabilities() map[string]any {
	return map[string]any{
		"tools": map[string]any{},
	}
}

func BuildInitializeResponse(msg jsonrpc.Request, info gateway.Info) *jsonrpc.Response {
	name := info.Name
	if name == "" {
		name = mcp.ServerName
	}
	version := info.Version
	if version == "" {
		version = mcp.ServerVersion
	}
	return jsonrpc.NewResponse(msg.ID, mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		ServerInfo:      mcp.Implementation{Name: name, Version: version},
		Capabilities:    ServerCapabilities(),
	})
}

func BuildToolsListResponse(msg jsonrpc.Request, tools []mcp.Tool) *jsonrpc.Response {
	if tools == nil {
		tools = []mcp.Tool{}
	}
	return jsonrpc.NewResponse(msg.ID, mcp.ListToolsResult{Tools: tools})
}

// BuildToolCallResponse dispatches one call. The outcome is always a
// result: failures travel inside the text content with isError set.
func BuildToolCallResponse(ctx context.Context, msg jsonrpc.Request, gw Gateway) *jsonrpc.Response {
	var params mcp.CallToolParams
	if err := mcp.DecodeParams(msg.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(msg.ID, int(jsonrpc.ErrInvalidParams), "Invalid tools/call payload", map[string]any{
			"reason": err.Error(),
		})
	}

	envelope := gw.Dispatch(ctx, params.Name, params.Arguments)
	return jsonrpc.NewResponse(msg.ID, ToolResultFromEnvelope(envelope))
}

// ToolResultFromEnvelope renders an envelope as a single text content item.
func ToolResultFromEnvelope(envelope gateway.Envelope) mcp.CallToolResult {
	text, err := json.Marshal(envelope)
	if err != nil {
		envelope = gateway.Failure(fmt.Sprintf("encode result: %v", err))
		text, _ = json.Marshal(envelope)
	}
	return mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent(string(text))},
		IsError: !envelope.OK,
	}
}

func BuildPingResponse(msg jsonrpc.Request) *jsonrpc.Response {
	return jsonrpc.NewResponse(msg.ID, map[string]any{})
}

// IsNotification reports whether msg expects no response.
func IsNotification(msg jsonrpc.Request) bool {
	return msg.IsNotification() && strings.HasPrefix(msg.Method, mcp.NotificationPrefix)
}

// HandleMessage answers one parsed request. A nil response means msg was a
// notification.
func HandleMessage(ctx context.Context, gw Gateway, msg jsonrpc.Request) *jsonrpc.Response {
	if IsNotification(msg) {
		logger.Debug("Notification received", "method", msg.Method)
		return nil
	}

	switch msg.Method {
	case mcp.MethodInitialize:
		var params mcp.InitializeParams
		if err := mcp.DecodeParams(msg.Params, &params); err == nil && params.ClientInfo.Name != "" {
			logger.Info("Client initialized", "client", params.ClientInfo.Name, "client_version", params.ClientInfo.Version, "protocol", params.ProtocolVersion)
		}
		return BuildInitializeResponse(msg, gw.Info())
	case mcp.MethodToolsList:
		return BuildToolsListResponse(msg, gw.Catalog())
	case mcp.MethodToolsCall:
		return BuildToolCallResponse(ctx, msg, gw)
	case mcp.MethodPing:
		return BuildPingResponse(msg)
	default:
		return jsonrpc.NewErrorResponse(msg.ID, int(jsonrpc.ErrMethodNotFound), "Method not found: "+msg.Method, nil)
	}
}

// ProcessFrame parses and answers one JSON-RPC frame. It returns the
// response, nil for notifications, and the HTTP status a transport should
// use.
func ProcessFrame(ctx context.Context, gw Gateway, frame []byte) (*jsonrpc.Response, int) {
	msg, err := jsonrpc.ParseRequest(frame)
	if err != nil {
		rpcErr, ok := jsonrpc.AsError(err)
		if !ok {
			rpcErr = jsonrpc.NewJSONRPCError(jsonrpc.ErrInternalError, err.Error(), nil)
		}
		logger.Warn("Rejected JSON-RPC frame", "code", rpcErr.Code, "error", rpcErr.Message)
		return rpcErr.Response(msg.ID), rpcErr.HTTPStatus()
	}

	resp := HandleMessage(ctx, gw, msg)
	if resp == nil {
		return nil, http.StatusAccepted
	}
	return resp, http.StatusOK
}
