package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the only protocol version accepted.
const Version = "2.0"

// Request represents a JSON-RPC request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC response
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error represents a JSON-RPC error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Notification represents a JSON-RPC notification (request without id)
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewResponse creates a new JSON-RPC response
func NewResponse(id any, result any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates a new JSON-RPC error response
func NewErrorResponse(id any, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// NewNotification creates a new JSON-RPC notification
func NewNotification(method string, params any) *Notification {
	return &Notification{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
	}
}

// ParseRequest decodes a single request object. Undecodable input yields an
// ErrInternalError, mirroring how the gateway reports unreadable bodies; a
// decodable object that is not a valid request yields ErrInvalidRequest and
// keeps whatever id could be recovered.
func ParseRequest(body []byte) (Request, error) {
	var req Request
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return req, NewJSONRPCError(ErrInternalError, "empty request body", nil)
	}
	if trimmed[0] != '{' {
		return req, NewJSONRPCError(ErrInternalError, "request body must be a JSON object", nil)
	}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return req, NewJSONRPCError(ErrInternalError, fmt.Sprintf("invalid JSON: %v", err), nil)
	}
	if req.JSONRPC != Version {
		return req, NewJSONRPCError(ErrInvalidRequest, "Invalid request", map[string]any{"reason": "jsonrpc must be \"2.0\""})
	}
	if req.Method == "" {
		return req, NewJSONRPCError(ErrInvalidRequest, "Invalid request", map[string]any{"reason": "method is required"})
	}
	return req, nil
}
