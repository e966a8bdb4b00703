package jsonrpc

import (
	"errors"
	"net/http"
)

type ErrorCode int

// JSON-RPC 2.0 Error Codes
const (
	ErrParseError     ErrorCode = -32700 // Invalid JSON was received by the server
	ErrInvalidRequest ErrorCode = -32600 // The JSON sent is not a valid Request object
	ErrMethodNotFound ErrorCode = -32601 // The method does not exist / is not available
	ErrInvalidParams  ErrorCode = -32602 // Invalid method parameter(s)
	ErrInternalError  ErrorCode = -32603 // Internal JSON-RPC error

	// Server error codes (-32000 to -32099)
	ErrServerError ErrorCode = -32000
)

// JSONRPCError is a protocol-level failure that maps onto an error object.
type JSONRPCError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// NewJSONRPCError creates a new JSON-RPC error
func NewJSONRPCError(code ErrorCode, message string, data any) *JSONRPCError {
	return &JSONRPCError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func (e *JSONRPCError) Error() string {
	return e.Message
}

// Response renders the error as a response for the given request id.
func (e *JSONRPCError) Response(id any) *Response {
	return NewErrorResponse(id, int(e.Code), e.Message, e.Data)
}

// HTTPStatus is the transport status used when this error is the whole
// answer to an HTTP request.
func (e *JSONRPCError) HTTPStatus() int {
	switch e.Code {
	case ErrInvalidRequest, ErrParseError:
		return http.StatusBadRequest
	case ErrInternalError, ErrServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// AsError extracts a *JSONRPCError from err.
func AsError(err error) (*JSONRPCError, bool) {
	var e *JSONRPCError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsError checks if the error is a JSON-RPC error with the given code
func IsError(err error, code ErrorCode) bool {
	if e, ok := AsError(err); ok {
		return e.Code == code
	}
	return false
}

// IsParseError checks if the error is a parse error
func IsParseError(err error) bool {
	return IsError(err, ErrParseError)
}

// IsInvalidRequest checks if the error is an invalid request error
func IsInvalidRequest(err error) bool {
	return IsError(err, ErrInvalidRequest)
}

// IsMethodNotFound checks if the error is a method not found error
func IsMethodNotFound(err error) bool {
	return IsError(err, ErrMethodNotFound)
}

// IsInternalError checks if the error is an internal error
func IsInternalError(err error) bool {
	return IsError(err, ErrInternalError)
}
