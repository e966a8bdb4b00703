package types

import (
	"errors"
	"fmt"
)

const (
	SemanticKindNotAvailable     = "not_available"
	SemanticKindInvalidArguments = "invalid_arguments"
	SemanticKindUnknownTool      = "unknown_tool"
)

// SemanticError marks tool failures caused by the request rather than the
// remote service: bad arguments, unknown tools, disabled features.
type SemanticError struct {
	Kind    string
	Message string
	Data    map[string]any
}

func (e *SemanticError) Error() string {
	if e == nil {
		return "tool semantic error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != "" {
		return fmt.Sprintf("tool semantic error: %s", e.Kind)
	}
	return "tool semantic error"
}

func NewSemanticError(kind, message string, data map[string]any) *SemanticError {
	return &SemanticError{Kind: kind, Message: message, Data: data}
}

func NewNotAvailableError(message string, data map[string]any) *SemanticError {
	if message == "" {
		message = "Tool is temporarily unavailable"
	}
	return NewSemanticError(SemanticKindNotAvailable, message, data)
}

func NewInvalidArgumentsError(message string, data map[string]any) *SemanticError {
	if message == "" {
		message = "Invalid tool arguments"
	}
	return NewSemanticError(SemanticKindInvalidArguments, message, data)
}

func NewUnknownToolError(name string) *SemanticError {
	return NewSemanticError(SemanticKindUnknownTool, fmt.Sprintf("Unknown tool: %s", name), map[string]any{"tool": name})
}

func AsSemanticError(err error) (*SemanticError, bool) {
	if err == nil {
		return nil, false
	}
	var semanticErr *SemanticError
	if errors.As(err, &semanticErr) {
		return semanticErr, true
	}
	return nil, false
}

// IsKind reports whether err is a SemanticError of the given kind.
func IsKind(err error, kind string) bool {
	semanticErr, ok := AsSemanticError(err)
	return ok && semanticErr.Kind == kind
}
