package gateway

import "errors"

var (
	ErrInvalidToolName       = errors.New("invalid tool name format")
	ErrUnknownBackend        = errors.New("unknown backend")
	ErrBackendNotInitialized = errors.New("backend not initialized")
	ErrInvalidArguments      = errors.New("invalid arguments")
	ErrInvalidPrefix         = errors.New("invalid backend prefix")
	ErrDuplicatePrefix       = errors.New("duplicate backend prefix")
)
