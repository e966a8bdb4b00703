package gateway

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// argumentValidator checks call arguments against declared input schemas.
// Resolved schemas are cached by their JSON text.
type argumentValidator struct {
	resolved sync.Map // string -> *jsonschema.Resolved
}

func (v *argumentValidator) resolve(schema mcp.InputSchema) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)
	if cached, ok := v.resolved.Load(key); ok {
		return cached.(*jsonschema.Resolved), nil
	}

	var parsed jsonschema.Schema
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	resolved, err := parsed.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	v.resolved.Store(key, resolved)
	return resolved, nil
}

// validate returns ErrInvalidArguments wrapped with the validator's reason.
// Schemas that cannot be resolved are reported separately so the caller can
// decide to skip enforcement.
func (v *argumentValidator) validate(schema mcp.InputSchema, args map[string]any) (schemaErr, argsErr error) {
	resolved, err := v.resolve(schema)
	if err != nil {
		return err, nil
	}

	// Round-trip through JSON so Go-typed values (ints, structs) look the
	// same as decoded request arguments.
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if instance == nil {
		instance = map[string]any{}
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil, nil
}
