package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DecodeArgs unmarshals raw arguments into dst. Empty input is treated as
// an empty object.
func DecodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return NewInvalidArgumentsError(fmt.Sprintf("invalid arguments: %v", err), nil)
	}
	return nil
}

// Args decodes raw arguments into a map.
func Args(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if err := DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// RequireString returns a non-blank string argument.
func RequireString(args map[string]any, key string) (string, error) {
	value := strings.TrimSpace(StringArg(args, key, ""))
	if value == "" {
		return "", NewInvalidArgumentsError(fmt.Sprintf("%s is required", key), map[string]any{"argument": key})
	}
	return value, nil
}

// StringArg returns args[key] as a string, or def when absent. Numbers and
// booleans are formatted.
func StringArg(args map[string]any, key, def string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

// IntArg returns args[key] as an int, or def when absent or unparseable.
func IntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// BoolArg returns args[key] as a bool, or def when absent.
func BoolArg(args map[string]any, key string, def bool) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// StringSliceArg returns args[key] as a string slice. A single string is
// returned as a one-element slice.
func StringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
