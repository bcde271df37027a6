package tool

import (
	"errors"
	"fmt"
	"reflect"

	"gflights/pkg/types"
)

// ErrMissingField is returned when a call omits a schema-required argument.
var ErrMissingField = errors.New("missing required field")

// RequiredFields reads the "required" list of a schema map.
func RequiredFields(schema map[string]any) []string {
	if schema == nil {
		return nil
	}
	required, ok := schema["required"].([]string)
	if !ok {
		if raw, okAny := schema["required"].([]any); okAny {
			for _, v := range raw {
				if s, okStr := v.(string); okStr {
					required = append(required, s)
				}
			}
		}
	}
	return required
}

// ValidateInput performs a basic required-field check based on the tool schema.
func ValidateInput(tool Tool, input map[string]any) error {
	for _, field := range RequiredFields(tool.InputSchema()) {
		if _, exists := input[field]; !exists {
			return fmt.Errorf("%s: %w: %s", tool.Name(), ErrMissingField, field)
		}
	}
	return nil
}

// ToDeclaration converts a Tool into the declaration sent to chat engines.
func ToDeclaration(t Tool) types.ToolDeclaration {
	return types.ToolDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.InputSchema(),
	}
}

// ToDeclarations converts a list of Tools to declarations, preserving order.
func ToDeclarations(tools []Tool) []types.ToolDeclaration {
	res := make([]types.ToolDeclaration, len(tools))
	for i, t := range tools {
		res[i] = ToDeclaration(t)
	}
	return res
}

// IsEmpty reports whether a tool payload is absent: nil, a nil pointer or
// interface, an empty string, slice or map, false, or a zero number.
func IsEmpty(payload any) bool {
	if payload == nil {
		return true
	}
	v := reflect.ValueOf(payload)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return true
		}
		return IsEmpty(v.Elem().Interface())
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	}
	return false
}
