package tool

import (
	"reflect"
	"strings"
)

// GenerateSchema creates a JSON Schema object map from a Go struct.
//
// Field names come from the "json" tag; fields tagged omitempty are optional,
// all others are required. Supported tags:
//
//	description:"..."  property description
//	format:"date"      JSON schema format
//	type:"string"      overrides the type derived from the Go kind
func GenerateSchema(v any) map[string]any {
	t := reflect.TypeOf(v)
	if t == nil {
		return map[string]any{"type": "object"}
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return map[string]any{
			"type": "object",
		}
	}

	properties := make(map[string]any)
	required := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(jsonTag, ",")
		if name == "" {
			name = field.Name
		}

		typ := field.Tag.Get("type")
		if typ == "" {
			typ = getType(field.Type)
		}
		propSchema := map[string]any{
			"type": typ,
		}
		if desc := field.Tag.Get("description"); desc != "" {
			propSchema["description"] = desc
		}
		if format := field.Tag.Get("format"); format != "" {
			propSchema["format"] = format
		}

		properties[name] = propSchema

		if !strings.Contains(opts, "omitempty") {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func getType(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}
