package report

import (
	"reflect"
	"strings"
	"time"
)

const schemaDraft = "http://json-schema.org/draft-07/schema#"

// Schema is a JSON schema node.
type Schema struct {
	Schema      string             `json:"$schema,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        any                `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

// JSONSchema derives the schema of the json report format from Summary.
func JSONSchema() *Schema {
	defs := make(map[string]*Schema)
	props, required := structToProperties(reflect.TypeFor[Summary](), defs)

	return &Schema{
		Schema:      schemaDraft,
		Title:       "depinfer report",
		Description: "Output of depinfer report --format json",
		Type:        "object",
		Properties:  props,
		Required:    required,
		Definitions: defs,
	}
}

func structToProperties(t reflect.Type, defs map[string]*Schema) (map[string]*Schema, []string) {
	props := make(map[string]*Schema)

	var required []string

	for field := range fields(t) {
		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			continue
		}

		props[name] = typeToSchema(field.Type, defs)

		if opts != "omitempty" {
			required = append(required, name)
		}
	}

	return props, required
}

func fields(t reflect.Type) func(yield func(reflect.StructField) bool) {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			if !yield(t.Field(i)) {
				return
			}
		}
	}
}

// typeToSchema maps a Go type to its encoding/json shape. Slices and maps
// may encode as null.
func typeToSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Slice:
		return &Schema{Type: []string{"array", "null"}, Items: typeToSchema(t.Elem(), defs)}
	case reflect.Map:
		return &Schema{Type: []string{"object", "null"}}
	case reflect.Struct:
		if t == reflect.TypeFor[time.Time]() {
			return &Schema{Type: "string", Description: "RFC 3339 timestamp"}
		}

		name := t.Name()
		if _, exists := defs[name]; !exists {
			props, required := structToProperties(t, defs)
			defs[name] = &Schema{Type: "object", Properties: props, Required: required}
		}

		return &Schema{Ref: "#/definitions/" + name}
	case reflect.Pointer:
		return typeToSchema(t.Elem(), defs)
	default:
		return &Schema{}
	}
}
