package toolkit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// placeholderNested is emitted in place of a nested complex field once the
// example generator's recursion depth is exhausted, directing the model to
// fetch the enclosing tool's full detail instead of guessing structure.
const placeholderNested = "(nested object omitted, call tool_detail for the full schema)"

// Schema reflects a Go type into a JSON-Schema map suitable for a ToolSpec's
// `parameters` field: inline everything, surface `properties`/`required`
// at the top level.
func Schema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("toolkit: marshaling schema: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("toolkit: unmarshaling schema: %w", err)
	}
	delete(raw, "$schema")
	delete(raw, "$id")

	if raw["type"] != "object" {
		return raw, nil
	}
	out := map[string]any{
		"type":       "object",
		"properties": raw["properties"],
	}
	if req, ok := raw["required"]; ok && req != nil {
		out["required"] = req
	}
	if addProps, ok := raw["additionalProperties"]; ok {
		out["additionalProperties"] = addProps
	}
	return out, nil
}

// fieldHint maps a lowercased, substring-matched field name fragment to a
// semantically suggestive example string. Checked in order; first match
// wins.
var fieldHints = []struct {
	fragment string
	value    string
}{
	{"email", "jane.doe@example.com"},
	{"salary", "85000"},
	{"date", "2024-01-15"},
	{"name", "Jane Doe"},
	{"phone", "+1-555-0100"},
	{"address", "123 Main St"},
	{"city", "Springfield"},
	{"country", "US"},
	{"url", "https://example.com"},
	{"id", "123"},
}

// GenerateExample produces a structurally plausible example value for v's
// type: primitive defaults, field-name-driven strings, enum-first-variant
// for types exposing an EnumValues() []string method, singleton
// collections/maps, and a depth-bounded placeholder for nested complex
// fields (recursion depth 1: a top-level struct's own complex fields are
// expanded once, anything nested below that becomes the placeholder).
func GenerateExample(v reflect.Type) any {
	return generateExample(v, 0, "")
}

func generateExample(t reflect.Type, depth int, fieldName string) any {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if enumer, ok := reflect.New(t).Interface().(interface{ EnumValues() []string }); ok {
		if values := enumer.EnumValues(); len(values) > 0 {
			return values[0]
		}
	}

	switch t.Kind() {
	case reflect.String:
		return exampleForFieldName(fieldName)
	case reflect.Bool:
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 1
	case reflect.Float32, reflect.Float64:
		return 1.0
	case reflect.Slice, reflect.Array:
		if depth >= 2 {
			return placeholderNested
		}
		elem := generateExample(t.Elem(), depth, fieldName)
		return []any{elem}
	case reflect.Map:
		if depth >= 2 {
			return placeholderNested
		}
		keyEx := "key"
		valEx := generateExample(t.Elem(), depth+1, fieldName)
		return map[string]any{keyEx: valEx}
	case reflect.Struct:
		if depth >= 2 {
			return placeholderNested
		}
		return generateStructExample(t, depth)
	default:
		return nil
	}
}

func generateStructExample(t reflect.Type, depth int) map[string]any {
	out := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		jsonTag := f.Tag.Get("json")
		name := f.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
		}

		if override, ok := exampleOverride(f); ok {
			out[name] = override
			continue
		}

		underlying := f.Type
		for underlying.Kind() == reflect.Ptr {
			underlying = underlying.Elem()
		}
		fieldDepth := depth
		if underlying.Kind() == reflect.Struct || underlying.Kind() == reflect.Slice || underlying.Kind() == reflect.Map {
			fieldDepth = depth + 1
		}
		out[name] = generateExample(f.Type, fieldDepth, name)
	}
	return out
}

// exampleOverride reads a `jsonschema:"example=..."` tag, a pre-declared
// example metadata override.
func exampleOverride(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("jsonschema")
	if tag == "" {
		return "", false
	}
	for _, part := range strings.Split(tag, ",") {
		if v, ok := strings.CutPrefix(part, "example="); ok {
			return v, true
		}
	}
	return "", false
}

// descriptionOverride reads a `jsonschema:"description=..."` tag.
func descriptionOverride(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("jsonschema")
	if tag == "" {
		return "", false
	}
	for _, part := range strings.Split(tag, ",") {
		if v, ok := strings.CutPrefix(part, "description="); ok {
			return v, true
		}
	}
	return "", false
}

func exampleForFieldName(name string) string {
	lower := strings.ToLower(name)
	for _, hint := range fieldHints {
		if strings.Contains(lower, hint.fragment) {
			return hint.value
		}
	}
	return "example-value"
}

// DefaultDescription builds a default human-readable description for a tool
// from its name and the Go type of its argument struct, used when no
// explicit description was supplied at registration.
func DefaultDescription(toolName string, argType reflect.Type) string {
	if argType == nil {
		return fmt.Sprintf("Invokes %s.", toolName)
	}
	for argType.Kind() == reflect.Ptr {
		argType = argType.Elem()
	}
	if argType.Kind() != reflect.Struct || argType.NumField() == 0 {
		return fmt.Sprintf("Invokes %s.", toolName)
	}
	names := make([]string, 0, argType.NumField())
	for i := 0; i < argType.NumField(); i++ {
		f := argType.Field(i)
		if f.IsExported() {
			names = append(names, f.Name)
		}
	}
	return fmt.Sprintf("Invokes %s with parameters: %s.", toolName, strings.Join(names, ", "))
}

// ParamSpecsFor reflects argType's exported fields into ParamSpec entries,
// applying description/example tag overrides and the example generator for
// unannotated fields.
func ParamSpecsFor(argType reflect.Type) []ParamSpec {
	for argType != nil && argType.Kind() == reflect.Ptr {
		argType = argType.Elem()
	}
	if argType == nil || argType.Kind() != reflect.Struct {
		return nil
	}

	specs := make([]ParamSpec, 0, argType.NumField())
	for i := 0; i < argType.NumField(); i++ {
		f := argType.Field(i)
		if !f.IsExported() {
			continue
		}
		jsonTag := f.Tag.Get("json")
		name := f.Name
		omitempty := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, p := range parts[1:] {
				if p == "omitempty" {
					omitempty = true
				}
			}
		}

		desc, _ := descriptionOverride(f)
		example, hasOverride := exampleOverride(f)
		var exampleValue any = example
		if !hasOverride {
			exampleValue = generateExample(f.Type, 0, name)
		}

		required := !omitempty
		if strings.Contains(f.Tag.Get("jsonschema"), "required") {
			required = true
		}

		specs = append(specs, ParamSpec{
			Name:        name,
			Type:        f.Type.String(),
			Description: desc,
			Required:    required,
			Example:     exampleValue,
		})
	}
	return specs
}
