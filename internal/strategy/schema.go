package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidateConfig checks an instance config against a narrow schema
// dialect: top-level object, `properties` with scalar/array/object
// member types, `required`, and `additionalProperties: false`. That is
// the whole dialect; richer keywords in a stored schema are ignored
// rather than half-enforced. Returns human-readable violations, empty
// when the config passes.
func ValidateConfig(schema, config map[string]any) []string {
	if len(schema) == 0 {
		return nil
	}
	var violations []string
	if t, ok := schema["type"].(string); ok && t != "object" {
		return []string{fmt.Sprintf("unsupported schema root type %q", t)}
	}
	properties, _ := schema["properties"].(map[string]any)

	for _, name := range stringList(schema["required"]) {
		if _, present := config[name]; !present {
			violations = append(violations, fmt.Sprintf("missing required property %q", name))
		}
	}

	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	additional := true
	if v, ok := schema["additionalProperties"].(bool); ok {
		additional = v
	}
	for _, key := range keys {
		propSchema, known := properties[key]
		if !known {
			if !additional {
				violations = append(violations, fmt.Sprintf("unknown property %q", key))
			}
			continue
		}
		prop, _ := propSchema.(map[string]any)
		wantType, _ := prop["type"].(string)
		if wantType == "" {
			continue
		}
		if !typeMatches(config[key], wantType) {
			violations = append(violations,
				fmt.Sprintf("property %q must be of type %s", key, wantType))
		}
	}
	return violations
}

func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func typeMatches(value any, wantType string) bool {
	switch wantType {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumber(value)
	case "integer":
		return isInteger(value)
	case "array":
		switch value.(type) {
		case []any, []string:
			return true
		}
		return false
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		// Unknown type keyword in a stored schema: do not fail configs
		// on a dialect this validator never promised.
		return true
	}
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case int, int32, int64, float32, float64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	default:
		return false
	}
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float32:
		return float64(v) == math.Trunc(float64(v))
	case float64:
		return v == math.Trunc(v)
	case json.Number:
		_, err := v.Int64()
		return err == nil
	default:
		return false
	}
}
