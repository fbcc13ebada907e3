package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func wheelSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"target_symbols"},
		"properties": map[string]any{
			"target_symbols":      map[string]any{"type": "array"},
			"max_concurrent_puts": map[string]any{"type": "integer"},
			"target_delta":        map[string]any{"type": "number"},
			"allow_assignment":    map[string]any{"type": "boolean"},
			"note":                map[string]any{"type": "string"},
		},
	}
}

func TestValidateConfigPasses(t *testing.T) {
	config := map[string]any{
		"target_symbols":      []any{"AAPL"},
		"max_concurrent_puts": 2,
		"target_delta":        0.3,
		"allow_assignment":    true,
		"note":                "demo",
	}
	assert.Empty(t, ValidateConfig(wheelSchema(), config))
}

func TestValidateConfigMissingRequired(t *testing.T) {
	violations := ValidateConfig(wheelSchema(), map[string]any{"note": "x"})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "target_symbols")
}

func TestValidateConfigUnknownProperty(t *testing.T) {
	config := map[string]any{
		"target_symbols": []any{"AAPL"},
		"surprise":       1,
	}
	violations := ValidateConfig(wheelSchema(), config)
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], `unknown property "surprise"`)
}

func TestValidateConfigTypeMismatches(t *testing.T) {
	config := map[string]any{
		"target_symbols":      "AAPL",
		"max_concurrent_puts": 2.5,
		"target_delta":        "high",
		"allow_assignment":    "yes",
	}
	violations := ValidateConfig(wheelSchema(), config)
	assert.Len(t, violations, 4)
}

func TestValidateConfigIntegerAcceptsIntegralFloat(t *testing.T) {
	// YAML/JSON decoding often hands integers over as float64.
	config := map[string]any{
		"target_symbols":      []any{"AAPL"},
		"max_concurrent_puts": float64(3),
	}
	assert.Empty(t, ValidateConfig(wheelSchema(), config))
}

func TestValidateConfigEmptySchemaAllowsAnything(t *testing.T) {
	assert.Empty(t, ValidateConfig(nil, map[string]any{"whatever": 1}))
}

func TestValidateConfigNonObjectRoot(t *testing.T) {
	violations := ValidateConfig(map[string]any{"type": "array"}, map[string]any{})
	assert.Len(t, violations, 1)
}
