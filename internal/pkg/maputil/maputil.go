// Package maputil provides tolerant accessors for loosely-typed
// parameter maps (strategy action params, raw broker payload fields).
package maputil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"wheelhouse/internal/pkg/convert"
)

func String(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	raw, ok := params[key]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", raw))
}

func Int(params map[string]any, key string) int {
	if params == nil {
		return 0
	}
	raw, ok := params[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		n, _ := strconv.Atoi(strings.TrimSpace(fmt.Sprintf("%v", v)))
		return n
	}
}

func Int64(params map[string]any, key string) (int64, bool) {
	if params == nil {
		return 0, false
	}
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	return convert.ToInt64(raw)
}

func Float(params map[string]any, key string) float64 {
	if params == nil {
		return 0
	}
	raw, ok := params[key]
	if !ok {
		return 0
	}
	return convert.ToFloat64(raw)
}

// Decimal pulls an exact decimal out of the map. Present-but-unparsable
// values report ok=false, same as absent keys.
func Decimal(params map[string]any, key string) (decimal.Decimal, bool) {
	if params == nil {
		return decimal.Zero, false
	}
	raw, ok := params[key]
	if !ok || raw == nil {
		return decimal.Zero, false
	}
	if s, isStr := raw.(string); isStr && strings.TrimSpace(s) == "" {
		return decimal.Zero, false
	}
	return convert.ToDecimal(raw)
}

// FirstDecimal tries keys in order and returns the first parseable value.
func FirstDecimal(params map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		if d, ok := Decimal(params, key); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}
