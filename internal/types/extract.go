package types

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// CONFIGURATION VALUE EXTRACTION
// =============================================================================
//
// Configuration and context values arrive from YAML, JSON documents and the
// brain's cognition payload, so the Go type behind an interface{} varies:
//   - string:              Plain text values
//   - float64:             JSON numbers (encoding/json, goccy/go-json)
//   - int / int64:         YAML integers and manual construction
//   - bool:                Booleans
//   - []interface{}:       JSON and YAML arrays
//   - []string:            Manual construction
//   - time.Time:           YAML timestamps

// ExtractString extracts a string representation from a configuration value.
func ExtractString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ExtractInt64 extracts an int64 value.
// Returns (value, true) on success, (0, false) if the type is incompatible.
func ExtractInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case float32:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ExtractBool extracts a boolean value.
// Returns (value, true) on success, (false, false) if the type is incompatible.
func ExtractBool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

// ExtractStringSlice extracts a list of strings. A single string becomes a
// one-element slice.
func ExtractStringSlice(v interface{}) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, ExtractString(item))
		}
		return out, true
	case string:
		return []string{x}, true
	default:
		return nil, false
	}
}
