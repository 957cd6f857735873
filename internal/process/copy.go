package process

// CopyMap returns a deep copy of m. Nested maps and lists are copied;
// other values are shared.
func CopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies the map and list values found in decoded JSON.
func CopyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		return CopyMap(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = CopyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}
