package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize converts v into its canonical stored representation.
// Whole-number floats become int64, every slice becomes []any.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return float64(val), nil
		}
		return int64(val), nil
	case float32:
		return normalizeFloat(float64(val)), nil
	case float64:
		return normalizeFloat(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return normalizeFloat(f), nil
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out, nil
	case []int:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = int64(item)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// Clone returns a copy of a normalised value that does not share list storage.
func Clone(v any) any {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		copy(out, list)
		return out
	}
	return v
}

// Encode serializes a value for byte-oriented backends.
func Encode(v any) ([]byte, error) {
	n, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

// Decode is the inverse of Encode.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return Normalize(raw)
}

// DecodeMap decodes a JSON object of path -> value, normalising every value.
func DecodeMap(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	raw := make(map[string]any)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode store snapshot: %w", err)
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", k, err)
		}
		if n != nil {
			out[k] = n
		}
	}
	return out, nil
}

// Format renders a value the way templates display it:
// lists as "[a, b]", booleans as true/false, whole numbers without decimals.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = Format(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	}
	if n, err := Normalize(v); err == nil {
		return Format(n)
	}
	return fmt.Sprint(v)
}
