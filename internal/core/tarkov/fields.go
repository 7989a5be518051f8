package tarkov

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Lookup walks nested objects along path.
func Lookup(obj map[string]any, path ...string) any {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// Str returns the string at path, or "".
func Str(obj map[string]any, path ...string) string {
	switch v := Lookup(obj, path...).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Num returns the number at path and whether one was present.
func Num(obj map[string]any, path ...string) (float64, bool) {
	switch v := Lookup(obj, path...).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns the boolean at path.
func Bool(obj map[string]any, path ...string) bool {
	v, _ := Lookup(obj, path...).(bool)
	return v
}

// Obj returns the object at path, or nil.
func Obj(obj map[string]any, path ...string) map[string]any {
	v, _ := Lookup(obj, path...).(map[string]any)
	return v
}

// List returns the objects of the array at path.
func List(obj map[string]any, path ...string) []map[string]any {
	return Objects(Lookup(obj, path...))
}

// Strings returns the string elements of the array at path.
func Strings(obj map[string]any, path ...string) []string {
	items, _ := Lookup(obj, path...).([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func matchesName(obj map[string]any, name string) bool {
	name = strings.TrimSpace(name)
	return strings.EqualFold(Str(obj, "name"), name) || strings.EqualFold(Str(obj, "normalizedName"), name)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}
