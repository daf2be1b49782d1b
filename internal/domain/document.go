package domain

import (
	"strconv"
	"strings"
)

// valueAt walks a dotted path through nested JSON objects.
func valueAt(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func stringAt(doc map[string]any, path string) string {
	v, _ := valueAt(doc, path)
	s, _ := v.(string)
	return s
}

// normalizeEmailAt rewrites the string at path in place. Absent or
// non-string values are left alone.
func normalizeEmailAt(doc map[string]any, path string) {
	parts := strings.Split(path, ".")
	parent := doc
	if len(parts) > 1 {
		v, ok := valueAt(doc, strings.Join(parts[:len(parts)-1], "."))
		if !ok {
			return
		}
		if parent, ok = v.(map[string]any); !ok {
			return
		}
	}
	last := parts[len(parts)-1]
	if s, ok := parent[last].(string); ok {
		parent[last] = NormalizeEmail(s)
	}
}

// numberAt reads a JSON number, or a string holding one.
func numberAt(doc map[string]any, path string) float64 {
	v, _ := valueAt(doc, path)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	default:
		return 0
	}
}
