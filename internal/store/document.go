package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// The helpers below give JSON-backed drivers (memory, postgres) the same
// filter and $set semantics MongoDB applies natively.

// Document is a decoded JSON object.
type Document = map[string]any

// ToDocument converts a struct or map to its JSON object form.
func ToDocument(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return doc, nil
}

// DocumentID returns the string "_id" of doc, or "".
func DocumentID(doc Document) string {
	id, _ := doc["_id"].(string)
	return id
}

// Matches reports whether doc satisfies every equality in filter.
func Matches(doc Document, filter Filter) bool {
	for path, want := range filter {
		got, ok := lookup(doc, path)
		if !ok || !reflect.DeepEqual(got, normalize(want)) {
			return false
		}
	}
	return true
}

// ApplySet writes set into doc and reports whether any value changed.
func ApplySet(doc Document, set Set) bool {
	changed := false
	for _, path := range sortedKeys(set) {
		value := normalize(set[path])
		if old, ok := lookup(doc, path); ok && reflect.DeepEqual(old, value) {
			continue
		}
		assign(doc, path, value)
		changed = true
	}
	return changed
}

// Nest expands dotted filter paths into a nested object, which is both the
// seed of an upserted document and a JSONB containment pattern.
func Nest(filter Filter) Document {
	doc := Document{}
	for _, path := range sortedKeys(filter) {
		assign(doc, path, normalize(filter[path]))
	}
	return doc
}

// DecodeInto re-encodes v (a document or slice of documents) into out.
func DecodeInto(v any, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func lookup(doc Document, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func assign(doc Document, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// normalize maps a Go value to what it looks like after a JSON round trip,
// so int64(3) compares equal to a stored float64(3).
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
