package grading

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// decode parses raw JSON keeping numbers as json.Number so option ids keep
// their textual form. Empty or malformed input yields nil.
func decode(raw json.RawMessage) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return nil
	}
	return v
}

// scalar renders strings, numbers and booleans as text.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

// text is scalar with missing or structured values read as "".
func text(v any) string {
	s, _ := scalar(v)
	return s
}

// set reads an array as the scalars it holds and a bare scalar as a
// singleton.
func set(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := scalar(e); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := scalar(v); ok {
			return []string{s}
		}
	}
	return nil
}

// typed is scalar prefixed with the JSON kind, so the string "1" and the
// number 1 never compare equal.
func typed(v any) (string, bool) {
	s, ok := scalar(v)
	if !ok {
		return "", false
	}
	switch v.(type) {
	case string:
		return "s:" + s, true
	case bool:
		return "b:" + s, true
	}
	return "n:" + s, true
}

// typedSet is set over typed keys.
func typedSet(v any) []string {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	out := make([]string, 0, len(items))
	for _, e := range items {
		if k, ok := typed(e); ok {
			out = append(out, k)
		}
	}
	return out
}

func field(v any, key string) any {
	if m, ok := v.(map[string]any); ok {
		return m[key]
	}
	return nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// sameSet reports mutual containment, ignoring order and duplicates.
func sameSet(a, b []string) bool {
	for _, v := range a {
		if !contains(b, v) {
			return false
		}
	}
	for _, v := range b {
		if !contains(a, v) {
			return false
		}
	}
	return true
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
