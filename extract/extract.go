// Package extract pulls values out of semi-structured responses by path.
// Paths address nested maps and sequences with dotted keys and bracketed
// indices, e.g. "Instances[0].State.Name". A wildcard index "[*]" projects
// over every element of a sequence. A path of "" or "." addresses the value
// itself.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const wildcard = -1

type step struct {
	key     string
	indices []int // wildcard or a concrete index
}

// parsePath splits "a.b[1].c" into steps. Malformed bracket expressions are
// treated as part of the key, matching nothing rather than failing.
func parsePath(path string) []step {
	if path == "" || path == "." {
		return nil
	}
	parts := strings.Split(path, ".")
	steps := make([]step, 0, len(parts))
	for _, part := range parts {
		s := step{key: part}
		if open := strings.IndexByte(part, '['); open >= 0 && strings.HasSuffix(part, "]") {
			s.key = part[:open]
			ok := true
			var indices []int
			for _, tok := range strings.Split(strings.TrimSuffix(part[open+1:], "]"), "][") {
				if tok == "*" {
					indices = append(indices, wildcard)
					continue
				}
				n, err := strconv.Atoi(tok)
				if err != nil || n < 0 {
					ok = false
					break
				}
				indices = append(indices, n)
			}
			if ok {
				s.indices = indices
			} else {
				s.key = part
			}
		}
		steps = append(steps, s)
	}
	return steps
}

// Collect returns every value the path matches, flattening wildcards.
// Absent keys and out-of-range indices match nothing.
func Collect(raw any, path string) []any {
	values := []any{raw}
	for _, s := range parsePath(path) {
		var next []any
		for _, v := range values {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			child, ok := m[s.key]
			if !ok {
				continue
			}
			next = append(next, applyIndices(child, s.indices)...)
		}
		values = next
		if len(values) == 0 {
			return nil
		}
	}
	return values
}

// applyIndices resolves the bracket chain of one step. A wildcard over a
// non-sequence yields the value itself: single-element query-protocol lists
// decode to a bare value, not a one-element slice.
func applyIndices(v any, indices []int) []any {
	values := []any{v}
	for _, idx := range indices {
		var next []any
		for _, val := range values {
			seq, ok := val.([]any)
			if !ok {
				if idx == wildcard || idx == 0 {
					next = append(next, val)
				}
				continue
			}
			if idx == wildcard {
				next = append(next, seq...)
				continue
			}
			if idx < len(seq) {
				next = append(next, seq[idx])
			}
		}
		values = next
	}
	return values
}

// Get returns the value at path. Multiple wildcard matches are joined into
// one display string. The second return is false when nothing matches;
// a miss is never an error.
func Get(raw any, path string) (any, bool) {
	matches := Collect(raw, path)
	switch len(matches) {
	case 0:
		return nil, false
	case 1:
		return matches[0], true
	default:
		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = Display(m)
		}
		return strings.Join(parts, ", "), true
	}
}

// GetString returns the display form of the value at path.
func GetString(raw any, path string) (string, bool) {
	v, ok := Get(raw, path)
	if !ok {
		return "", false
	}
	return Display(v), true
}

// Display renders a value for a table cell. JSON numbers arrive as float64;
// integral values print without a decimal point.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
