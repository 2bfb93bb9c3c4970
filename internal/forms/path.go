package forms

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// FieldEdit sets the value at Path. Paths are dot separated object keys
// with bracketed array indexes: "budget.income.net_income.expected",
// "answers[3]", "accounts[0].current_balance".
type FieldEdit struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// parsePath converts a field path into jsonparser keys.
func parsePath(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty field path")
	}
	var keys []string
	for _, seg := range strings.Split(path, ".") {
		name := seg
		var idx []string
		if i := strings.IndexByte(seg, '['); i >= 0 {
			name = seg[:i]
			rest := seg[i:]
			for rest != "" {
				if rest[0] != '[' {
					return nil, fmt.Errorf("bad field path %q", path)
				}
				end := strings.IndexByte(rest, ']')
				if end < 0 {
					return nil, fmt.Errorf("bad field path %q: unclosed index", path)
				}
				n, err := strconv.Atoi(rest[1:end])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("bad field path %q: index %q", path, rest[1:end])
				}
				idx = append(idx, "["+strconv.Itoa(n)+"]")
				rest = rest[end+1:]
			}
		}
		if name == "" && (len(keys) > 0 || len(idx) == 0) {
			return nil, fmt.Errorf("bad field path %q: empty segment", path)
		}
		if name != "" {
			keys = append(keys, name)
		}
		keys = append(keys, idx...)
	}
	return keys, nil
}

// applyEdit returns data with the value at path replaced. Array
// elements must already exist; object keys are created as needed.
func applyEdit(data []byte, e FieldEdit) ([]byte, error) {
	keys, err := parsePath(e.Path)
	if err != nil {
		return nil, err
	}
	if len(e.Value) == 0 || !json.Valid(e.Value) {
		return nil, fmt.Errorf("field %q: value is not valid JSON", e.Path)
	}
	for i, k := range keys {
		if !strings.HasPrefix(k, "[") {
			continue
		}
		if _, _, _, err := jsonparser.Get(data, keys[:i+1]...); err != nil {
			return nil, fmt.Errorf("field %q: index out of range", e.Path)
		}
	}
	out, err := jsonparser.Set(data, e.Value, keys...)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", e.Path, err)
	}
	return out, nil
}
