// Package jsonwalk transforms decoded JSON trees. It is used to import templates
// authored for another mod namespace.
package jsonwalk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jmylchreest/btg/internal/util"
)

// Map returns a copy of v with fn applied to every string leaf. Object keys,
// numbers, booleans and nulls are left alone. v is expected to be the result of
// json.Unmarshal into an any.
func Map(v any, fn func(string) string) any {
	switch t := v.(type) {
	case string:
		return fn(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Map(e, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Map(e, fn)
		}
		return out
	default:
		return v
	}
}

// RewriteNamespace replaces the namespace of every "old:path" string leaf with
// newNS. Strings without that exact prefix are unchanged.
func RewriteNamespace(v any, oldNS, newNS string) any {
	prefix := oldNS + ":"
	return Map(v, func(s string) string {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			return newNS + ":" + rest
		}
		return s
	})
}

// RewriteFile applies RewriteNamespace to the JSON file at in and writes the result
// to out. It returns the number of string leaves that changed.
func RewriteFile(in, out, oldNS, newNS string) (int, error) {
	data, err := os.ReadFile(in) // #nosec G304 - input path supplied by the user, intended to be read
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", in, err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", in, err)
	}

	changed := 0
	prefix := oldNS + ":"
	Map(v, func(s string) string {
		if strings.HasPrefix(s, prefix) {
			changed++
		}
		return s
	})

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(RewriteNamespace(v, oldNS, newNS)); err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", out, err)
	}

	if err := util.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return changed, nil
}
