package palette

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/util"
)

// NormalizeResult describes what normalising one file did.
type NormalizeResult struct {
	File         string
	Replacements int
	Written      bool
}

// Changed reports whether the file had non-canonical colour text.
func (r NormalizeResult) Changed() bool {
	return r.Replacements > 0
}

// NormalizeDir normalises every palette file under root. Files that cannot be read
// or are not valid JSON are logged and skipped.
func NormalizeDir(root string, dryRun bool, logger hclog.Logger) ([]NormalizeResult, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	files, err := FindPaletteFiles(root)
	if err != nil {
		return nil, err
	}

	results := make([]NormalizeResult, 0, len(files))
	for _, file := range files {
		res, err := NormalizeFile(file, dryRun)
		if err != nil {
			logger.Error("failed to normalise palette file", "file", file, "error", err)
			continue
		}
		switch {
		case !res.Changed():
			logger.Debug("no changes", "file", file)
		case dryRun:
			logger.Info("would normalise", "file", file, "replacements", res.Replacements, "dry_run", true)
		default:
			logger.Info("normalised", "file", file, "replacements", res.Replacements)
		}
		results = append(results, res)
	}
	return results, nil
}

// NormalizeFile rewrites colour strings in one palette file to the canonical
// #rrggbbaa form. Only the colour text changes; key order, whitespace and every
// other value are kept byte for byte. The file is not touched when it is already
// canonical or when dryRun is set.
func NormalizeFile(path string, dryRun bool) (NormalizeResult, error) {
	res := NormalizeResult{File: path}

	data, err := os.ReadFile(path) // #nosec G304 - palette path supplied by the user, intended to be read
	if err != nil {
		return res, fmt.Errorf("failed to read palette file: %w", err)
	}

	out, n, err := NormalizeJSON(data)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Replacements = n
	if n == 0 || dryRun {
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("failed to stat palette file: %w", err)
	}
	if err := util.WriteFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return res, err
	}
	res.Written = true
	return res, nil
}

// NormalizeJSON returns data with hex colour strings canonicalised and the number
// of strings that changed. For schema-tagged files only values under
// items[].groups.<id>.colors[] are considered; legacy files have every string
// value that looks like a hex colour rewritten.
func NormalizeJSON(data []byte) ([]byte, int, error) {
	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON: %w", err)
	}
	schemaFile := probe["schema"] == SchemaName

	type span struct {
		start, end int
		text       string
	}
	var edits []span

	dec := json.NewDecoder(bytes.NewReader(data))
	var stack []frame
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("invalid JSON: %w", err)
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, frame{object: true, expectKey: true})
			case '[':
				stack = append(stack, frame{})
			case '}', ']':
				stack = stack[:len(stack)-1]
				advance(stack)
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectKey {
				stack[n-1].key = v
				stack[n-1].expectKey = false
				continue
			}
			if !schemaFile || isSchemaColourPath(stack) {
				if canon, ok := canonicalHex(v); ok && canon != v {
					end := int(dec.InputOffset())
					quoted := `"` + v + `"`
					start := end - len(quoted)
					// Strings carrying escapes do not appear verbatim; leave them.
					if start >= 0 && string(data[start:end]) == quoted {
						edits = append(edits, span{start: start, end: end, text: `"` + canon + `"`})
					}
				}
			}
			advance(stack)
		default:
			advance(stack)
		}
	}

	if len(edits) == 0 {
		return data, 0, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	last := 0
	for _, e := range edits {
		buf.Write(data[last:e.start])
		buf.WriteString(e.text)
		last = e.end
	}
	buf.Write(data[last:])
	return buf.Bytes(), len(edits), nil
}

// frame tracks one open JSON container while streaming tokens.
type frame struct {
	object    bool
	expectKey bool
	key       string
}

// advance marks the current container's value as consumed.
func advance(stack []frame) {
	if n := len(stack); n > 0 && stack[n-1].object {
		stack[n-1].expectKey = true
	}
}

// isSchemaColourPath matches items[].groups.<id>.colors[].
func isSchemaColourPath(stack []frame) bool {
	if len(stack) != 6 {
		return false
	}
	return stack[0].object && stack[0].key == "items" &&
		!stack[1].object &&
		stack[2].object && stack[2].key == "groups" &&
		stack[3].object &&
		stack[4].object && stack[4].key == "colors" &&
		!stack[5].object
}

// canonicalHex returns the canonical text of s when it looks like a hex colour.
func canonicalHex(s string) (string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(s), "#") {
		return "", false
	}
	canon, err := colour.NormalizeHex(s)
	if err != nil {
		return "", false
	}
	return canon, true
}
