package palette

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// ValidationResult is the outcome of checking one palette file.
type ValidationResult struct {
	File     string
	Items    int
	Warnings []string
	Err      error
}

// OK reports whether the file passed.
func (r ValidationResult) OK() bool {
	return r.Err == nil
}

// ValidateFile parses a palette file and applies semantic checks: the file must
// declare at least one item, item ids must be unique within the file, and every
// colour must parse. Empty colour groups are reported as warnings because they
// cannot be used as a mapping source or destination.
func ValidateFile(path string) ValidationResult {
	res := ValidationResult{File: path}

	items, err := ParseFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	if len(items) == 0 {
		res.Err = errors.New("no palette items parsed")
		return res
	}
	res.Items = len(items)

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			res.Err = fmt.Errorf("duplicate item id %q", item.ID)
			return res
		}
		seen[item.ID] = true

		for _, gid := range item.GroupIDs() {
			if item.Groups[gid].Len() == 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s.%s: group has no colours", item.ID, gid))
			}
		}
	}
	return res
}

// ValidateDir validates every palette file under root and logs each outcome.
// It returns the per-file results; the caller decides how to treat failures.
func ValidateDir(root string, logger hclog.Logger) ([]ValidationResult, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	files, err := FindPaletteFiles(root)
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		res := ValidateFile(file)
		for _, w := range res.Warnings {
			logger.Warn(w, "file", file)
		}
		if res.OK() {
			logger.Info("OK", "file", file, "items", res.Items)
		} else {
			logger.Error("FAIL", "file", file, "error", res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}
