package palette

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Ref locates an indexed item and the file it came from.
type Ref struct {
	File string
	Item *Item
}

// Duplicate records an item id registered twice for the same material.
type Duplicate struct {
	Material string
	ID       string
	Previous string
	Current  string
}

// Skipped records a palette file that could not be parsed during a scan.
type Skipped struct {
	File string
	Err  error
}

// Index maps material -> item id -> Ref. It is built once per run and passed to
// whatever needs it.
type Index struct {
	byMaterial map[string]map[string]Ref
	duplicates []Duplicate
	skipped    []Skipped
	logger     hclog.Logger
}

// NewIndex creates an empty index.
func NewIndex(logger hclog.Logger) *Index {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Index{
		byMaterial: make(map[string]map[string]Ref),
		logger:     logger,
	}
}

// BuildIndex scans root recursively for palette files. Files that fail to parse are
// logged and skipped; the scan continues.
func BuildIndex(root string, logger hclog.Logger) (*Index, error) {
	idx := NewIndex(logger)

	files, err := FindPaletteFiles(root)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		items, err := ParseFile(file)
		if err != nil {
			idx.logger.Warn("skipping palette file", "file", file, "error", err)
			idx.skipped = append(idx.skipped, Skipped{File: file, Err: err})
			continue
		}
		for _, item := range items {
			idx.Add(file, item)
		}
	}

	idx.logger.Debug("palette index built", "root", root, "files", len(files),
		"materials", len(idx.byMaterial), "skipped", len(idx.skipped))
	return idx, nil
}

// FindPaletteFiles returns every palette file under root in sorted order.
func FindPaletteFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access palettes directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("palettes path is not a directory: %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), FileSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan palettes directory: %w", err)
	}

	slices.Sort(files)
	return files, nil
}

// Add registers item under its material. A later registration of the same id
// replaces the earlier one and is recorded as a duplicate.
func (idx *Index) Add(file string, item *Item) {
	byID, ok := idx.byMaterial[item.Material]
	if !ok {
		byID = make(map[string]Ref)
		idx.byMaterial[item.Material] = byID
	}

	if prev, exists := byID[item.ID]; exists {
		idx.logger.Warn("duplicate palette id, last one wins",
			"material", item.Material, "id", item.ID, "previous", prev.File, "current", file)
		idx.duplicates = append(idx.duplicates, Duplicate{
			Material: item.Material,
			ID:       item.ID,
			Previous: prev.File,
			Current:  file,
		})
	}

	byID[item.ID] = Ref{File: file, Item: item}
}

// Lookup returns the item registered for material and id.
func (idx *Index) Lookup(material, id string) (Ref, bool) {
	ref, ok := idx.byMaterial[material][id]
	return ref, ok
}

// HasMaterial reports whether any item is registered for material.
func (idx *Index) HasMaterial(material string) bool {
	_, ok := idx.byMaterial[material]
	return ok
}

// IDs returns the item ids registered for material, sorted.
func (idx *Index) IDs(material string) []string {
	byID := idx.byMaterial[material]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Materials returns the indexed materials, sorted.
func (idx *Index) Materials() []string {
	out := make([]string, 0, len(idx.byMaterial))
	for m := range idx.byMaterial {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Len returns the total number of indexed items.
func (idx *Index) Len() int {
	n := 0
	for _, byID := range idx.byMaterial {
		n += len(byID)
	}
	return n
}

// Duplicates returns the duplicate registrations seen while building the index.
func (idx *Index) Duplicates() []Duplicate {
	return idx.duplicates
}

// Skipped returns the files that were skipped during the scan.
func (idx *Index) Skipped() []Skipped {
	return idx.skipped
}

// FindItem loads a single palette file and returns the item with the given id.
// relPath is resolved against root unless it is absolute. Unlike BuildIndex, a
// file that fails to parse is an error.
func FindItem(root, relPath, itemID string) (*Item, error) {
	path := relPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, relPath)
	}

	items, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.ID == itemID {
			return item, nil
		}
	}

	return nil, fmt.Errorf("%w: %q in %s", ErrItemNotFound, itemID, path)
}

