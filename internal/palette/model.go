// Package palette parses texture palette files into a single in-memory model and
// indexes them by material and item id.
package palette

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/btg/internal/colour"
)

// DefaultGroupID is the conventional name of an item's primary colour group.
const DefaultGroupID = "base"

var (
	// ErrUnsupportedShape means no known palette layout matched the file.
	ErrUnsupportedShape = errors.New("unsupported palette file format")
	// ErrFileNotFound is returned by direct single-file lookups.
	ErrFileNotFound = errors.New("palette file not found")
	// ErrItemNotFound means a palette file exists but does not declare the item.
	ErrItemNotFound = errors.New("palette item not found")
	// ErrGroupNotFound means an item has no group with the requested id.
	ErrGroupNotFound = errors.New("palette group not found")
	// ErrNoColours means every group of an item is missing or empty.
	ErrNoColours = errors.New("palette item has no colours")
)

// ColorError reports a colour value that failed to parse, with enough context to
// find it in the source file.
type ColorError struct {
	File    string
	ItemID  string
	GroupID string
	Value   string
	Err     error
}

func (e *ColorError) Error() string {
	return fmt.Sprintf("%s: item %q group %q: invalid colour %q: %v", e.File, e.ItemID, e.GroupID, e.Value, e.Err)
}

func (e *ColorError) Unwrap() error {
	return e.Err
}

// Group is an ordered list of colours. Position is meaningful: it defines the
// correspondence with groups of other palettes.
type Group struct {
	Colors  []colour.RGBA
	Comment string
}

// Len returns the number of colours in the group; a nil group has none.
func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Colors)
}

// Item is one named palette (for example "oak") with one or more colour groups.
// Items are never modified after parsing.
type Item struct {
	ID       string
	Name     string
	Path     string
	Material string
	Groups   map[string]*Group
	Metadata map[string]any
}

// Group returns the group with the given id.
func (it *Item) Group(id string) (*Group, error) {
	g, ok := it.Groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: group %q in item %q (available: %s)",
			ErrGroupNotFound, id, it.ID, strings.Join(it.GroupIDs(), ", "))
	}
	return g, nil
}

// DefaultGroup returns "base" when present, otherwise the lexicographically first
// group id.
func (it *Item) DefaultGroup() (string, *Group) {
	if g, ok := it.Groups[DefaultGroupID]; ok {
		return DefaultGroupID, g
	}
	ids := it.GroupIDs()
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], it.Groups[ids[0]]
}

// GroupOrDefault resolves id, falling back to DefaultGroup when id is empty.
func (it *Item) GroupOrDefault(id string) (string, *Group, error) {
	if id == "" {
		gid, g := it.DefaultGroup()
		if g == nil {
			return "", nil, fmt.Errorf("%w: item %q has no groups", ErrGroupNotFound, it.ID)
		}
		return gid, g, nil
	}
	g, err := it.Group(id)
	if err != nil {
		return "", nil, err
	}
	return id, g, nil
}

// GroupIDs returns the item's group ids in sorted order.
func (it *Item) GroupIDs() []string {
	ids := make([]string, 0, len(it.Groups))
	for id := range it.Groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
