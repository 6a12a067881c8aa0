// Package template describes template images: the slots a template exposes,
// where each slot's source palette comes from, and how outputs are named.
package template

import (
	"errors"
	"path/filepath"
	"slices"

	"github.com/jmylchreest/btg/internal/palette"
)

const (
	// SchemaName is the discriminator of schema-driven template files.
	SchemaName = "btg-template"
	// FileSuffix is the suffix every template file carries.
	FileSuffix = ".btg-template.json"
)

var (
	// ErrNotTemplate means the file is not a schema-driven template.
	ErrNotTemplate = errors.New("not a schema-driven btg-template")
	// ErrUndeclaredPlaceholder means an output pattern names a slot that does not exist.
	ErrUndeclaredPlaceholder = errors.New("pattern references undeclared placeholder")
)

// Source names the palette the template image was painted with for one slot.
type Source struct {
	// Palette is a palette file path relative to the palettes root, or absolute.
	Palette string `json:"palette"`
	ID      string `json:"id"`
	Group   string `json:"group"`
}

// Slot is one recolourable region of a template.
type Slot struct {
	Name       string   `json:"slot"`
	Material   string   `json:"material"`
	Source     Source   `json:"source"`
	IncludeIDs []string `json:"includeIds,omitempty"`
	ExcludeIDs []string `json:"excludeIds,omitempty"`
}

// Filter restricts ids to the slot's allow list, then removes its deny list.
// Order is preserved.
func (s Slot) Filter(ids []string) []string {
	out := ids
	if len(s.IncludeIDs) > 0 {
		out = slices.DeleteFunc(slices.Clone(out), func(id string) bool {
			return !slices.Contains(s.IncludeIDs, id)
		})
	}
	if len(s.ExcludeIDs) > 0 {
		out = slices.DeleteFunc(slices.Clone(out), func(id string) bool {
			return slices.Contains(s.ExcludeIDs, id)
		})
	}
	return out
}

// Def is a parsed template.
type Def struct {
	ID      string
	Path    string
	Pattern string
	Slots   []Slot
	// File is where the definition was read from; relative image paths resolve
	// against its directory.
	File string
}

// ImagePath returns the template image path, resolving a relative Path against
// the directory of the definition file.
func (d *Def) ImagePath() string {
	if filepath.IsAbs(d.Path) || d.File == "" {
		return d.Path
	}
	return filepath.Join(filepath.Dir(d.File), d.Path)
}

// SlotNames returns the slot names in declaration order.
func (d *Def) SlotNames() []string {
	names := make([]string, len(d.Slots))
	for i, s := range d.Slots {
		names[i] = s.Name
	}
	return names
}

// newSlot fills defaults for a slot read from disk.
func newSlot(name, material string, src Source) Slot {
	if src.Group == "" {
		src.Group = palette.DefaultGroupID
	}
	return Slot{Name: name, Material: material, Source: src}
}
