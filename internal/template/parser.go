package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmylchreest/btg/internal/util"
)

// document is the on-disk template layout.
type document struct {
	Schema   string      `json:"schema"`
	Version  int         `json:"version"`
	Template docTemplate `json:"template"`
	Output   docOutput   `json:"output"`
	Slots    []docSlot   `json:"slots"`
}

type docTemplate struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path"`
}

type docOutput struct {
	Pattern string `json:"pattern,omitempty"`
}

type docSlot struct {
	Slot       string     `json:"slot"`
	Material   string     `json:"material"`
	Source     *docSource `json:"source"`
	IncludeIDs []string   `json:"includeIds,omitempty"`
	ExcludeIDs []string   `json:"excludeIds,omitempty"`
}

type docSource struct {
	Palette string `json:"palette"`
	ID      string `json:"id"`
	Group   string `json:"group,omitempty"`
}

// ParseFile reads and parses a schema-driven template file.
func ParseFile(path string) (*Def, error) {
	data, err := os.ReadFile(path) // #nosec G304 - template path supplied by the user, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return Parse(data, path)
}

// IsSchemaTemplate reports whether data declares the btg-template schema.
func IsSchemaTemplate(data []byte) bool {
	var probe struct {
		Schema string `json:"schema"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Schema == SchemaName
}

// Parse parses template JSON read from path. The template id defaults to the
// file name without its suffix and a missing output pattern is inferred from
// the id and slot names.
func Parse(data []byte, path string) (*Def, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: template must be a JSON object: %w", path, err)
	}
	if raw["schema"] != SchemaName {
		return nil, fmt.Errorf("%w: %s", ErrNotTemplate, path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: invalid template: %w", path, err)
	}
	if doc.Version < 1 {
		return nil, fmt.Errorf("%s: version must be >= 1", path)
	}
	if doc.Template.Path == "" {
		return nil, fmt.Errorf("%s: template.path is required", path)
	}
	if len(doc.Slots) == 0 {
		return nil, fmt.Errorf("%s: slots must not be empty", path)
	}

	def := &Def{
		ID:   doc.Template.ID,
		Path: doc.Template.Path,
		File: path,
	}
	if def.ID == "" {
		def.ID = IDFromFile(path)
	}

	seen := make(map[string]bool, len(doc.Slots))
	for i, s := range doc.Slots {
		name := util.TrimBraces(s.Slot)
		switch {
		case name == "":
			return nil, fmt.Errorf("%s: slots[%d]: 'slot' is required", path, i)
		case s.Material == "":
			return nil, fmt.Errorf("%s: slot %q: 'material' is required", path, name)
		case s.Source == nil || s.Source.Palette == "" || s.Source.ID == "":
			return nil, fmt.Errorf("%s: slot %q: 'source.palette' and 'source.id' are required", path, name)
		case seen[name]:
			return nil, fmt.Errorf("%s: duplicate slot %q", path, name)
		}
		seen[name] = true

		slot := newSlot(name, s.Material, Source{
			Palette: s.Source.Palette,
			ID:      s.Source.ID,
			Group:   s.Source.Group,
		})
		slot.IncludeIDs = s.IncludeIDs
		slot.ExcludeIDs = s.ExcludeIDs
		def.Slots = append(def.Slots, slot)
	}

	def.Pattern = doc.Output.Pattern
	if def.Pattern == "" {
		def.Pattern = InferPattern(def.ID, def.SlotNames())
	}

	return def, nil
}

// IDFromFile derives a template id from its file name: "barrel.btg-template.json"
// becomes "barrel".
func IDFromFile(path string) string {
	base := filepath.Base(path)
	if id := util.TrimSuffixFold(base, FileSuffix); id != base {
		return id
	}
	return base[:len(base)-len(filepath.Ext(base))]
}

// Marshal encodes the definition in the canonical template layout.
func (d *Def) Marshal() ([]byte, error) {
	doc := document{
		Schema:   SchemaName,
		Version:  1,
		Template: docTemplate{ID: d.ID, Path: filepath.ToSlash(d.Path)},
		Output:   docOutput{Pattern: d.Pattern},
	}
	for _, s := range d.Slots {
		doc.Slots = append(doc.Slots, docSlot{
			Slot:       s.Name,
			Material:   s.Material,
			Source:     &docSource{Palette: filepath.ToSlash(s.Source.Palette), ID: s.Source.ID, Group: s.Source.Group},
			IncludeIDs: s.IncludeIDs,
			ExcludeIDs: s.ExcludeIDs,
		})
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the definition to path.
func (d *Def) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil { // #nosec G306 - template files are shared project data
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}
