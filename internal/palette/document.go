package palette

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/util"
)

// DefaultSchemaRef is the $schema reference written into generated palette files.
const DefaultSchemaRef = "../../schemas/texture-palettes.schema.json"

// Document is the canonical on-disk palette file.
type Document struct {
	SchemaRef string         `json:"$schema,omitempty"`
	Schema    string         `json:"schema"`
	Version   int            `json:"version"`
	Generator *Generator     `json:"generator,omitempty"`
	Items     []DocumentItem `json:"items"`
}

// Generator identifies the tool that wrote a document.
type Generator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DocumentItem is one item as written to disk.
type DocumentItem struct {
	ID       string                   `json:"id"`
	Name     string                   `json:"name"`
	Path     string                   `json:"path,omitempty"`
	Material string                   `json:"material"`
	Groups   map[string]DocumentGroup `json:"groups"`
	Metadata map[string]any           `json:"metadata,omitempty"`
}

// DocumentGroup is a colour group as written to disk.
type DocumentGroup struct {
	Comment string   `json:"comment,omitempty"`
	Colors  []string `json:"colors"`
}

// NewDocument wraps items in the canonical schema envelope.
func NewDocument(generatorVersion string, items ...*Item) *Document {
	doc := &Document{
		SchemaRef: DefaultSchemaRef,
		Schema:    SchemaName,
		Version:   1,
		Generator: &Generator{Name: "btg", Version: generatorVersion},
		Items:     make([]DocumentItem, 0, len(items)),
	}
	for _, it := range items {
		di := DocumentItem{
			ID:       it.ID,
			Name:     it.Name,
			Path:     it.Path,
			Material: it.Material,
			Groups:   make(map[string]DocumentGroup, len(it.Groups)),
			Metadata: it.Metadata,
		}
		for gid, g := range it.Groups {
			di.Groups[gid] = DocumentGroup{Comment: g.Comment, Colors: colour.HexList(g.Colors)}
		}
		doc.Items = append(doc.Items, di)
	}
	return doc
}

// Marshal encodes the document with two-space indentation and a trailing newline.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode palette document: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the document to path, creating parent directories.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil { // #nosec G306 - palette files are shared project data
		return fmt.Errorf("failed to save palette file: %w", err)
	}
	return nil
}
