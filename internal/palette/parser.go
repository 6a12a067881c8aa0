package palette

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/util"
)

const (
	// SchemaName is the discriminator of the current palette file format.
	SchemaName = "texture-palettes"
	// FileSuffix is the suffix every palette file carries.
	FileSuffix = ".texture-palettes.json"
)

// shapeDetector recognises one palette file layout. It reports ok=false when the
// layout does not apply so the next detector can try.
type shapeDetector struct {
	name   string
	detect func(raw map[string]any, file string) (items []*Item, ok bool, err error)
}

// detectors are tried in order; the first match wins.
var detectors = []shapeDetector{
	{name: "schema", detect: detectSchema},
	{name: "legacy-map", detect: detectLegacyMap},
	{name: "legacy-list", detect: detectLegacyList},
	{name: "legacy-single", detect: detectLegacySingle},
}

// ParseFile reads and parses a palette file.
func ParseFile(path string) ([]*Item, error) {
	data, err := os.ReadFile(path) // #nosec G304 - palette path supplied by the user, intended to be read
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read palette file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses palette JSON. file is used for error messages and to infer the
// material of legacy items from the parent directory name.
func Parse(data []byte, file string) ([]*Item, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", file, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: top level must be a JSON object", ErrUnsupportedShape, file)
	}

	for _, d := range detectors {
		items, ok, err := d.detect(obj, file)
		if err != nil {
			return nil, err
		}
		if ok {
			return items, nil
		}
	}

	return nil, fmt.Errorf("%w: %s: expected schema %q or a legacy palettes layout",
		ErrUnsupportedShape, file, SchemaName)
}

// detectSchema handles {"schema":"texture-palettes","items":[...]}.
func detectSchema(raw map[string]any, file string) ([]*Item, bool, error) {
	if raw["schema"] != SchemaName {
		return nil, false, nil
	}

	itemsRaw, ok := raw["items"].([]any)
	if !ok && raw["items"] != nil {
		return nil, true, fmt.Errorf("%s: 'items' must be a list", file)
	}

	items := make([]*Item, 0, len(itemsRaw))
	for i, entry := range itemsRaw {
		it, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, ok := stringField(it, "id")
		if !ok || id == "" {
			return nil, true, fmt.Errorf("%s: items[%d] is missing 'id'", file, i)
		}

		item := &Item{
			ID:       id,
			Name:     stringOr(it, "name", id),
			Path:     stringOr(it, "path", ""),
			Material: stringOr(it, "material", inferMaterial(file)),
			Groups:   make(map[string]*Group),
			Metadata: objectField(it, "metadata"),
		}

		groupsRaw, _ := it["groups"].(map[string]any)
		gids := make([]string, 0, len(groupsRaw))
		for gid := range groupsRaw {
			gids = append(gids, gid)
		}
		slices.Sort(gids)

		for _, gid := range gids {
			g, ok := groupsRaw[gid].(map[string]any)
			if !ok {
				continue
			}
			colours, err := parseColours(g["colors"], file, id, gid)
			if err != nil {
				return nil, true, err
			}
			item.Groups[gid] = &Group{
				Colors:  colours,
				Comment: stringOr(g, "comment", ""),
			}
		}

		if err := requireColours(item, file); err != nil {
			return nil, true, err
		}
		items = append(items, item)
	}

	return items, true, nil
}

// detectLegacyMap handles {"palettes": {"oak": ["#..."], ...}}.
func detectLegacyMap(raw map[string]any, file string) ([]*Item, bool, error) {
	palettes, ok := raw["palettes"].(map[string]any)
	if !ok {
		return nil, false, nil
	}

	ids := make([]string, 0, len(palettes))
	for id := range palettes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	material := inferMaterial(file)
	items := make([]*Item, 0, len(ids))
	for _, id := range ids {
		if _, ok := palettes[id].([]any); !ok {
			continue
		}
		colours, err := parseColours(palettes[id], file, id, DefaultGroupID)
		if err != nil {
			return nil, true, err
		}
		item := &Item{
			ID:       id,
			Name:     util.TitleFromID(id),
			Material: material,
			Groups:   map[string]*Group{DefaultGroupID: {Colors: colours}},
		}
		if err := requireColours(item, file); err != nil {
			return nil, true, err
		}
		items = append(items, item)
	}

	return items, true, nil
}

// detectLegacyList handles {"palettes": [{"id":"oak","colors":[...]}]}.
func detectLegacyList(raw map[string]any, file string) ([]*Item, bool, error) {
	palettes, ok := raw["palettes"].([]any)
	if !ok {
		return nil, false, nil
	}

	items := make([]*Item, 0, len(palettes))
	for _, entry := range palettes {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, ok := stringField(obj, "id")
		if !ok {
			continue
		}
		item, err := legacyItem(obj, id, file)
		if err != nil {
			return nil, true, err
		}
		items = append(items, item)
	}

	return items, true, nil
}

// detectLegacySingle handles a file that is itself one item: {"id":"oak","colors":[...]}.
func detectLegacySingle(raw map[string]any, file string) ([]*Item, bool, error) {
	id, ok := stringField(raw, "id")
	if !ok {
		return nil, false, nil
	}
	if _, ok := raw["colors"].([]any); !ok {
		return nil, false, nil
	}

	item, err := legacyItem(raw, id, file)
	if err != nil {
		return nil, true, err
	}
	return []*Item{item}, true, nil
}

func legacyItem(obj map[string]any, id, file string) (*Item, error) {
	colours, err := parseColours(obj["colors"], file, id, DefaultGroupID)
	if err != nil {
		return nil, err
	}
	item := &Item{
		ID:       id,
		Name:     stringOr(obj, "name", util.TitleFromID(id)),
		Path:     stringOr(obj, "path", ""),
		Material: stringOr(obj, "material", inferMaterial(file)),
		Groups:   map[string]*Group{DefaultGroupID: {Colors: colours}},
		Metadata: objectField(obj, "metadata"),
	}
	if err := requireColours(item, file); err != nil {
		return nil, err
	}
	return item, nil
}

// requireColours rejects an item whose groups are all missing or empty.
// Individual empty groups are allowed and surface as validation warnings.
func requireColours(item *Item, file string) error {
	for _, g := range item.Groups {
		if g.Len() > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: item %q", ErrNoColours, file, item.ID)
}

// parseColours converts a JSON colour list. A missing or non-list value yields an
// empty group; any entry that is not a valid hex string is an error.
func parseColours(v any, file, itemID, groupID string) ([]colour.RGBA, error) {
	list, ok := v.([]any)
	if !ok {
		return []colour.RGBA{}, nil
	}

	out := make([]colour.RGBA, 0, len(list))
	for _, entry := range list {
		s, ok := entry.(string)
		if !ok {
			return nil, &ColorError{
				File: file, ItemID: itemID, GroupID: groupID,
				Value: fmt.Sprint(entry),
				Err:   fmt.Errorf("%w: not a string", colour.ErrMalformedColor),
			}
		}
		c, err := colour.ParseHex(s)
		if err != nil {
			return nil, &ColorError{File: file, ItemID: itemID, GroupID: groupID, Value: s, Err: err}
		}
		out = append(out, c)
	}
	return out, nil
}

// inferMaterial returns the name of the directory holding the palette file,
// following the palettes/<material>/<id>.texture-palettes.json convention.
func inferMaterial(file string) string {
	parent := filepath.Base(filepath.Dir(file))
	if parent == "." || parent == string(filepath.Separator) || parent == "" {
		return "unknown"
	}
	return parent
}

func stringField(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok
}

func stringOr(obj map[string]any, key, fallback string) string {
	if s, ok := obj[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func objectField(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}
