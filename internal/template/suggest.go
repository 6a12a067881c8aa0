package template

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/btg/internal/colour"
	imgutil "github.com/jmylchreest/btg/internal/image"
	"github.com/jmylchreest/btg/internal/palette"
)

// DefaultMinHits is the fewest exact colour matches needed to accept a slot.
const DefaultMinHits = 2

// DefaultMaterials are the materials Suggest looks for when none are given.
var DefaultMaterials = []string{"wood", "metal", "glass"}

// SuggestOptions controls template suggestion.
type SuggestOptions struct {
	Materials []string
	MinAlpha  uint8
	MinHits   int
	// PalettesDir is the root that slot source palette paths are made relative to.
	PalettesDir string
}

// Suggest builds a template definition for img by finding, per material, the
// indexed item whose default group shares the most exact colours with the image.
// Ties go to the first id in sorted order. Materials scoring below MinHits are
// left out; when none qualify Suggest returns nil.
func Suggest(id, imagePath string, img *image.NRGBA, idx *palette.Index, opts SuggestOptions, logger hclog.Logger) *Def {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	materials := opts.Materials
	if len(materials) == 0 {
		materials = DefaultMaterials
	}
	minHits := opts.MinHits
	if minHits <= 0 {
		minHits = DefaultMinHits
	}

	present := make(map[colour.RGBA]struct{})
	for _, c := range imgutil.Pixels(img) {
		if c.A >= opts.MinAlpha {
			present[c] = struct{}{}
		}
	}

	def := &Def{ID: id, Path: imagePath}
	for _, material := range materials {
		bestScore := 0
		var best palette.Ref
		for _, itemID := range idx.IDs(material) {
			ref, _ := idx.Lookup(material, itemID)
			_, g := ref.Item.DefaultGroup()
			if g == nil {
				continue
			}
			if score := hitScore(present, g.Colors); score > bestScore {
				bestScore = score
				best = ref
			}
		}

		if best.Item == nil || bestScore < minHits {
			logger.Debug("no palette matched", "template", id, "material", material, "best_hits", bestScore)
			continue
		}
		logger.Debug("slot detected", "template", id, "material", material, "id", best.Item.ID, "hits", bestScore)

		def.Slots = append(def.Slots, newSlot(material, material, Source{
			Palette: relativeTo(opts.PalettesDir, best.File),
			ID:      best.Item.ID,
			Group:   palette.DefaultGroupID,
		}))
	}

	if len(def.Slots) == 0 {
		return nil
	}
	def.Pattern = InferPattern(id, def.SlotNames())
	return def
}

// SuggestDir writes a suggested template into outDir for every PNG directly
// inside templatesDir and returns the files written (or planned with dryRun).
// Image paths in the written templates are relative to outDir.
func SuggestDir(templatesDir, outDir string, idx *palette.Index, opts SuggestOptions, dryRun bool, logger hclog.Logger) ([]string, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if outDir == "" {
		outDir = templatesDir
	}

	pngs, err := imgutil.ScanPNGs(templatesDir, false)
	if err != nil {
		return nil, err
	}
	if len(pngs) == 0 {
		logger.Warn("no PNG templates found", "dir", templatesDir)
		return nil, nil
	}

	var written []string
	for _, png := range pngs {
		id := strings.TrimSuffix(filepath.Base(png), filepath.Ext(png))
		img, err := imgutil.Load(png)
		if err != nil {
			return written, err
		}

		def := Suggest(id, relativeTo(outDir, png), img, idx, opts, logger)
		if def == nil {
			logger.Warn("no slots detected, try lowering --min-hits", "file", png)
			continue
		}

		out := filepath.Join(outDir, id+FileSuffix)
		if dryRun {
			logger.Info("would write template", "file", out, "slots", len(def.Slots), "dry_run", true)
		} else {
			if err := def.Save(out); err != nil {
				return written, err
			}
			logger.Info("wrote template", "file", out, "pattern", def.Pattern)
		}
		written = append(written, out)
	}
	return written, nil
}

// hitScore counts distinct image colours that appear in pal.
func hitScore(present map[colour.RGBA]struct{}, pal []colour.RGBA) int {
	inPalette := make(map[colour.RGBA]struct{}, len(pal))
	for _, c := range pal {
		inPalette[c] = struct{}{}
	}
	n := 0
	for c := range present {
		if _, ok := inPalette[c]; ok {
			n++
		}
	}
	return n
}

func relativeTo(base, path string) string {
	if base == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		absBase, errBase := filepath.Abs(base)
		absPath, errPath := filepath.Abs(path)
		if errBase != nil || errPath != nil {
			return filepath.ToSlash(path)
		}
		if rel, err = filepath.Rel(absBase, absPath); err != nil {
			return filepath.ToSlash(path)
		}
	}
	return filepath.ToSlash(rel)
}
