// Package generate renders every slot combination of a template into output
// textures.
package generate

import (
	"errors"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/btg/internal/colour"
	imgutil "github.com/jmylchreest/btg/internal/image"
	"github.com/jmylchreest/btg/internal/palette"
	"github.com/jmylchreest/btg/internal/remap"
	"github.com/jmylchreest/btg/internal/template"
)

// ErrEmptySlotCandidates means a slot has no destination palettes to choose from.
var ErrEmptySlotCandidates = errors.New("slot has no candidate palettes")

// Options controls generation.
type Options struct {
	MinAlpha      uint8
	AlphaWeight   float64
	ExactFirst    bool
	PreserveAlpha bool
	// Limit caps the number of combinations rendered per template; 0 means no cap.
	Limit int
	// DryRun does everything except write files.
	DryRun bool
	// Workers renders combinations in parallel when above 1.
	Workers   int
	OutputDir string
}

// DefaultOptions returns the standard generation tunables.
func DefaultOptions() Options {
	return Options{
		MinAlpha:      1,
		AlphaWeight:   colour.DefaultAlphaWeight,
		ExactFirst:    true,
		PreserveAlpha: true,
		Workers:       1,
		OutputDir:     "output",
	}
}

// Generator renders templates against one palette index.
type Generator struct {
	index       *palette.Index
	palettesDir string
	options     Options
	logger      hclog.Logger
}

// New creates a generator. idx supplies destination candidates; palettesDir is the
// root that slot source palette paths are relative to.
func New(idx *palette.Index, palettesDir string, opts Options, logger hclog.Logger) *Generator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Generator{
		index:       idx,
		palettesDir: palettesDir,
		options:     opts,
		logger:      logger,
	}
}

// Plan is a template resolved against the index, with its image classified once.
type Plan struct {
	Def *template.Def
	// Sources holds each slot's source palette colours, in slot order.
	Sources [][]colour.RGBA
	// Choices holds each slot's candidate destination ids, sorted then filtered.
	Choices        [][]string
	Image          *image.NRGBA
	Classification remap.Classification
}

// Prepare resolves slot sources and candidates, loads the template image and
// classifies its pixels.
func (g *Generator) Prepare(def *template.Def) (*Plan, error) {
	plan := &Plan{Def: def}

	for _, slot := range def.Slots {
		if !g.index.HasMaterial(slot.Material) {
			return nil, fmt.Errorf("%w: template %q slot %q: no palettes for material %q under %s",
				ErrEmptySlotCandidates, def.ID, slot.Name, slot.Material, g.palettesDir)
		}
		ids := slot.Filter(g.index.IDs(slot.Material))
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: template %q slot %q: include/exclude left no ids for material %q",
				ErrEmptySlotCandidates, def.ID, slot.Name, slot.Material)
		}

		item, err := palette.FindItem(g.palettesDir, slot.Source.Palette, slot.Source.ID)
		if err != nil {
			return nil, fmt.Errorf("template %q slot %q: %w", def.ID, slot.Name, err)
		}
		_, group, err := item.GroupOrDefault(slot.Source.Group)
		if err != nil {
			return nil, fmt.Errorf("template %q slot %q: %w", def.ID, slot.Name, err)
		}
		if group.Len() == 0 {
			return nil, fmt.Errorf("template %q slot %q: %w: source %q", def.ID, slot.Name, remap.ErrEmptyPalette, item.ID)
		}

		plan.Sources = append(plan.Sources, group.Colors)
		plan.Choices = append(plan.Choices, ids)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	img, err := imgutil.Load(def.ImagePath())
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", def.ID, err)
	}
	plan.Image = img
	plan.Classification = remap.ClassifyImage(img, plan.Sources, remap.ClassifyOptions{
		AlphaWeight: g.options.AlphaWeight,
		MinAlpha:    g.options.MinAlpha,
		ExactFirst:  g.options.ExactFirst,
	})

	g.logger.Debug("template prepared", "template", def.ID, "image", def.ImagePath(),
		"slots", len(def.Slots), "colours", len(plan.Classification), "combinations", plan.Count())
	return plan, nil
}

// Count returns the size of the full cartesian product.
func (p *Plan) Count() int {
	n := 1
	for _, c := range p.Choices {
		n *= len(c)
	}
	return n
}

// Combinations enumerates the cartesian product of slot choices in slot order,
// with the last slot varying fastest. A positive limit keeps only the first
// limit combinations.
func (p *Plan) Combinations(limit int) [][]string {
	total := p.Count()
	if limit > 0 && limit < total {
		total = limit
	}
	if len(p.Choices) == 0 {
		return nil
	}

	out := make([][]string, 0, total)
	idx := make([]int, len(p.Choices))
	for len(out) < total {
		combo := make([]string, len(idx))
		for i, j := range idx {
			combo[i] = p.Choices[i][j]
		}
		out = append(out, combo)

		// odometer increment, rightmost slot first
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(p.Choices[i]) {
				break
			}
			idx[i] = 0
		}
	}
	return out
}
