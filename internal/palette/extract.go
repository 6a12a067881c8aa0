package palette

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/btg/internal/colour"
	imgutil "github.com/jmylchreest/btg/internal/image"
	"github.com/jmylchreest/btg/internal/util"
)

// DefaultMaxColors caps the number of colours extracted from one texture.
const DefaultMaxColors = 32

// ExtractOptions controls palette extraction.
type ExtractOptions struct {
	TexturesDir      string
	PalettesDir      string
	MaxColors        int
	MinAlpha         uint8
	Order            colour.Order
	GeneratorVersion string
	DryRun           bool
}

// Extracted describes one palette file produced (or planned) by ExtractDir.
type Extracted struct {
	Source string
	Output string
	Colors int
}

// ExtractColours returns the distinct colours of img with alpha >= minAlpha. When
// there are more than maxColors of them the image is reduced with median cut and
// the palette entries actually used are returned, fully opaque. The result is
// ordered by order and is empty when no pixel is eligible.
func ExtractColours(img *image.NRGBA, maxColors int, minAlpha uint8, order colour.Order) []colour.RGBA {
	if maxColors <= 0 {
		maxColors = DefaultMaxColors
	}

	seen := make(map[colour.RGBA]struct{})
	var eligible []colour.RGBA
	for _, c := range imgutil.Pixels(img) {
		if c.A < minAlpha {
			continue
		}
		eligible = append(eligible, c)
		seen[c] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}

	var out []colour.RGBA
	if len(seen) <= maxColors {
		out = make([]colour.RGBA, 0, len(seen))
		for c := range seen {
			out = append(out, c)
		}
	} else {
		out = quantizeColours(eligible, maxColors)
	}

	colour.Sort(out, order)
	return out
}

// quantizeColours reduces pixels to at most k opaque colours with median cut and
// keeps only the palette entries some pixel maps to.
func quantizeColours(pixels []colour.RGBA, k int) []colour.RGBA {
	sample := image.NewNRGBA(image.Rect(0, 0, len(pixels), 1))
	for i, c := range pixels {
		sample.SetNRGBA(i, 0, c.WithAlpha(255).NRGBA())
	}

	q := quantize.MedianCutQuantizer{AddTransparent: false}
	pal := q.Quantize(make(color.Palette, 0, k), sample)
	if len(pal) == 0 {
		return nil
	}

	used := make(map[colour.RGBA]struct{}, len(pal))
	for _, c := range pixels {
		p := colour.FromColor(pal.Convert(c.WithAlpha(255))).WithAlpha(255)
		used[p] = struct{}{}
	}

	out := make([]colour.RGBA, 0, len(used))
	for c := range used {
		out = append(out, c)
	}
	if len(out) > k {
		colour.Sort(out, colour.OrderRGBA)
		out = out[:k]
	}
	return out
}

// ExtractDir writes one palette file per PNG under opts.TexturesDir. Each texture
// at <textures>/<material>/<id>.png produces <palettes>/<material>/<id>.texture-palettes.json
// with a single base group. Textures with no eligible pixels are skipped.
func ExtractDir(opts ExtractOptions, logger hclog.Logger) ([]Extracted, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	pngs, err := imgutil.ScanPNGs(opts.TexturesDir, true)
	if err != nil {
		return nil, err
	}
	if len(pngs) == 0 {
		logger.Warn("no textures found", "dir", opts.TexturesDir)
		return nil, nil
	}

	var results []Extracted
	for _, png := range pngs {
		img, err := imgutil.Load(png)
		if err != nil {
			return results, fmt.Errorf("failed to extract palette from %s: %w", png, err)
		}

		colours := ExtractColours(img, opts.MaxColors, opts.MinAlpha, opts.Order)
		if len(colours) == 0 {
			logger.Warn("no pixels at or above min alpha, skipping", "file", png, "min_alpha", opts.MinAlpha)
			continue
		}

		item := itemForTexture(png, colours)
		out := filepath.Join(opts.PalettesDir, item.Material, item.ID+FileSuffix)

		if opts.DryRun {
			logger.Info("would write palette", "file", out, "colors", len(colours), "dry_run", true)
		} else {
			if err := NewDocument(opts.GeneratorVersion, item).Save(out); err != nil {
				return results, err
			}
			logger.Info("wrote palette", "file", out, "colors", len(colours))
		}
		results = append(results, Extracted{Source: png, Output: out, Colors: len(colours)})
	}

	logger.Info("extract complete", "files", len(results))
	return results, nil
}

func itemForTexture(png string, colours []colour.RGBA) *Item {
	material := inferMaterial(png)
	name := filepath.Base(png)
	id := name[:len(name)-len(filepath.Ext(name))]

	return &Item{
		ID:       id,
		Name:     util.TitleFromID(id),
		Path:     "textures/" + material + "/" + name,
		Material: material,
		Groups: map[string]*Group{
			DefaultGroupID: {
				Colors:  colours,
				Comment: "Extracted from " + filepath.ToSlash(png),
			},
		},
	}
}
