package remap

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/btg/internal/colour"
	imgutil "github.com/jmylchreest/btg/internal/image"
)

// Options controls a single palette swap.
type Options struct {
	ClassifyOptions
	// PreserveAlpha keeps each pixel's own alpha instead of the destination colour's.
	PreserveAlpha bool
	// Strict pairs colours one to one and rejects palettes of different length.
	Strict bool
}

// DefaultOptions returns the standard swap tunables.
func DefaultOptions() Options {
	return Options{
		ClassifyOptions: DefaultClassifyOptions(),
		PreserveAlpha:   true,
	}
}

// Recolorer swaps one source palette for one destination palette across images.
type Recolorer struct {
	src     []colour.RGBA
	mapped  []colour.RGBA
	options Options
	logger  hclog.Logger
}

// NewRecolorer prepares the src to dst mapping once for every image it will touch.
func NewRecolorer(src, dst []colour.RGBA, opts Options, logger hclog.Logger) (*Recolorer, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	mapFn := MapIndices
	if opts.Strict {
		mapFn = MapStrict
	}
	mapped, err := mapFn(src, dst)
	if err != nil {
		return nil, err
	}

	return &Recolorer{
		src:     src,
		mapped:  mapped,
		options: opts,
		logger:  logger,
	}, nil
}

// Recolor returns a recoloured copy of img.
func (r *Recolorer) Recolor(img *image.NRGBA) *image.NRGBA {
	slots := [][]colour.RGBA{r.src}
	cls := ClassifyImage(img, slots, r.options.ClassifyOptions)
	return Apply(img, cls, [][]colour.RGBA{r.mapped}, r.options.PreserveAlpha)
}

// RecolorFile loads input, recolours it and writes a PNG to output.
func (r *Recolorer) RecolorFile(input, output string) error {
	img, err := imgutil.Load(input)
	if err != nil {
		return err
	}
	return imgutil.SavePNG(output, r.Recolor(img))
}

// RecolorTree recolours every PNG under input into output, keeping relative paths.
// input may also be a single image file, written as output/<name>. It returns the
// output paths in processing order; with dryRun nothing is read or written.
func (r *Recolorer) RecolorTree(ctx context.Context, input, output string, recursive, dryRun bool) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("failed to access input: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = imgutil.ScanPNGs(input, recursive)
		if err != nil {
			return nil, err
		}
	} else {
		if !imgutil.IsImageFile(input) {
			return nil, fmt.Errorf("unsupported image file: %s", input)
		}
		files = []string{input}
	}

	if len(files) == 0 {
		r.logger.Warn("no PNG files found", "dir", input)
		return nil, nil
	}

	outputs := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		rel := filepath.Base(f)
		if info.IsDir() {
			if rel, err = filepath.Rel(input, f); err != nil {
				return outputs, fmt.Errorf("failed to resolve relative path: %w", err)
			}
		}
		out := filepath.Join(output, pngName(rel))

		if dryRun {
			r.logger.Info("would recolor", "input", f, "output", out, "dry_run", true)
		} else {
			if err := r.RecolorFile(f, out); err != nil {
				return outputs, err
			}
			r.logger.Info("recolored", "input", f, "output", out)
		}
		outputs = append(outputs, out)
	}

	return outputs, nil
}

// pngName swaps a non-PNG extension for .png since outputs are always PNG.
func pngName(name string) string {
	if imgutil.IsPNG(name) {
		return name
	}
	return name[:len(name)-len(filepath.Ext(name))] + ".png"
}
