package remap

import (
	"image"
	"math"

	"github.com/jmylchreest/btg/internal/colour"
	imgutil "github.com/jmylchreest/btg/internal/image"
)

// ClassifyOptions tunes pixel classification.
type ClassifyOptions struct {
	// AlphaWeight scales the alpha term of the colour distance.
	AlphaWeight float64
	// MinAlpha excludes pixels with lower alpha; they are passed through untouched.
	MinAlpha uint8
	// ExactFirst resolves pixels that equal a palette colour without a distance search.
	ExactFirst bool
}

// DefaultClassifyOptions returns the standard tunables.
func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{
		AlphaWeight: colour.DefaultAlphaWeight,
		MinAlpha:    1,
		ExactFirst:  true,
	}
}

// Assignment ties a pixel colour to a position in one slot's source palette.
type Assignment struct {
	Slot  int
	Index int
}

// Classification maps each distinct eligible pixel colour to its assignment.
// Colours below the alpha threshold are absent.
type Classification map[colour.RGBA]Assignment

// Classify assigns every distinct pixel with alpha >= MinAlpha to one (slot,
// index) pair of slots. With ExactFirst, a pixel equal to a palette colour takes
// the first slot and index that declares it, scanning slots in order. Other pixels
// take the nearest palette colour by Distance2; ties go to the earliest slot and
// index. Pixels are left unassigned only when every slot palette is empty.
func Classify(pixels []colour.RGBA, slots [][]colour.RGBA, opts ClassifyOptions) Classification {
	exact := make(map[colour.RGBA]Assignment)
	if opts.ExactFirst {
		for si, pal := range slots {
			for ci, c := range pal {
				if _, ok := exact[c]; !ok {
					exact[c] = Assignment{Slot: si, Index: ci}
				}
			}
		}
	}

	result := make(Classification)
	for _, p := range pixels {
		if p.A < opts.MinAlpha {
			continue
		}
		if _, done := result[p]; done {
			continue
		}
		if a, ok := exact[p]; ok {
			result[p] = a
			continue
		}
		if a, ok := nearest(p, slots, opts.AlphaWeight); ok {
			result[p] = a
		}
	}
	return result
}

func nearest(p colour.RGBA, slots [][]colour.RGBA, alphaWeight float64) (Assignment, bool) {
	best := Assignment{}
	bestD := math.Inf(1)
	found := false
	for si, pal := range slots {
		for ci, c := range pal {
			if d := colour.Distance2(p, c, alphaWeight); d < bestD {
				bestD = d
				best = Assignment{Slot: si, Index: ci}
				found = true
			}
		}
	}
	return best, found
}

// ClassifyImage classifies the pixels of img.
func ClassifyImage(img *image.NRGBA, slots [][]colour.RGBA, opts ClassifyOptions) Classification {
	return Classify(imgutil.Pixels(img), slots, opts)
}

// Apply renders img through cls: every classified pixel is replaced with
// mapped[slot][index]. With preserveAlpha the source pixel keeps its own alpha.
// Unclassified pixels are copied unchanged. img is not modified.
func Apply(img *image.NRGBA, cls Classification, mapped [][]colour.RGBA, preserveAlpha bool) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)

	// Pixels repeat heavily in textures, so resolve each colour once.
	cache := make(map[colour.RGBA]colour.RGBA, len(cls))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):]
		dst := out.Pix[out.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			o := x * 4
			p := colour.RGBA{R: src[o], G: src[o+1], B: src[o+2], A: src[o+3]}

			q, ok := cache[p]
			if !ok {
				q = p
				if a, assigned := cls[p]; assigned {
					q = mapped[a.Slot][a.Index]
					if preserveAlpha {
						q.A = p.A
					}
				}
				cache[p] = q
			}

			dst[o], dst[o+1], dst[o+2], dst[o+3] = q.R, q.G, q.B, q.A
		}
	}
	return out
}
