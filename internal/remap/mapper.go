// Package remap classifies template pixels against source palettes and maps
// them onto destination palettes.
package remap

import (
	"errors"
	"fmt"
	"math"

	"github.com/jmylchreest/btg/internal/colour"
)

var (
	// ErrEmptyPalette is returned when either side of a mapping has no colours.
	ErrEmptyPalette = errors.New("empty palette")
	// ErrPaletteLengthMismatch is returned by strict mapping when the palettes
	// differ in length.
	ErrPaletteLengthMismatch = errors.New("palette length mismatch")
)

// MapIndices maps every source position onto the destination palette
// proportionally: source index i sits at t = i/(len(src)-1) along the ramp and
// takes dst[round(t*(len(dst)-1))], rounding half to even. The first and last
// entries always line up and the result has len(src) entries.
func MapIndices(src, dst []colour.RGBA) ([]colour.RGBA, error) {
	if len(src) == 0 || len(dst) == 0 {
		return nil, fmt.Errorf("%w: source has %d colours, destination has %d", ErrEmptyPalette, len(src), len(dst))
	}

	mapped := make([]colour.RGBA, len(src))
	for i := range src {
		t := 0.0
		if len(src) > 1 {
			t = float64(i) / float64(len(src)-1)
		}
		j := int(math.RoundToEven(t * float64(len(dst)-1)))
		mapped[i] = dst[j]
	}
	return mapped, nil
}

// MapStrict pairs src[i] with dst[i] and refuses palettes of different length.
func MapStrict(src, dst []colour.RGBA) ([]colour.RGBA, error) {
	if len(src) == 0 || len(dst) == 0 {
		return nil, fmt.Errorf("%w: source has %d colours, destination has %d", ErrEmptyPalette, len(src), len(dst))
	}
	if len(src) != len(dst) {
		return nil, fmt.Errorf("%w: source has %d colours, destination has %d", ErrPaletteLengthMismatch, len(src), len(dst))
	}
	return append([]colour.RGBA(nil), dst...), nil
}
