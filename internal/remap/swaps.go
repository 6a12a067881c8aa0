package remap

import (
	"fmt"
	"image"

	"github.com/jmylchreest/btg/internal/colour"
)

// Swap is one exact palette substitution.
type Swap struct {
	Src []colour.RGBA
	Dst []colour.RGBA
}

// ApplyExactSwaps applies swaps in order. Each swap replaces only pixels that
// exactly equal a source colour, using proportional mapping to pick the
// destination; later swaps see the output of earlier ones. When a source palette
// repeats a colour, its last position wins.
func ApplyExactSwaps(img *image.NRGBA, swaps []Swap) (*image.NRGBA, error) {
	out := image.NewNRGBA(img.Bounds())
	copy(out.Pix, img.Pix)

	for i, s := range swaps {
		mapped, err := MapIndices(s.Src, s.Dst)
		if err != nil {
			return nil, fmt.Errorf("swap %d: %w", i+1, err)
		}

		exact := make(map[colour.RGBA]colour.RGBA, len(s.Src))
		for j, c := range s.Src {
			exact[c] = mapped[j]
		}

		for o := 0; o+3 < len(out.Pix); o += 4 {
			p := colour.RGBA{R: out.Pix[o], G: out.Pix[o+1], B: out.Pix[o+2], A: out.Pix[o+3]}
			if q, ok := exact[p]; ok {
				out.Pix[o], out.Pix[o+1], out.Pix[o+2], out.Pix[o+3] = q.R, q.G, q.B, q.A
			}
		}
	}
	return out, nil
}
