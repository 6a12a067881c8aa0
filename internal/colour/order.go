package colour

import (
	"cmp"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// Order selects how extracted colours are arranged in a palette group.
// The order matters: it defines positional correspondence between palettes.
type Order string

const (
	// OrderRGBA sorts by channel value (R, then G, B, A).
	OrderRGBA Order = "rgba"
	// OrderLightness sorts dark to light by CIE L*, ties broken by OrderRGBA.
	OrderLightness Order = "lightness"
)

// ValidOrders lists the accepted Order values.
func ValidOrders() []Order {
	return []Order{OrderRGBA, OrderLightness}
}

// Sort orders colours in place.
func Sort(colours []RGBA, order Order) {
	switch order {
	case OrderLightness:
		SortByLightness(colours)
	default:
		slices.SortFunc(colours, Compare)
	}
}

// Compare orders colours by R, G, B then A.
func Compare(a, b RGBA) int {
	if c := cmp.Compare(a.R, b.R); c != 0 {
		return c
	}
	if c := cmp.Compare(a.G, b.G); c != 0 {
		return c
	}
	if c := cmp.Compare(a.B, b.B); c != 0 {
		return c
	}
	return cmp.Compare(a.A, b.A)
}

// SortByLightness orders colours from darkest to lightest. Alpha is ignored for
// the lightness key so translucent shades stay next to their opaque neighbours.
func SortByLightness(colours []RGBA) {
	slices.SortStableFunc(colours, func(a, b RGBA) int {
		if c := cmp.Compare(Lightness(a), Lightness(b)); c != 0 {
			return c
		}
		return Compare(a, b)
	})
}

// Lightness returns the CIE L* component (0-1) of the opaque version of c.
func Lightness(c RGBA) float64 {
	cf := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
	l, _, _ := cf.Lab()
	return l
}
