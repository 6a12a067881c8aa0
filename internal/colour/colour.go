// Package colour provides the RGBA colour value used throughout btg, its hex codec
// and the weighted distance used for palette matching.
package colour

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// DefaultAlphaWeight is the weight applied to the squared alpha difference in
// Distance2. Templates use alpha mostly for masking, so it counts for less than hue.
const DefaultAlphaWeight = 0.25

// ErrMalformedColor is returned when hex colour text cannot be parsed.
var ErrMalformedColor = errors.New("malformed colour")

// RGBA is a non-premultiplied 8-bit colour. It is comparable and used as a map key.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// ParseHex parses "#rrggbb" or "#rrggbbaa" (any case, surrounding whitespace
// ignored). Six digit colours are fully opaque.
func ParseHex(text string) (RGBA, error) {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "#") {
		return RGBA{}, fmt.Errorf("%w: %q (expected #RRGGBB or #RRGGBBAA)", ErrMalformedColor, text)
	}
	digits := s[1:]
	if len(digits) != 6 && len(digits) != 8 {
		return RGBA{}, fmt.Errorf("%w: %q (expected #RRGGBB or #RRGGBBAA)", ErrMalformedColor, text)
	}

	// ParseUint accepts a sign and underscores, so check the digits first.
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return RGBA{}, fmt.Errorf("%w: %q contains non-hex character %q", ErrMalformedColor, text, digits[i])
		}
	}

	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("%w: %q: %v", ErrMalformedColor, text, err)
	}
	if len(digits) == 6 {
		v = v<<8 | 0xff
	}

	return RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// MustParseHex is like ParseHex but panics on malformed input.
// Intended for constants and tests.
func MustParseHex(text string) RGBA {
	c, err := ParseHex(text)
	if err != nil {
		panic(err)
	}
	return c
}

// NormalizeHex returns the canonical "#rrggbbaa" form of a hex colour.
func NormalizeHex(text string) (string, error) {
	c, err := ParseHex(text)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}

// IsHex reports whether text is a parseable hex colour.
func IsHex(text string) bool {
	_, err := ParseHex(text)
	return err == nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Hex returns the canonical lowercase "#rrggbbaa" form.
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// String implements fmt.Stringer.
func (c RGBA) String() string {
	return c.Hex()
}

// NRGBA converts to the standard library colour type.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// RGBA implements color.Color.
func (c RGBA) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// WithAlpha returns c with its alpha channel replaced.
func (c RGBA) WithAlpha(a uint8) RGBA {
	c.A = a
	return c
}

// FromNRGBA converts a standard library NRGBA value.
func FromNRGBA(c color.NRGBA) RGBA {
	return RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// FromColor converts any color.Color to an 8-bit non-premultiplied value.
// NRGBA inputs are copied without a premultiplied round trip.
func FromColor(c color.Color) RGBA {
	switch v := c.(type) {
	case RGBA:
		return v
	case color.NRGBA:
		return FromNRGBA(v)
	}
	return FromNRGBA(color.NRGBAModel.Convert(c).(color.NRGBA))
}

// Distance2 returns the squared Euclidean RGB distance plus alphaWeight times the
// squared alpha difference.
func Distance2(a, b RGBA, alphaWeight float64) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	da := float64(a.A) - float64(b.A)
	return dr*dr + dg*dg + db*db + alphaWeight*da*da
}

// ParseHexList parses every entry of texts, stopping at the first malformed value.
// The returned index identifies the offending entry.
func ParseHexList(texts []string) ([]RGBA, int, error) {
	out := make([]RGBA, len(texts))
	for i, t := range texts {
		c, err := ParseHex(t)
		if err != nil {
			return nil, i, err
		}
		out[i] = c
	}
	return out, -1, nil
}

// HexList formats colours in canonical form.
func HexList(colours []RGBA) []string {
	out := make([]string, len(colours))
	for i, c := range colours {
		out[i] = c.Hex()
	}
	return out
}
