package colour

import (
	"errors"
	"image/color"
	"strings"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGBA
		wantErr bool
	}{
		{
			name:  "six digits implies opaque",
			input: "#1a2b3c",
			want:  RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff},
		},
		{
			name:  "eight digits",
			input: "#1a2b3c80",
			want:  RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0x80},
		},
		{
			name:  "upper case",
			input: "#AABBCCDD",
			want:  RGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xdd},
		},
		{
			name:  "surrounding whitespace",
			input: "  #000000 ",
			want:  RGBA{A: 0xff},
		},
		{name: "missing hash", input: "1a2b3c", wantErr: true},
		{name: "short form", input: "#abc", wantErr: true},
		{name: "seven digits", input: "#1a2b3c4", wantErr: true},
		{name: "non hex", input: "#1a2b3g", wantErr: true},
		{name: "sign", input: "#+a2b3c", wantErr: true},
		{name: "underscore", input: "#1a_b3c", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseHex(%q) expected error, got %v", tt.input, got)
				}
				if !errors.Is(err, ErrMalformedColor) {
					t.Errorf("ParseHex(%q) error = %v, want ErrMalformedColor", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseHexSixEqualsEightWithOpaqueAlpha(t *testing.T) {
	for _, h := range []string{"#000000", "#ffffff", "#8B5A2B", "#c0ffee", "#7f7f7f"} {
		six, err := ParseHex(h)
		if err != nil {
			t.Fatalf("ParseHex(%q): %v", h, err)
		}
		eight, err := ParseHex(h + "ff")
		if err != nil {
			t.Fatalf("ParseHex(%q): %v", h+"ff", err)
		}
		if six != eight {
			t.Errorf("ParseHex(%q) = %v, ParseHex(%q) = %v", h, six, h+"ff", eight)
		}
	}
}

func TestNormalizeHexIdempotent(t *testing.T) {
	inputs := []string{"#ABCDEF", "#abcdef12", "#000000FF"}
	for _, in := range inputs {
		once, err := NormalizeHex(in)
		if err != nil {
			t.Fatalf("NormalizeHex(%q): %v", in, err)
		}
		twice, err := NormalizeHex(once)
		if err != nil {
			t.Fatalf("NormalizeHex(%q): %v", once, err)
		}
		if once != twice {
			t.Errorf("NormalizeHex not idempotent: %q -> %q -> %q", in, once, twice)
		}
		if once != strings.ToLower(once) {
			t.Errorf("NormalizeHex(%q) = %q, want lowercase", in, once)
		}
		if len(once) != 9 {
			t.Errorf("NormalizeHex(%q) = %q, want 8 digits", in, once)
		}
	}
}

func TestDistance2(t *testing.T) {
	a := RGBA{R: 10, G: 20, B: 30, A: 255}
	b := RGBA{R: 13, G: 24, B: 30, A: 235}

	for _, w := range []float64{0, 0.25, 1, 10} {
		if d := Distance2(a, a, w); d != 0 {
			t.Errorf("Distance2(c, c, %v) = %v, want 0", w, d)
		}
	}

	// 3² + 4² + 0.25·20²
	if got, want := Distance2(a, b, DefaultAlphaWeight), 9.0+16.0+100.0; got != want {
		t.Errorf("Distance2 = %v, want %v", got, want)
	}
	if Distance2(a, b, 0.25) != Distance2(b, a, 0.25) {
		t.Error("Distance2 is not symmetric")
	}
}

func TestFromColor(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  RGBA
	}{
		{
			name:  "nrgba keeps straight alpha",
			input: color.NRGBA{R: 200, G: 100, B: 50, A: 3},
			want:  RGBA{R: 200, G: 100, B: 50, A: 3},
		},
		{
			name:  "opaque rgba",
			input: color.RGBA{R: 1, G: 2, B: 3, A: 255},
			want:  RGBA{R: 1, G: 2, B: 3, A: 255},
		},
		{
			name:  "gray",
			input: color.Gray{Y: 77},
			want:  RGBA{R: 77, G: 77, B: 77, A: 255},
		},
		{
			name:  "own type",
			input: RGBA{R: 9, G: 8, B: 7, A: 6},
			want:  RGBA{R: 9, G: 8, B: 7, A: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromColor(tt.input); got != tt.want {
				t.Errorf("FromColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseHexList(t *testing.T) {
	got, bad, err := ParseHexList([]string{"#000000", "#ffffff80"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bad != -1 || len(got) != 2 {
		t.Fatalf("ParseHexList = %v, %d", got, bad)
	}

	_, bad, err = ParseHexList([]string{"#000000", "nope", "#ffffff"})
	if err == nil {
		t.Fatal("expected error for malformed entry")
	}
	if bad != 1 {
		t.Errorf("bad index = %d, want 1", bad)
	}
}

func TestSortByLightness(t *testing.T) {
	colours := []RGBA{
		MustParseHex("#ffffff"),
		MustParseHex("#000000"),
		MustParseHex("#808080"),
	}
	SortByLightness(colours)

	want := []string{"#000000ff", "#808080ff", "#ffffffff"}
	for i, c := range colours {
		if c.Hex() != want[i] {
			t.Errorf("colours[%d] = %s, want %s", i, c.Hex(), want[i])
		}
	}
}

func TestColourPreviewDisabled(t *testing.T) {
	DisableColourOutput = true
	defer func() { DisableColourOutput = false }()

	if got := ColourPreview(MustParseHex("#ff0000"), 4); got != "    " {
		t.Errorf("ColourPreview() = %q, want plain spaces", got)
	}
	if got := ColourPreviewWithText(MustParseHex("#ff0000"), "ab", 4); got != " ab " {
		t.Errorf("ColourPreviewWithText() = %q", got)
	}
}
