package palette

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/jmylchreest/btg/internal/colour"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wood", "oak.texture-palettes.json"),
		`{"palettes":{"oak":["#8b5a2b"]}}`)
	writeFile(t, filepath.Join(root, "wood", "spruce.texture-palettes.json"),
		`{"schema":"texture-palettes","version":1,"items":[{"id":"spruce","material":"wood","groups":{"base":{"colors":["#5a3d1e"]}}}]}`)
	writeFile(t, filepath.Join(root, "metal", "metals.texture-palettes.json"),
		`{"palettes":[{"id":"iron","colors":["#777777"]},{"id":"gold","colors":["#ffd700"]}]}`)
	writeFile(t, filepath.Join(root, "metal", "broken.texture-palettes.json"), `{"nope":true}`)
	writeFile(t, filepath.Join(root, "metal", "ignored.json"), `{"palettes":{"copper":["#b87333"]}}`)

	idx, err := BuildIndex(root, nil)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	if got := idx.Materials(); !slices.Equal(got, []string{"metal", "wood"}) {
		t.Errorf("Materials() = %v", got)
	}
	if got := idx.IDs("metal"); !slices.Equal(got, []string{"gold", "iron"}) {
		t.Errorf("IDs(metal) = %v", got)
	}
	if got := idx.IDs("wood"); !slices.Equal(got, []string{"oak", "spruce"}) {
		t.Errorf("IDs(wood) = %v", got)
	}
	if idx.Len() != 4 {
		t.Errorf("Len() = %d, want 4", idx.Len())
	}

	skipped := idx.Skipped()
	if len(skipped) != 1 || filepath.Base(skipped[0].File) != "broken.texture-palettes.json" {
		t.Fatalf("Skipped() = %+v", skipped)
	}
	if !errors.Is(skipped[0].Err, ErrUnsupportedShape) {
		t.Errorf("skip reason = %v, want ErrUnsupportedShape", skipped[0].Err)
	}

	ref, ok := idx.Lookup("wood", "oak")
	if !ok || ref.Item.ID != "oak" {
		t.Fatalf("Lookup(wood, oak) = %+v, %v", ref, ok)
	}
	if _, ok := idx.Lookup("glass", "clear"); ok {
		t.Error("Lookup of unknown material should miss")
	}
}

func TestBuildIndexMissingRoot(t *testing.T) {
	if _, err := BuildIndex(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("BuildIndex() expected error for missing root")
	}
}

func TestIndexDuplicatesLastWins(t *testing.T) {
	idx := NewIndex(nil)
	first := &Item{ID: "oak", Material: "wood"}
	second := &Item{ID: "oak", Material: "wood"}

	idx.Add("a.json", first)
	idx.Add("b.json", second)

	ref, _ := idx.Lookup("wood", "oak")
	if ref.Item != second || ref.File != "b.json" {
		t.Errorf("Lookup() = %+v, want last registered", ref)
	}
	dups := idx.Duplicates()
	if len(dups) != 1 || dups[0].Previous != "a.json" || dups[0].Current != "b.json" {
		t.Errorf("Duplicates() = %+v", dups)
	}
}

func TestFindItem(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wood", "oak.texture-palettes.json"), `{"palettes":{"oak":["#8b5a2b"]}}`)
	writeFile(t, filepath.Join(root, "wood", "bad.texture-palettes.json"), `{"foo":1}`)

	item, err := FindItem(root, "wood/oak.texture-palettes.json", "oak")
	if err != nil {
		t.Fatalf("FindItem() error = %v", err)
	}
	if item.ID != "oak" {
		t.Errorf("ID = %q", item.ID)
	}

	abs := filepath.Join(root, "wood", "oak.texture-palettes.json")
	if _, err := FindItem("/elsewhere", abs, "oak"); err != nil {
		t.Errorf("FindItem() with absolute path error = %v", err)
	}

	if _, err := FindItem(root, "wood/missing.texture-palettes.json", "oak"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing file error = %v, want ErrFileNotFound", err)
	}
	if _, err := FindItem(root, "wood/oak.texture-palettes.json", "birch"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("missing item error = %v, want ErrItemNotFound", err)
	}
	if _, err := FindItem(root, "wood/bad.texture-palettes.json", "oak"); !errors.Is(err, ErrUnsupportedShape) {
		t.Errorf("malformed file error = %v, want ErrUnsupportedShape", err)
	}
}

func TestNormalizeFileCanonicalIsNoChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wood", "oak.texture-palettes.json")
	content := `{
  "schema": "texture-palettes",
  "version": 1,
  "items": [{"id": "oak", "groups": {"base": {"colors": ["#8b5a2bff", "#a0522dff"]}}}]
}
`
	writeFile(t, path, content)
	before, _ := os.Stat(path)

	res, err := NormalizeFile(path, false)
	if err != nil {
		t.Fatalf("NormalizeFile() error = %v", err)
	}
	if res.Changed() || res.Written {
		t.Errorf("canonical file reported as changed: %+v", res)
	}

	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("canonical file was rewritten")
	}
	data, _ := os.ReadFile(path)
	if string(data) != content {
		t.Error("canonical file content changed")
	}
}

func TestNormalizeJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		count int
	}{
		{
			name:  "schema colours only",
			input: `{"schema":"texture-palettes","comment":"#ABCDEF","items":[{"id":"oak","metadata":{"tint":"#FFFFFF"},"groups":{"base":{"comment":"#000000","colors":["#8B5A2B", "#a0522d80"]}}}]}`,
			want:  `{"schema":"texture-palettes","comment":"#ABCDEF","items":[{"id":"oak","metadata":{"tint":"#FFFFFF"},"groups":{"base":{"comment":"#000000","colors":["#8b5a2bff", "#a0522d80"]}}}]}`,
			count: 1,
		},
		{
			name:  "legacy walks every string",
			input: "{\n  \"palettes\": {\n    \"oak\": [\"#8B5A2B\", \"#ffffff\"]\n  },\n  \"note\": \"#000000\"\n}",
			want:  "{\n  \"palettes\": {\n    \"oak\": [\"#8b5a2bff\", \"#ffffffff\"]\n  },\n  \"note\": \"#000000ff\"\n}",
			count: 3,
		},
		{
			name:  "keys and non colours untouched",
			input: `{"#ABCDEF":["not a colour","#12345", 7, true, null]}`,
			want:  `{"#ABCDEF":["not a colour","#12345", 7, true, null]}`,
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := NormalizeJSON([]byte(tt.input))
			if err != nil {
				t.Fatalf("NormalizeJSON() error = %v", err)
			}
			if n != tt.count {
				t.Errorf("replacements = %d, want %d", n, tt.count)
			}
			if string(got) != tt.want {
				t.Errorf("NormalizeJSON() =\n%s\nwant\n%s", got, tt.want)
			}

			again, n2, err := NormalizeJSON(got)
			if err != nil || n2 != 0 || !bytes.Equal(again, got) {
				t.Errorf("second pass not idempotent: n=%d err=%v", n2, err)
			}
		})
	}
}

func TestNormalizeDirDryRun(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "wood", "oak.texture-palettes.json")
	content := `{"palettes":{"oak":["#8B5A2B"]}}`
	writeFile(t, path, content)

	results, err := NormalizeDir(root, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !results[0].Changed() || results[0].Written {
		t.Fatalf("results = %+v", results)
	}
	data, _ := os.ReadFile(path)
	if string(data) != content {
		t.Error("dry run modified the file")
	}

	if _, err := NormalizeDir(root, false, nil); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != `{"palettes":{"oak":["#8b5a2bff"]}}` {
		t.Errorf("normalised content = %s", data)
	}
}

func TestValidateFile(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "wood", "good.texture-palettes.json")
	writeFile(t, good, `{"schema":"texture-palettes","items":[`+
		`{"id":"oak","groups":{"base":{"colors":["#8b5a2b"]},"worn":{"colors":[]}}},`+
		`{"id":"birch","groups":{"base":{"colors":["#d0c090"]}}}]}`)
	dup := filepath.Join(root, "wood", "dup.texture-palettes.json")
	writeFile(t, dup, `{"palettes":[{"id":"oak","colors":["#8b5a2b"]},{"id":"oak","colors":["#8b5a2b"]}]}`)
	bad := filepath.Join(root, "wood", "bad.texture-palettes.json")
	writeFile(t, bad, `{"palettes":{"oak":["red"]}}`)

	res := ValidateFile(good)
	if !res.OK() || res.Items != 2 || len(res.Warnings) != 1 {
		t.Errorf("ValidateFile(good) = %+v", res)
	}
	if res := ValidateFile(dup); res.OK() {
		t.Error("duplicate ids should fail validation")
	}
	if res := ValidateFile(bad); res.OK() {
		t.Error("bad colour should fail validation")
	}

	results, err := ValidateDir(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("ValidateDir() returned %d results", len(results))
	}
}

func TestExtractColours(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 200, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 200, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 200, A: 128})
	// (1,1) and (2,1) stay fully transparent

	got := ExtractColours(img, 8, 1, colour.OrderRGBA)
	want := []string{"#0000c880", "#00c800ff", "#c80000ff"}
	if hex := colour.HexList(got); !slices.Equal(hex, want) {
		t.Errorf("ExtractColours() = %v, want %v", hex, want)
	}

	if got := ExtractColours(image.NewNRGBA(image.Rect(0, 0, 2, 2)), 8, 1, colour.OrderRGBA); len(got) != 0 {
		t.Errorf("transparent image should extract nothing, got %v", got)
	}
}

func TestExtractColoursQuantizes(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 1))
	for x := range 64 {
		img.SetNRGBA(x, 0, color.NRGBA{R: uint8(x * 4), G: 10, B: 20, A: 200})
	}

	got := ExtractColours(img, 4, 1, colour.OrderRGBA)
	if len(got) == 0 || len(got) > 4 {
		t.Fatalf("ExtractColours() returned %d colours, want 1..4", len(got))
	}
	for _, c := range got {
		if c.A != 255 {
			t.Errorf("quantized colour %s should be opaque", c.Hex())
		}
	}
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	textures := filepath.Join(dir, "textures")
	palettes := filepath.Join(dir, "palettes")

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(textures, "wood", "dark_oak.png"), buf.String())

	results, err := ExtractDir(ExtractOptions{
		TexturesDir:      textures,
		PalettesDir:      palettes,
		MaxColors:        32,
		MinAlpha:         1,
		GeneratorVersion: "test",
	}, nil)
	if err != nil {
		t.Fatalf("ExtractDir() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("ExtractDir() = %+v", results)
	}

	items, err := ParseFile(filepath.Join(palettes, "wood", "dark_oak.texture-palettes.json"))
	if err != nil {
		t.Fatalf("extracted file does not parse: %v", err)
	}
	item := items[0]
	if item.ID != "dark_oak" || item.Material != "wood" || item.Name != "Dark Oak" {
		t.Errorf("item = %+v", item)
	}
	if got := colour.HexList(item.Groups[DefaultGroupID].Colors); !slices.Equal(got, []string{"#0a141eff", "#28323cff"}) {
		t.Errorf("colours = %v", got)
	}
}
