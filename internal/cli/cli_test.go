package cli_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/btg/internal/cli"
)

// workspace creates a project directory with palettes, a barrel template and its
// image, and makes it the working directory.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".xdg"))
	t.Setenv("HOME", dir)

	files := map[string]string{
		"palettes/wood/oak.texture-palettes.json":    `{"palettes":{"oak":["#402000","#804000"]}}`,
		"palettes/wood/spruce.texture-palettes.json": `{"palettes":{"spruce":["#201000","#301800"]}}`,
		"palettes/metal/iron.texture-palettes.json":  `{"palettes":{"iron":["#505050","#909090"]}}`,
		"palettes/metal/gold.texture-palettes.json":  `{"palettes":{"gold":["#a08000","#ffe000"]}}`,
		"templates/barrel.btg-template.json": `{"schema":"btg-template","version":1,"template":{"path":"barrel.png"},"slots":[
			{"slot":"wood","material":"wood","source":{"palette":"wood/oak.texture-palettes.json","id":"oak"}},
			{"slot":"metal","material":"metal","source":{"palette":"metal/iron.texture-palettes.json","id":"iron"}}]}`,
	}
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
	}

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0x40, G: 0x20, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0x80, G: 0x40, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 0x50, G: 0x50, B: 0x50, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 0x90, G: 0x90, B: 0x90, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "templates", "barrel.png"), buf.String())

	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// run executes btg with args and returns what it printed to stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestGenerateCommand(t *testing.T) {
	dir := workspace(t)

	t.Run("DryRun", func(t *testing.T) {
		out, _, err := run(t, "generate", "--dry-run")
		if err != nil {
			t.Fatalf("generate --dry-run error = %v", err)
		}
		if !strings.Contains(out, "Would generate 4 file(s) from 1 template(s)") {
			t.Errorf("unexpected output %q", out)
		}
		if _, err := os.Stat(filepath.Join(dir, "output")); !os.IsNotExist(err) {
			t.Error("dry run created the output directory")
		}
	})

	t.Run("Limit", func(t *testing.T) {
		out, _, err := run(t, "generate", "--limit", "2", "--output", "limited")
		if err != nil {
			t.Fatalf("generate error = %v", err)
		}
		if !strings.Contains(out, "Generated 2 file(s)") {
			t.Errorf("unexpected output %q", out)
		}
		entries, err := os.ReadDir(filepath.Join(dir, "limited"))
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		if strings.Join(names, ",") != "oak_gold_barrel.png,oak_iron_barrel.png" {
			t.Errorf("written files = %v", names)
		}
	})

	t.Run("InvalidMinAlpha", func(t *testing.T) {
		if _, _, err := run(t, "generate", "--min-alpha", "400"); err == nil {
			t.Error("expected an error for --min-alpha 400")
		}
	})
}

func TestRecolorCommand(t *testing.T) {
	dir := workspace(t)

	out, _, err := run(t, "recolor",
		"--src-palette", "wood/oak.texture-palettes.json", "--src-id", "oak",
		"--dst-palette", "wood/spruce.texture-palettes.json", "--dst-id", "spruce",
		"--input", filepath.Join(dir, "templates"), "--output", "recoloured")
	if err != nil {
		t.Fatalf("recolor error = %v", err)
	}
	if !strings.Contains(out, "Recoloured 1 file(s): oak -> spruce") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "recoloured", "barrel.png")); err != nil {
		t.Errorf("expected recoloured output: %v", err)
	}

	if _, _, err := run(t, "recolor", "--src-id", "oak"); err == nil {
		t.Error("expected an error for missing required flags")
	}

	_, _, err = run(t, "recolor", "--strict",
		"--src-palette", "wood/oak.texture-palettes.json", "--src-id", "oak",
		"--dst-palette", "wood/spruce.texture-palettes.json", "--dst-id", "spruce",
		"--input", filepath.Join(dir, "templates"))
	if err != nil {
		t.Errorf("strict recolor of equal-length palettes failed: %v", err)
	}
}

func TestNormalizeCommand(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "palettes", "glass", "clear.texture-palettes.json"),
		`{"palettes":{"clear":["#AABBCC", "#aabbcc80"]}}`)

	out, _, err := run(t, "normalize")
	if err != nil {
		t.Fatalf("normalize error = %v", err)
	}
	if !strings.Contains(out, "Normalised") {
		t.Errorf("unexpected output %q", out)
	}

	out, _, err = run(t, "normalize")
	if err != nil {
		t.Fatalf("second normalize error = %v", err)
	}
	if strings.TrimSpace(out) != "no changes" {
		t.Errorf("second normalize output = %q, want no changes", out)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := workspace(t)

	out, _, err := run(t, "validate")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "4 palette file(s) valid") {
		t.Errorf("unexpected output %q", out)
	}

	writeFile(t, filepath.Join(dir, "palettes", "wood", "bad.texture-palettes.json"), `{"palettes":{"bad":["#12"]}}`)
	out, _, err = run(t, "validate")
	if err == nil {
		t.Fatal("expected validate to fail")
	}
	if !strings.Contains(out, "FAIL") {
		t.Errorf("expected a FAIL line, got %q", out)
	}
}

func TestPalettesListCommand(t *testing.T) {
	workspace(t)

	out, _, err := run(t, "palettes", "list", "--material", "metal")
	if err != nil {
		t.Fatalf("palettes list error = %v", err)
	}
	if !strings.Contains(out, "gold") || !strings.Contains(out, "iron") {
		t.Errorf("expected metal ids, got %q", out)
	}
	if strings.Contains(out, "oak") || strings.Contains(out, "\x1b[") {
		t.Errorf("unexpected wood rows or colour codes in %q", out)
	}

	out, _, err = run(t, "palettes", "list", "--preview")
	if err != nil {
		t.Fatalf("palettes list --preview error = %v", err)
	}
	if !strings.Contains(out, "PREVIEW") {
		t.Errorf("expected a preview column, got %q", out)
	}
}

func TestRewriteNamespaceCommand(t *testing.T) {
	dir := workspace(t)
	in := filepath.Join(dir, "model.json")
	writeFile(t, in, `{"parent":"modid:block/barrel","textures":{"side":"modid:block/oak"}}`)

	out, _, err := run(t, "rewrite-namespace", in, "rewritten.json", "--from", "modid", "--to", "btg")
	if err != nil {
		t.Fatalf("rewrite-namespace error = %v", err)
	}
	if !strings.Contains(out, "Rewrote 2 value(s)") {
		t.Errorf("unexpected output %q", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "rewritten.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"btg:block/barrel"`) {
		t.Errorf("namespace not rewritten: %s", data)
	}
}

func TestConfigShowCommand(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".btg.json"), `{"output":"build"}`)
	t.Setenv("BTG_WORKERS", "3")

	out, _, err := run(t, "config", "show", "--quiet")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}

	var cfg map[string]any
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("config show did not print JSON: %q", out)
	}
	if cfg["output"] != "build" || cfg["workers"] != float64(3) || cfg["palettes"] != "palettes" {
		t.Errorf("config = %v", cfg)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "btg version ") {
		t.Errorf("unexpected output %q", out)
	}

	out, _, err = run(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json error = %v", err)
	}
	if !strings.Contains(out, `"go_version"`) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestPalettesImportCommand(t *testing.T) {
	dir := workspace(t)

	archive := filepath.Join(dir, "stone-pack_1.0.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"stone/granite.texture-palettes.json": `{"palettes":{"granite":["#886655"]}}`,
		"LICENSE":                             "CC0",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "palettes", "import", archive)
	if err != nil {
		t.Fatalf("palettes import error = %v", err)
	}
	if !strings.Contains(out, "Imported 1 palette file(s) from stone-pack") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "palettes", "stone", "granite.texture-palettes.json")); err != nil {
		t.Errorf("palette not imported: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "palettes", "LICENSE")); !os.IsNotExist(err) {
		t.Error("non-palette entry was imported")
	}

	if _, _, err := run(t, "palettes", "import", archive); err == nil {
		t.Error("expected an error when re-importing without --overwrite")
	}
	if _, _, err := run(t, "palettes", "import", "--overwrite", archive); err != nil {
		t.Errorf("import --overwrite error = %v", err)
	}
}

func TestExtractCommand(t *testing.T) {
	dir := workspace(t)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xee, G: 0xee, B: 0xff, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0x10, G: 0x10, B: 0x20, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "textures", "glass", "tinted.png"), buf.String())

	out, _, err := run(t, "extract", "--order", "lightness")
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if !strings.Contains(out, "(2 colour(s))") {
		t.Errorf("unexpected output %q", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "palettes", "glass", "tinted.texture-palettes.json"))
	if err != nil {
		t.Fatal(err)
	}
	dark := strings.Index(string(data), "#101020ff")
	light := strings.Index(string(data), "#eeeeffff")
	if dark < 0 || light < 0 || dark > light {
		t.Errorf("expected dark colour before light one:\n%s", data)
	}

	if _, _, err := run(t, "extract", "--order", "hue"); err == nil {
		t.Error("expected an error for an unknown order")
	}
}
