package cli

import (
	"github.com/spf13/pflag"

	"github.com/jmylchreest/btg/internal/config"
)

// tunableFlags returns the recolouring flags shared by generate and recolor.
// Values are read back through applyFlags, so only their names and defaults
// matter here.
func tunableFlags() *pflag.FlagSet {
	d := config.Default()
	fs := pflag.NewFlagSet("tunables", pflag.ContinueOnError)
	fs.Int("min-alpha", d.MinAlpha, "pixels with alpha below this are left untouched (0-255)")
	fs.Float64("alpha-weight", d.AlphaWeight, "weight of the alpha difference in colour distance")
	fs.Bool("no-preserve-alpha", false, "use the palette colour's alpha instead of each pixel's own")
	fs.Bool("no-exact-first", false, "skip exact matching and always use nearest colour")
	return fs
}

// dirFlag registers a directory flag whose default comes from the configuration.
func dirFlag(fs *pflag.FlagSet, name, usage string) {
	d := config.Default()
	defaults := map[string]string{
		"palettes":  d.Palettes,
		"templates": d.Templates,
		"textures":  d.Textures,
		"output":    d.Output,
	}
	fs.String(name, defaults[name], usage)
}
