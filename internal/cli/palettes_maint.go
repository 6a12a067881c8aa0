package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/palette"
	"github.com/jmylchreest/btg/internal/template"
	"github.com/jmylchreest/btg/internal/version"
)

func newNormalizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Canonicalise colour text in palette files",
		Long: `Rewrite colour strings in every palette file to canonical lowercase
#rrggbbaa form (#RRGGBB gains an ff alpha). Colour values never change and the
rest of each file is left byte for byte as it was.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := palette.NormalizeDir(a.cfg.Palettes, a.dryRun, a.logger.Named("normalize"))
			if err != nil {
				return err
			}

			changed, replacements := 0, 0
			for _, r := range results {
				if r.Changed() {
					changed++
					replacements += r.Replacements
				}
			}

			out := cmd.OutOrStdout()
			switch {
			case changed == 0:
				fmt.Fprintln(out, "no changes")
			case a.dryRun:
				fmt.Fprintf(out, "Would normalise %d colour(s) in %d file(s)\n", replacements, changed)
			default:
				fmt.Fprintf(out, "Normalised %d colour(s) in %d file(s)\n", replacements, changed)
			}
			return nil
		},
	}
	dirFlag(cmd.Flags(), "palettes", "palettes directory")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every palette file",
		Long: `Parse every palette file and apply semantic checks: at least one item,
unique item ids within a file and well-formed colours. Exits non-zero when any
file fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := palette.ValidateDir(a.cfg.Palettes, a.logger.Named("validate"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				if !r.OK() {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", r.File, r.Err)
					continue
				}
				fmt.Fprintf(out, "OK    %s (%d item(s))\n", r.File, r.Items)
				for _, w := range r.Warnings {
					fmt.Fprintf(out, "      warning: %s\n", w)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d palette file(s) failed validation", failed, len(results))
			}
			fmt.Fprintf(out, "%d palette file(s) valid\n", len(results))
			return nil
		},
	}
	dirFlag(cmd.Flags(), "palettes", "palettes directory")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		order      string
		genVersion string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Create palette files from textures",
		Long: `Write one palette file per PNG under the textures directory.

A texture at <textures>/<material>/<id>.png becomes
<palettes>/<material>/<id>.texture-palettes.json with a single "base" group.
Textures with more distinct colours than --max-colors are reduced with median
cut quantisation.

Examples:
  # Extract with colours ordered dark to light
  btg extract --order lightness

  # Keep at most 16 colours and ignore faint pixels
  btg extract --max-colors 16 --min-alpha 32`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := colour.Order(order)
			if !slices.Contains(colour.ValidOrders(), o) {
				return fmt.Errorf("invalid --order %q (valid: %s)", order, orderNames())
			}

			results, err := palette.ExtractDir(palette.ExtractOptions{
				TexturesDir:      a.cfg.Textures,
				PalettesDir:      a.cfg.Palettes,
				MaxColors:        a.cfg.MaxColors,
				MinAlpha:         a.cfg.MinAlpha8(),
				Order:            o,
				GeneratorVersion: genVersion,
				DryRun:           a.dryRun,
			}, a.logger.Named("extract"))
			if err != nil {
				return err
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d colour(s))\n", r.Source, r.Output, r.Colors)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	dirFlag(flags, "textures", "textures directory")
	dirFlag(flags, "palettes", "palettes directory")
	flags.Int("max-colors", palette.DefaultMaxColors, "maximum palette size")
	flags.Int("min-alpha", 1, "ignore pixels with alpha below this value")
	flags.StringVar(&order, "order", string(colour.OrderRGBA), "colour order ("+orderNames()+")")
	flags.StringVar(&genVersion, "generator-version", version.Short(), "generator version written to palette files")

	return cmd
}

func newAutotemplateCmd(a *app) *cobra.Command {
	var (
		outDir    string
		materials []string
		minHits   int
	)

	cmd := &cobra.Command{
		Use:   "autotemplate",
		Short: "Suggest templates for PNGs",
		Long: `Write a schema template for every PNG directly inside --templates.

For each material the palette item sharing the most exact colours with the
image becomes the slot source. Materials with fewer than --min-hits matching
colours are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := palette.BuildIndex(a.cfg.Palettes, a.logger)
			if err != nil {
				return err
			}

			written, err := template.SuggestDir(a.cfg.Templates, outDir, idx, template.SuggestOptions{
				Materials:   materials,
				MinAlpha:    a.cfg.MinAlpha8(),
				MinHits:     minHits,
				PalettesDir: a.cfg.Palettes,
			}, a.dryRun, a.logger.Named("autotemplate"))
			if err != nil {
				return err
			}

			for _, w := range written {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	dirFlag(flags, "templates", "directory of template PNGs")
	dirFlag(flags, "palettes", "palettes directory")
	flags.StringVar(&outDir, "out-dir", "", "where to write templates (default: the templates directory)")
	flags.StringSliceVar(&materials, "materials", template.DefaultMaterials, "materials to look for")
	flags.Int("min-alpha", 1, "ignore pixels with alpha below this value")
	flags.IntVar(&minHits, "min-hits", template.DefaultMinHits, "minimum exact colour matches to accept a material")

	return cmd
}

func orderNames() string {
	names := make([]string, 0, len(colour.ValidOrders()))
	for _, o := range colour.ValidOrders() {
		names = append(names, string(o))
	}
	return strings.Join(names, ", ")
}
