package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/palette"
	"github.com/jmylchreest/btg/internal/remap"
)

type recolorFlags struct {
	srcPalette  string
	srcID       string
	dstPalette  string
	dstID       string
	group       string
	input       string
	noRecursive bool
	strict      bool
}

func newRecolorCmd(a *app) *cobra.Command {
	var f recolorFlags

	cmd := &cobra.Command{
		Use:   "recolor",
		Short: "Swap one palette for another across a directory of textures",
		Long: `Recolour every PNG under --input from one palette item to another.

Colours are matched against the source palette (exactly first, then by nearest
colour) and replaced with the proportionally mapped destination colour. With
--strict the two palettes must have the same length and are paired one to one.

Examples:
  # Turn oak textures into iron ones
  btg recolor --src-palette wood/oak.texture-palettes.json --src-id oak \
    --dst-palette metal/iron.texture-palettes.json --dst-id iron \
    --input textures_input --output output/textures/item`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := groupColours(a.cfg.Palettes, f.srcPalette, f.srcID, f.group)
			if err != nil {
				return err
			}
			dst, err := groupColours(a.cfg.Palettes, f.dstPalette, f.dstID, f.group)
			if err != nil {
				return err
			}

			opts := remap.Options{
				ClassifyOptions: remap.ClassifyOptions{
					AlphaWeight: a.cfg.AlphaWeight,
					MinAlpha:    a.cfg.MinAlpha8(),
					ExactFirst:  a.cfg.ExactFirst,
				},
				PreserveAlpha: a.cfg.PreserveAlpha,
				Strict:        f.strict,
			}
			r, err := remap.NewRecolorer(src, dst, opts, a.logger.Named("recolor"))
			if err != nil {
				return fmt.Errorf("failed to map %s onto %s: %w", f.srcID, f.dstID, err)
			}

			outputs, err := r.RecolorTree(cmd.Context(), f.input, a.cfg.Output, !f.noRecursive, a.dryRun)
			if err != nil {
				return err
			}

			verb := "Recoloured"
			if a.dryRun {
				verb = "Would recolour"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d file(s): %s -> %s\n", verb, len(outputs), f.srcID, f.dstID)
			return nil
		},
	}

	flags := cmd.Flags()
	dirFlag(flags, "palettes", "palettes directory")
	flags.StringVar(&f.srcPalette, "src-palette", "", "source palette file under the palettes directory (e.g. wood/oak.texture-palettes.json)")
	flags.StringVar(&f.srcID, "src-id", "", "source item id (e.g. oak)")
	flags.StringVar(&f.dstPalette, "dst-palette", "", "destination palette file under the palettes directory")
	flags.StringVar(&f.dstID, "dst-id", "", "destination item id (e.g. iron)")
	flags.StringVar(&f.group, "group", "", "colour group id (default: base if present, else the first)")
	flags.StringVar(&f.input, "input", "textures_input", "input directory or image file")
	dirFlag(flags, "output", "output directory")
	flags.BoolVar(&f.noRecursive, "no-recursive", false, "do not descend into subdirectories of --input")
	flags.BoolVar(&f.strict, "strict", false, "require equal palette lengths and pair colours one to one")
	flags.AddFlagSet(tunableFlags())

	for _, name := range []string{"src-palette", "src-id", "dst-palette", "dst-id"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// groupColours loads one group of one palette item.
func groupColours(root, file, id, group string) ([]colour.RGBA, error) {
	item, err := palette.FindItem(root, file, id)
	if err != nil {
		return nil, err
	}
	_, g, err := item.GroupOrDefault(group)
	if err != nil {
		return nil, err
	}
	return g.Colors, nil
}
