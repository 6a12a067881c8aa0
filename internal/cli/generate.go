package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/btg/internal/generate"
	"github.com/jmylchreest/btg/internal/palette"
)

func newGenerateCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render every palette combination of every template",
		Long: `Render every schema template under the templates directory.

For each template the source palette colours of every slot are located in the
template image, then one texture is written per combination of destination
palettes of the slot materials. Candidates are taken in sorted id order with the
last slot varying fastest.

Examples:
  # Render everything with the default directories
  btg generate

  # Preview the first two files of each template
  btg generate --limit 2 --dry-run

  # Render on four workers into a build directory
  btg generate --workers 4 --output build/textures`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := palette.BuildIndex(a.cfg.Palettes, a.logger)
			if err != nil {
				return err
			}

			opts := a.generateOptions()
			opts.Limit = limit
			g := generate.New(idx, a.cfg.Palettes, opts, a.logger.Named("generate"))

			summary, err := g.GenerateAll(cmd.Context(), a.cfg.Templates)
			if err != nil {
				return err
			}

			verb := "Generated"
			if a.dryRun {
				verb = "Would generate"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d file(s) from %d template(s)\n",
				verb, summary.Total(), len(summary.Results))
			return nil
		},
	}

	dirFlag(cmd.Flags(), "palettes", "palettes directory")
	dirFlag(cmd.Flags(), "templates", "templates directory")
	dirFlag(cmd.Flags(), "output", "output directory")
	cmd.Flags().AddFlagSet(tunableFlags())
	cmd.Flags().IntVar(&limit, "limit", 0, "render at most this many combinations per template (0 = all)")
	cmd.Flags().Int("workers", 1, "render combinations on this many goroutines")

	return cmd
}

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Run legacy task templates",
		Long: `Run legacy task templates under the templates directory.

Each task applies its swaps, in order, to a base texture: pixels exactly equal to
a source palette colour take the proportionally mapped destination colour. One
texture is written per task as <output>/<output_id>.png. Schema templates are
skipped; use generate for those.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := a.generateOptions()
			g := generate.New(palette.NewIndex(a.logger), a.cfg.Palettes, opts, a.logger.Named("tasks"))

			outputs, err := g.RunTasks(cmd.Context(), a.cfg.Templates)
			if err != nil {
				return err
			}
			for _, out := range outputs {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}

	dirFlag(cmd.Flags(), "palettes", "palettes directory")
	dirFlag(cmd.Flags(), "templates", "templates directory")
	dirFlag(cmd.Flags(), "output", "output directory")

	return cmd
}

// generateOptions maps the resolved configuration onto generator options.
func (a *app) generateOptions() generate.Options {
	return generate.Options{
		MinAlpha:      a.cfg.MinAlpha8(),
		AlphaWeight:   a.cfg.AlphaWeight,
		ExactFirst:    a.cfg.ExactFirst,
		PreserveAlpha: a.cfg.PreserveAlpha,
		DryRun:        a.dryRun,
		Workers:       a.cfg.Workers,
		OutputDir:     a.cfg.Output,
	}
}
