package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/compression"
	"github.com/jmylchreest/btg/internal/palette"
)

func newPalettesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palettes",
		Short: "Inspect and import palettes",
	}
	cmd.AddCommand(newPalettesListCmd(a), newPalettesImportCmd(a))
	return cmd
}

func newPalettesListCmd(a *app) *cobra.Command {
	var (
		material string
		preview  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed palette items",
		Long: `List every palette item in the index, grouped by material and sorted by id.

Colour swatches are shown when writing to a terminal; use --preview=false to
turn them off or --preview to force them on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := palette.BuildIndex(a.cfg.Palettes, a.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("preview") {
				preview = isTerminal(out)
			}

			headers := []string{"MATERIAL", "ID", "NAME", "GROUPS", "COLOURS", "FILE"}
			if preview {
				headers = append(headers, "PREVIEW")
			}
			table := NewTable(headers)
			table.SetColumnMaxWidth(2, 24)

			rows := 0
			for _, m := range idx.Materials() {
				if material != "" && m != material {
					continue
				}
				for _, id := range idx.IDs(m) {
					ref, _ := idx.Lookup(m, id)
					gid, group := ref.Item.DefaultGroup()
					row := []string{
						m,
						id,
						ref.Item.Name,
						strings.Join(ref.Item.GroupIDs(), ","),
						strconv.Itoa(group.Len()) + " (" + gid + ")",
						ref.File,
					}
					if preview && group != nil {
						row = append(row, colour.RampPreview(group.Colors, 2))
					}
					table.AddRow(row)
					rows++
				}
			}

			if rows == 0 {
				fmt.Fprintln(out, "No palettes found.")
				return nil
			}
			fmt.Fprint(out, table.Render())

			for _, d := range idx.Duplicates() {
				a.logger.Warn("duplicate palette id", "material", d.Material, "id", d.ID,
					"kept", d.Current, "ignored", d.Previous)
			}
			return nil
		},
	}

	dirFlag(cmd.Flags(), "palettes", "palettes directory")
	cmd.Flags().StringVar(&material, "material", "", "only list this material")
	cmd.Flags().BoolVar(&preview, "preview", false, "show colour swatches (default: on for terminals)")

	return cmd
}

func newPalettesImportCmd(a *app) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import <archive>...",
		Short: "Import palette packs from archives",
		Long: `Extract the palette files of one or more packs into the palettes directory.

Supported formats: .zip, .tar.gz, .tar.xz and .tar.bz2. Only
*.texture-palettes.json entries are extracted, keeping their directory layout.
Entries that would escape the palettes directory are rejected. Every imported
file is validated afterwards.

Examples:
  btg palettes import packs/vanilla-woods_1.2.0.tar.xz
  btg palettes import --overwrite metals.zip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger.Named("import")
			out := cmd.OutOrStdout()

			for _, archive := range args {
				if !compression.IsArchive(archive) {
					return fmt.Errorf("%w: %s", compression.ErrUnsupportedArchive, archive)
				}

				res, err := compression.ExtractArchive(archive, a.cfg.Palettes, compression.Options{
					Match:     func(name string) bool { return strings.HasSuffix(name, palette.FileSuffix) },
					Overwrite: overwrite,
					DryRun:    a.dryRun,
				}, logger)
				if err != nil {
					return fmt.Errorf("failed to import %s: %w", archive, err)
				}

				pack := compression.GetArchiveBaseName(archive)
				if a.dryRun {
					fmt.Fprintf(out, "Would import %d palette file(s) from %s\n", len(res.Files), pack)
					continue
				}

				for _, f := range res.Files {
					if r := palette.ValidateFile(f); !r.OK() {
						logger.Warn("imported palette failed validation", "file", f, "error", r.Err)
					}
				}
				fmt.Fprintf(out, "Imported %d palette file(s) from %s\n", len(res.Files), pack)
			}
			return nil
		},
	}

	dirFlag(cmd.Flags(), "palettes", "palettes directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace palette files that already exist")

	return cmd
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}
