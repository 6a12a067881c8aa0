package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/btg/internal/jsonwalk"
	"github.com/jmylchreest/btg/internal/version"
)

func newRewriteNamespaceCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "rewrite-namespace <in> <out>",
		Short: "Rewrite namespaced ids in a JSON file",
		Long: `Copy a JSON file, replacing the namespace of every "from:path" string value
with "to:path". Object keys and non-string values are left alone. Use it to
import templates or models written for another mod.

Examples:
  btg rewrite-namespace upstream/barrel.json templates/barrel.json --from modid --to mymod`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			if a.dryRun {
				a.logger.Info("would rewrite", "input", in, "output", out, "from", from, "to", to, "dry_run", true)
				return nil
			}

			n, err := jsonwalk.RewriteFile(in, out, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rewrote %d value(s): %s -> %s\n", n, in, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "namespace to replace")
	cmd.Flags().StringVar(&to, "to", "", "replacement namespace")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and BTG_*
environment variables are applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			if a.cfg.Source != "" {
				a.logger.Info("config file", "file", a.cfg.Source)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	return cmd
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		// version never needs configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(version.GetInfo())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")

	return cmd
}
