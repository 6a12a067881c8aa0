// Package cli provides the command-line interface for btg.
package cli

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/btg/internal/config"
	"github.com/jmylchreest/btg/internal/logging"
	"github.com/jmylchreest/btg/internal/version"
)

// app carries state shared by every command once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	quiet      bool
	logJSON    bool
	dryRun     bool

	cfg    *config.Config
	logger hclog.Logger
}

// NewRootCmd builds the btg command tree. Each call returns an independent tree,
// so tests can execute commands side by side.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "btg",
		Short: "Batch texture generator",
		Long: `btg recolours template textures with material palettes.

A template declares slots (for example "wood" and "metal"), each with a source
palette found in the template image. Every combination of destination palettes
of the slot materials produces one output texture, named by the template's
output pattern.

Palettes live in *.texture-palettes.json files under the palettes directory,
grouped by material subdirectory. Templates are *.btg-template.json files.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default .btg.json, then the user config directory)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	pf.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON lines")
	pf.BoolVar(&a.dryRun, "dry-run", false, "report what would be written without writing")

	// Set version template
	rootCmd.SetVersionTemplate(version.String() + "\n")

	// Add subcommands
	rootCmd.AddCommand(
		newGenerateCmd(a),
		newRecolorCmd(a),
		newTasksCmd(a),
		newNormalizeCmd(a),
		newValidateCmd(a),
		newExtractCmd(a),
		newAutotemplateCmd(a),
		newPalettesCmd(a),
		newRewriteNamespaceCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the command tree with ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// init resolves configuration and builds the logger for the command about to run.
func (a *app) init(cmd *cobra.Command) error {
	a.logger = logging.New(logging.Options{
		Verbose: a.verbose,
		Quiet:   a.quiet,
		JSON:    a.logJSON,
		Output:  cmd.ErrOrStderr(),
	})

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if cfg.Source != "" {
		a.logger.Debug("loaded config", "file", cfg.Source)
	}
	return nil
}

// applyFlags copies explicitly set flags over the configuration. Commands only
// register the flags they use, so missing flags are ignored.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	strs := map[string]*string{
		"palettes":  &cfg.Palettes,
		"templates": &cfg.Templates,
		"textures":  &cfg.Textures,
		"output":    &cfg.Output,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	ints := map[string]*int{
		"min-alpha":  &cfg.MinAlpha,
		"workers":    &cfg.Workers,
		"max-colors": &cfg.MaxColors,
	}
	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("alpha-weight") {
		v, err := flags.GetFloat64("alpha-weight")
		if err != nil {
			return err
		}
		cfg.AlphaWeight = v
	}

	negated := map[string]*bool{
		"no-preserve-alpha": &cfg.PreserveAlpha,
		"no-exact-first":    &cfg.ExactFirst,
	}
	for name, dst := range negated {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = !v
	}
	return nil
}
