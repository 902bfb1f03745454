package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags shared across commands.
var (
	flagConfig       string
	flagOutput       string
	flagShowVariable string
	flagShowConfig   bool
	flagExplain      bool
	flagVerbosity    int
)

// rootCmd is the top-level command for gitversioning.
var rootCmd = &cobra.Command{
	Use:   "gitversioning [root]",
	Short: "Package version from git metadata",
	Long: `gitversioning derives a package version from git metadata: the latest tag
reachable from HEAD, the number of commits since it, the current branch and
whether the working tree is dirty.

Versioning is enabled by a gitversioning.yml (or .gitversioning.yml) file, or a
[tool.gitversioning] table in pyproject.toml, in the project root.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          resolveRunE,
}

func init() {
	addCommonFlags(rootCmd.PersistentFlags())
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.StringVar(&flagConfig, "config", "", "path to config file (default: auto-detect in the project root)")
	flags.StringVarP(&flagOutput, "output", "o", "", "output format: plain, json or env")
	flags.StringVar(&flagShowVariable, "show-variable", "", "output a single variable (e.g. Version, Tag, CCount)")
	flags.BoolVar(&flagShowConfig, "show-config", false, "display the effective configuration and exit")
	flags.BoolVar(&flagExplain, "explain", false, "show how the version was resolved on stderr")
	flags.CountVarP(&flagVerbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
