package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/logging"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/output"
	"github.com/MyCarrier-DevOps/go-gitversioning/pkg/gitversioning"
)

func resolveRunE(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	logger, err := logging.New(flagVerbosity)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if flagShowConfig {
		return showConfig(cmd.OutOrStdout(), os.DirFS(root), root)
	}

	result, err := gitversioning.Resolve(cmd.Context(), root,
		gitversioning.WithConfigFile(flagConfig),
		gitversioning.WithLogger(logger),
	)
	if err != nil {
		return explainError(err, root)
	}
	logger.Debug("resolved", zap.String("version", result.Version), zap.String("config", result.ConfigFile))
	return writeResult(cmd, result)
}

// explainError adds a hint on how to enable versioning to ErrDisabled.
func explainError(err error, where string) error {
	if errors.Is(err, gitversioning.ErrDisabled) {
		return fmt.Errorf("%w for %s: add a gitversioning.yml or a [tool.gitversioning] table in pyproject.toml, and do not set enabled to false", err, where)
	}
	return err
}

// showConfig prints the effective configuration as YAML.
func showConfig(w io.Writer, fsys fs.FS, where string) error {
	cfg, source, err := gitversioning.LoadConfig(fsys, flagConfig)
	if err != nil {
		return explainError(err, where)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintf(w, "# %s\n%s", source, data)
	return nil
}

// writeResult writes the explanation to stderr when requested, then the
// version variables in the requested format to stdout.
func writeResult(cmd *cobra.Command, result *gitversioning.Result) error {
	if flagExplain {
		if _, err := io.WriteString(cmd.ErrOrStderr(), result.Explanation); err != nil {
			return fmt.Errorf("writing explanation: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	if flagShowVariable != "" {
		return output.WriteVariable(w, result.Variables, flagShowVariable)
	}

	format, err := output.ParseFormat(flagOutput)
	if err != nil {
		return err
	}
	return output.Write(w, format, result.Variables)
}
