package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ghprovider "github.com/MyCarrier-DevOps/go-gitversioning/internal/github"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/logging"
	"github.com/MyCarrier-DevOps/go-gitversioning/pkg/gitversioning"
)

var (
	flagToken      string
	flagAppID      int64
	flagAppKey     string
	flagAppKeyPath string
	flagGitHubURL  string
	flagRef        string
)

var remoteCmd = &cobra.Command{
	Use:   "remote owner/repo",
	Short: "Resolve the version of a GitHub repository via the API",
	Long: `Resolve the version of a GitHub repository by reading tags, commits and
configuration through the GitHub API. No local clone is required. A remote ref
has no working tree, so it is never dirty.

Authentication (checked in order):
  1. --token flag or GITHUB_TOKEN env var
  2. --github-app-id + --github-app-key (PEM content) or GH_APP_ID + GH_APP_PRIVATE_KEY env vars
  3. --github-app-id + --github-app-key-path (PEM file) or GH_APP_ID + GH_APP_PRIVATE_KEY_PATH env vars

Examples:
  GITHUB_TOKEN=ghp_xxx gitversioning remote myorg/myrepo
  gitversioning remote myorg/myrepo --token ghp_xxx --ref v1.2.0
  gitversioning remote myorg/myrepo --github-app-id 12345 --github-app-key-path /path/to/key.pem`,
	Args: cobra.ExactArgs(1),
	RunE: remoteRunE,
}

func init() {
	remoteCmd.Flags().StringVar(&flagToken, "token", "", "GitHub token (or set GITHUB_TOKEN env var)")
	remoteCmd.Flags().Int64Var(&flagAppID, "github-app-id", 0, "GitHub App ID (or set GH_APP_ID env var)")
	remoteCmd.Flags().StringVar(&flagAppKey, "github-app-key", "", "GitHub App private key PEM content (or set GH_APP_PRIVATE_KEY env var)")
	remoteCmd.Flags().StringVar(&flagAppKeyPath, "github-app-key-path", "", "path to GitHub App private key PEM file (or set GH_APP_PRIVATE_KEY_PATH env var)")
	remoteCmd.Flags().StringVar(&flagGitHubURL, "github-url", "", "GitHub API base URL for GitHub Enterprise (or set GITHUB_API_URL env var)")
	remoteCmd.Flags().StringVar(&flagRef, "ref", "", "git ref to version: branch, tag, or SHA (default: repo default branch)")

	rootCmd.AddCommand(remoteCmd)
}

func remoteRunE(cmd *cobra.Command, args []string) error {
	owner, repo, err := ghprovider.ParseSlug(args[0])
	if err != nil {
		return err
	}

	logger, err := logging.New(flagVerbosity)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	result, err := gitversioning.ResolveRemote(cmd.Context(), gitversioning.RemoteOptions{
		Owner:      owner,
		Repo:       repo,
		Ref:        flagRef,
		Token:      flagToken,
		AppID:      flagAppID,
		AppKey:     flagAppKey,
		AppKeyPath: flagAppKeyPath,
		BaseURL:    flagGitHubURL,
	},
		gitversioning.WithConfigFile(flagConfig),
		gitversioning.WithLogger(logger),
	)
	if err != nil {
		return explainError(err, args[0])
	}
	logger.Debug("resolved", zap.String("repo", args[0]), zap.String("version", result.Version))
	return writeResult(cmd, result)
}
