// Package e2e contains end-to-end tests that exercise the full version
// resolution pipeline against real (temporary) git repositories.
//
// Each test creates a purpose-built git repo, resolves it through the public
// API, and asserts on the resolved version. This tests all layers together:
// configuration → git adapter → callable loader → templates → sanitizer.
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/testutil"
	"github.com/MyCarrier-DevOps/go-gitversioning/pkg/gitversioning"
)

// resolveDefaults resolves repo with default options and no config file.
func resolveDefaults(t *testing.T, path string) *gitversioning.Result {
	t.Helper()
	return resolveWith(t, path, gitversioning.DefaultOptions())
}

func resolveWith(t *testing.T, path string, opts gitversioning.Options) *gitversioning.Result {
	t.Helper()
	result, err := gitversioning.ResolveWith(context.Background(), path, opts)
	require.NoError(t, err)
	return result
}

// resolveConfig commits configYAML as gitversioning.yml and resolves repo
// through config discovery.
func resolveConfig(t *testing.T, repo *testutil.TestRepo, configYAML string) *gitversioning.Result {
	t.Helper()
	repo.CommitFile("gitversioning.yml", configYAML, "configure versioning")
	result, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.NoError(t, err)
	return result
}

var (
	devPattern   = regexp.MustCompile(`^1\.0\.0\.post1\+git\.[0-9a-f]{8}$`)
	dirtyPattern = regexp.MustCompile(`^1\.0\.0\.post0\+git\.[0-9a-f]{8}\.dirty$`)
)

// ---------------------------------------------------------------------------
// Reference scenarios
// ---------------------------------------------------------------------------

func TestScenario_EmptyRepository(t *testing.T) {
	repo := testutil.NewTestRepo(t)

	result := resolveDefaults(t, repo.Path())
	require.Equal(t, "0.0.1", result.Version)
	require.Equal(t, "starting-version", result.Variables["Source"])
	require.Equal(t, "", result.Variables["Sha"])
}

func TestScenario_TagOnHead(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("v1.2.3", repo.AddCommit("release"))

	result := resolveDefaults(t, repo.Path())
	require.Equal(t, "1.2.3", result.Version)
	require.Equal(t, "template", result.Variables["Template"])
	require.Equal(t, "0", result.Variables["CCount"])
}

func TestScenario_CommitAfterTag(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("1.0.0", repo.AddCommit("release"))
	head := repo.AddCommit("feature")

	result := resolveDefaults(t, repo.Path())
	require.Regexp(t, devPattern, result.Version)
	require.Equal(t, "1.0.0.post1+git."+head[:8], result.Version)
	require.Equal(t, "dev_template", result.Variables["Template"])
}

func TestScenario_DirtyTree(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("1.0.0", repo.AddCommit("release"))
	repo.WriteFile("file-1.txt", "modified")

	result := resolveDefaults(t, repo.Path())
	require.Regexp(t, dirtyPattern, result.Version)
	require.Equal(t, "true", result.Variables["Dirty"])
	require.Equal(t, "dirty_template", result.Variables["Template"])
}

func TestScenario_VersionFile(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("v9.9.9", repo.AddCommit("release"))
	repo.CommitFile("VERSION", "1.2.3+local-abc\n", "add version file")

	opts := gitversioning.DefaultOptions()
	opts.VersionFile = "VERSION"

	result := resolveWith(t, repo.Path(), opts)
	require.Equal(t, "1.2.3+local.abc", result.Version)
	require.Equal(t, "version-file", result.Variables["Source"])
}

func TestScenario_TagFilter(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("product_x/1.1.0", repo.AddCommit("x release"))
	repo.CreateTag("product_y/1.1.10", repo.AddCommit("y release"))

	opts := gitversioning.DefaultOptions()
	opts.TagFilter = gitversioning.Ref{Spec: "product_x/(?P<tag>.*)"}

	result := resolveWith(t, repo.Path(), opts)
	require.Equal(t, "product_x/1.1.0", result.Variables["Tag"])
	require.True(t, strings.HasPrefix(result.Version, "1.1.0.post1+git."), result.Version)

	opts.TagFormatter = gitversioning.Ref{Spec: "product_x/(?P<tag>.*)"}
	result = resolveWith(t, repo.Path(), opts)
	require.Equal(t, "1.1.0", result.Variables["Tag"])
}

// ---------------------------------------------------------------------------
// Configuration files
// ---------------------------------------------------------------------------

func TestConfig_YAMLTemplates(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("v2.0", repo.AddCommit("release"))
	repo.AddCommit("one")

	result := resolveConfig(t, repo, `
dev_template: "{tag}.dev{ccount:03d}+{branch}"
branch_formatter: "(?P<branch>[a-z]+)"
`)
	// The config commit itself is the second commit after the tag.
	require.Equal(t, "2.0.dev2+master", result.Version)
}

func TestConfig_Pyproject(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("release/3.1", repo.AddCommit("release"))
	repo.CommitFile("pyproject.toml", `[project]
name = "demo"

[tool.gitversioning]
template = "{tag}"
dev_template = "{tag}.post{ccount}"
tag_formatter = "release/(?P<tag>.*)"
`, "add pyproject")

	result, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.NoError(t, err)
	require.Equal(t, "3.1.post1", result.Version)
	require.Equal(t, "pyproject.toml", result.ConfigFile)
}

func TestConfig_PyprojectWithoutSectionIsDisabled(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CommitFile("pyproject.toml", "[project]\nname = \"demo\"\n", "add pyproject")

	_, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.ErrorIs(t, err, gitversioning.ErrDisabled)
}

func TestConfig_EnvFile(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("1.0", repo.AddCommit("release"))
	repo.CommitFile(".env", "GITVERSIONING_E2E_FILE_ONLY=77\n", "add env file")

	result := resolveConfig(t, repo, `
env_file: .env
dev_template: "{tag}.post{env:GITVERSIONING_E2E_FILE_ONLY}"
`)
	require.Equal(t, "1.0.post77", result.Version)
}

func TestConfig_ProcessEnvWinsOverEnvFile(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("1.0", repo.AddCommit("release"))
	repo.CommitFile(".env", "GITVERSIONING_E2E_BUILD=77\n", "add env file")
	t.Setenv("GITVERSIONING_E2E_BUILD", "5")

	result := resolveConfig(t, repo, `
env_file: .env
dev_template: "{tag}.post{env:GITVERSIONING_E2E_BUILD}"
`)
	require.Equal(t, "1.0.post5", result.Version)
}

func TestConfig_CountCommitsFromVersionFile(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CommitFile("VERSION", "2.5\n", "bump version")
	repo.AddCommit("one")
	repo.AddCommit("two")

	result := resolveConfig(t, repo, `
version_file: VERSION
count_commits_from_version_file: true
dev_template: "{tag}.dev{ccount}"
`)
	require.Equal(t, "2.5.dev3", result.Version)
}

// ---------------------------------------------------------------------------
// Tag selection
// ---------------------------------------------------------------------------

func TestTags_AnnotatedNewerThanLightweight(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	first := repo.AddCommit("first")
	second := repo.AddCommit("second")
	repo.CreateTag("1.0", second)
	repo.CreateAnnotatedTag("2.0", first, "annotated", repo.Now().Add(time.Hour))

	result := resolveDefaults(t, repo.Path())
	require.Equal(t, "2.0", result.Variables["Tag"])

	opts := gitversioning.DefaultOptions()
	opts.SortBy = gitversioning.SortByCommitterDate
	result = resolveWith(t, repo.Path(), opts)
	require.Equal(t, "1.0", result.Variables["Tag"])
	require.Equal(t, "1.0", result.Version)
}

func TestTags_VersionOrder(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	head := repo.AddCommit("release")
	repo.CreateTag("v1.10.0", head)
	repo.CreateTag("v1.9.0", head)

	opts := gitversioning.DefaultOptions()
	opts.SortBy = gitversioning.SortByVersion
	result := resolveWith(t, repo.Path(), opts)
	require.Equal(t, "1.10.0", result.Version)
}

func TestTags_RetaggedCommitPrefersFirstName(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	head := repo.AddCommit("release")
	repo.CreateTag("1.0.0rc1", head)
	repo.CreateTag("1.0.0", head)

	result := resolveDefaults(t, repo.Path())
	require.Equal(t, "1.0.0", result.Version)
}

func TestTags_UnmergedBranchTagIgnored(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	base := repo.AddCommit("base")
	repo.CreateTag("1.0", base)
	repo.CreateBranch("feature", base)
	repo.Checkout("feature")
	repo.CreateTag("5.0", repo.AddCommit("feature work"))
	repo.Checkout("master")
	repo.AddCommit("main work")

	result := resolveDefaults(t, repo.Path())
	require.Equal(t, "1.0", result.Variables["Tag"])
	require.Equal(t, "master", result.Variables["Branch"])
}

func TestTags_DetachedHead(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	sha := repo.AddCommit("release")
	repo.CreateTag("3.0", sha)
	repo.AddCommit("later")
	repo.Detach(sha)

	opts := gitversioning.DefaultOptions()
	opts.Template = "{tag}+{branch}"
	result := resolveWith(t, repo.Path(), opts)
	require.Equal(t, "3.0+head", result.Version)
}

// ---------------------------------------------------------------------------
// Project layout
// ---------------------------------------------------------------------------

func TestLayout_ProjectInSubdirectory(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CommitFile("pkg/a/gitversioning.yml", "template: \"{tag}.{ccount}\"\n", "add project")
	repo.CreateTag("4.0", repo.HeadSha())

	result, err := gitversioning.Resolve(context.Background(), filepath.Join(repo.Path(), "pkg", "a"))
	require.NoError(t, err)
	require.Equal(t, "4.0.0", result.Version)
}

func TestLayout_VersionFileInParentDirectory(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CommitFile("VERSION", "3.1\n", "bump version")
	repo.CommitFile("pkg/gitversioning.yml", `
version_file: ../VERSION
count_commits_from_version_file: true
dev_template: "{tag}.dev{ccount}"
`, "add project")

	result, err := gitversioning.Resolve(context.Background(), filepath.Join(repo.Path(), "pkg"))
	require.NoError(t, err)
	require.Equal(t, "3.1.dev1", result.Version)
	require.Equal(t, "version-file", result.Variables["Source"])
}

func TestLayout_PkgInfoShortCircuits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PKG-INFO"),
		[]byte("Metadata-Version: 2.1\nName: demo\nVersion: 1.4.2.post3+git.abcdef12\n"), 0o644))

	result := resolveDefaults(t, dir)
	require.Equal(t, "1.4.2.post3+git.abcdef12", result.Version)
	require.Equal(t, "pkg-info", result.Variables["Source"])
}

// ---------------------------------------------------------------------------
// Go callables
// ---------------------------------------------------------------------------

func TestCallables_RegisteredFormatter(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("build-42", repo.AddCommit("release"))

	registry := gitversioning.NewRegistry()
	require.NoError(t, registry.Register("e2e.formatters:build", func(tag string) string {
		return "0." + strings.TrimPrefix(tag, "build-")
	}))

	repo.CommitFile("gitversioning.yml", "tag_formatter: \"e2e.formatters:build\"\ntemplate: \"{tag}\"\ndev_template: \"{tag}.dev{ccount}\"\n", "configure")
	result, err := gitversioning.Resolve(context.Background(), repo.Path(), gitversioning.WithRegistry(registry))
	require.NoError(t, err)
	require.Equal(t, "0.42.dev1", result.Version)
}

func TestCallables_FormatterMismatch(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("nightly", repo.AddCommit("release"))

	opts := gitversioning.DefaultOptions()
	opts.TagFormatter = gitversioning.Ref{Spec: "v(?P<tag>[0-9.]+)"}

	_, err := gitversioning.ResolveWith(context.Background(), repo.Path(), opts)
	require.ErrorIs(t, err, gitversioning.ErrMatch)
	require.Contains(t, err.Error(), "nightly")
}

func TestCallables_CallbackIgnoresTemplates(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("1.0", repo.AddCommit("release"))
	repo.WriteFile("file-1.txt", "dirty")

	opts := gitversioning.DefaultOptions()
	opts.VersionCallback = gitversioning.VersionRef{Fn: func() (string, error) { return "7.7.7", nil }}
	opts.DirtyTemplate = "{tag}.dirty"

	result := resolveWith(t, repo.Path(), opts)
	require.Equal(t, "7.7.7", result.Version)
	require.Equal(t, "callback", result.Variables["Source"])
}
