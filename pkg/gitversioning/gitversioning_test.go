package gitversioning_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gh "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/testutil"
	"github.com/MyCarrier-DevOps/go-gitversioning/pkg/gitversioning"
)

func enabledRepo(t *testing.T) *testutil.TestRepo {
	t.Helper()
	repo := testutil.NewTestRepo(t)
	repo.CommitFile(".gitversioning.yml", "enabled: true\n", "add versioning config")
	return repo
}

func TestResolve_TaggedCommit(t *testing.T) {
	repo := enabledRepo(t)
	repo.CreateTag("v1.2.3", repo.HeadSha())

	result, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.NoError(t, err)
	require.Equal(t, "1.2.3", result.Version)
	require.Equal(t, ".gitversioning.yml", result.ConfigFile)
	require.Equal(t, "tag", result.Variables["Source"])
	require.Equal(t, "v1.2.3", result.Variables["Tag"])
	require.Equal(t, "false", result.Variables["Dirty"])
	require.NotEmpty(t, result.Explanation)
}

func TestResolve_CommitsAfterTag(t *testing.T) {
	repo := enabledRepo(t)
	repo.CreateTag("1.0.0", repo.HeadSha())
	sha := repo.AddCommit("feature work")

	result, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.NoError(t, err)
	require.Equal(t, "1.0.0.post1+git."+sha[:8], result.Version)
	require.Equal(t, "1", result.Variables["CCount"])
	require.Equal(t, "dev_template", result.Variables["Template"])
}

func TestResolve_NoTag(t *testing.T) {
	repo := enabledRepo(t)

	result, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.NoError(t, err)
	require.Equal(t, "0.0.1", result.Version)
	require.Equal(t, "starting-version", result.Variables["Source"])
}

func TestResolve_Disabled(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.AddCommit("initial commit")

	_, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.ErrorIs(t, err, gitversioning.ErrDisabled)

	repo.CommitFile("gitversioning.yml", "enabled: false\n", "disable")
	_, err = gitversioning.Resolve(context.Background(), repo.Path())
	require.ErrorIs(t, err, gitversioning.ErrDisabled)
}

func TestResolve_ConflictingConfigSources(t *testing.T) {
	repo := enabledRepo(t)
	repo.CommitFile("pyproject.toml", "[tool.gitversioning]\nenabled = true\n", "add pyproject")

	_, err := gitversioning.Resolve(context.Background(), repo.Path())
	require.ErrorIs(t, err, gitversioning.ErrConfig)
	require.Contains(t, err.Error(), "remove one of them")
}

func TestResolve_ExplicitConfigFile(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("v2.0", repo.AddCommit("initial commit"))

	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[tool.gitversioning]
template = "{tag}.{ccount}"
tag_formatter = "v(?P<tag>.*)"
`), 0o644))

	result, err := gitversioning.Resolve(context.Background(), repo.Path(), gitversioning.WithConfigFile(path))
	require.NoError(t, err)
	require.Equal(t, "2.0.0", result.Version)
	require.Equal(t, path, result.ConfigFile)
}

func TestResolve_NotARepository(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gitversioning.yml"), []byte("starting_version: 0.5.0\n"), 0o644))

	result, err := gitversioning.Resolve(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, "0.5.0", result.Version)
	require.Equal(t, "", result.Variables["Sha"])
}

func TestResolve_InvalidRoot(t *testing.T) {
	_, err := gitversioning.Resolve(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestResolveWith_GoFunctions(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.CreateTag("release-3.1", repo.AddCommit("initial commit"))

	opts := gitversioning.DefaultOptions()
	opts.TagFormatter = gitversioning.Ref{Fn: func(tag string) (string, error) {
		return strings.TrimPrefix(tag, "release-"), nil
	}}

	result, err := gitversioning.ResolveWith(context.Background(), repo.Path(), opts)
	require.NoError(t, err)
	require.Equal(t, "3.1", result.Version)
	require.Equal(t, "", result.ConfigFile)
}

func TestResolveWith_RegisteredCallback(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.AddCommit("initial commit")

	registry := gitversioning.NewRegistry()
	require.NoError(t, registry.Register("mypkg.version:get", func() string { return "4.5.6" }))

	opts := gitversioning.DefaultOptions()
	opts.VersionCallback = gitversioning.VersionRef{Spec: "mypkg.version:get"}

	result, err := gitversioning.ResolveWith(context.Background(), repo.Path(), opts, gitversioning.WithRegistry(registry))
	require.NoError(t, err)
	require.Equal(t, "4.5.6", result.Version)
	require.Equal(t, "callback", result.Variables["Source"])
}

func TestResolveWith_CallbackAndVersionFile(t *testing.T) {
	opts := gitversioning.DefaultOptions()
	opts.VersionCallback = gitversioning.VersionRef{Spec: "1.0"}
	opts.VersionFile = "VERSION"

	_, err := gitversioning.ResolveWith(context.Background(), t.TempDir(), opts)
	require.ErrorIs(t, err, gitversioning.ErrConfig)
}

func TestResolveWith_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gitversioning.ResolveWith(ctx, t.TempDir(), gitversioning.DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveRemote_MissingRepo(t *testing.T) {
	_, err := gitversioning.ResolveRemote(context.Background(), gitversioning.RemoteOptions{Owner: "myorg"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "owner and repo are required")
}

func TestResolveRemote_NoAuth(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_APP_ID", "")

	_, err := gitversioning.ResolveRemote(context.Background(), gitversioning.RemoteOptions{Owner: "myorg", Repo: "myrepo"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "creating GitHub client")
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}

func TestResolveRemoteWithClient(t *testing.T) {
	head := strings.Repeat("c", 40)
	tagged := strings.Repeat("d", 40)

	const prefix = "GET /api/v3/repos/testowner/testrepo"
	mux := http.NewServeMux()
	mux.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]any{"default_branch": "main"})
	})
	mux.HandleFunc(prefix+"/commits/{ref}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("ref") {
		case "main":
			_, _ = w.Write([]byte(head))
		case "v1.4":
			_, _ = w.Write([]byte(tagged))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc(prefix+"/git/matching-refs/tags", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []map[string]any{
			{"ref": "refs/tags/v1.4", "object": map[string]any{"type": "commit", "sha": tagged}},
		})
	})
	mux.HandleFunc(prefix+"/compare/{spec}", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]any{
			"status":   "ahead",
			"ahead_by": 3,
			"base_commit": map[string]any{
				"sha":    tagged,
				"commit": map[string]any{"committer": map[string]any{"date": "2025-01-15T12:00:00Z"}},
			},
		})
	})
	mux.HandleFunc(prefix+"/branches/{branch}", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]any{"name": r.PathValue("branch")})
	})
	mux.HandleFunc(prefix+"/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("path") != "gitversioning.yml" {
			http.NotFound(w, r)
			return
		}
		writeTestJSON(w, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("dev_template: \"{tag}.dev{ccount}\"\n")),
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	client, err := gh.NewClient(nil).WithEnterpriseURLs(server.URL+"/", server.URL+"/")
	require.NoError(t, err)

	result, err := gitversioning.ResolveRemoteWithClient(context.Background(), client,
		gitversioning.RemoteOptions{Owner: "testowner", Repo: "testrepo"})
	require.NoError(t, err)
	require.Equal(t, "1.4.dev3", result.Version)
	require.Equal(t, "main", result.Variables["Branch"])
	require.Equal(t, "testowner/testrepo:gitversioning.yml", result.ConfigFile)
}
