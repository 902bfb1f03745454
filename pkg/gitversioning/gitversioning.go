// Package gitversioning derives a package version from git metadata: the
// latest reachable tag, the commit count since it, the branch, the dirty
// state of the working tree, or a version file or callback.
//
// Basic usage, with configuration discovered in the project root:
//
//	result, err := gitversioning.Resolve(context.Background(), ".")
//	fmt.Println(result.Version) // "1.2.3.post4+git.abc1234"
//
// Go callers can skip configuration files and pass options directly:
//
//	opts := gitversioning.DefaultOptions()
//	opts.TagFormatter = gitversioning.Ref{Fn: func(tag string) (string, error) {
//	    return strings.TrimPrefix(tag, "release-"), nil
//	}}
//	result, err := gitversioning.ResolveWith(context.Background(), ".", opts)
//
// Remote repositories are versioned through the GitHub API:
//
//	result, err := gitversioning.ResolveRemote(context.Background(), gitversioning.RemoteOptions{
//	    Owner: "myorg",
//	    Repo:  "myrepo",
//	    Token: os.Getenv("GITHUB_TOKEN"),
//	})
package gitversioning

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/callable"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/config"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/git"
	ghprovider "github.com/MyCarrier-DevOps/go-gitversioning/internal/github"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/output"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/resolver"
)

type (
	// Options is the resolved configuration. Start from DefaultOptions.
	Options = config.Options
	// Ref is a formatter or filter: a Go function, a registered
	// "module:attr" name, or a regular expression.
	Ref = callable.Ref
	// VersionRef is a version callback: a Go function, a registered
	// "module:attr" name, or a literal version.
	VersionRef = callable.VersionRef
	// Func is the signature of formatters and filters.
	Func = callable.Func
	// SortKey orders tags before the latest one is picked.
	SortKey = git.SortKey
	// Registry maps "module:attr" names to Go values.
	Registry = callable.Registry
)

// Sort keys.
const (
	SortByCreatorDate   = git.SortByCreatorDate
	SortByTaggerDate    = git.SortByTaggerDate
	SortByCommitterDate = git.SortByCommitterDate
	SortByRefName       = git.SortByRefName
	SortByVersion       = git.SortByVersion
)

// Errors reported by resolution. Match them with errors.Is.
var (
	ErrDisabled  = config.ErrDisabled
	ErrConfig    = config.ErrConfig
	ErrReference = callable.ErrReference
	ErrMatch     = callable.ErrMatch
)

// Register makes value available to configuration under name, in
// "module:attr" form.
func Register(name string, value any) error {
	return callable.Register(name, value)
}

// NewRegistry returns an empty registry for use with WithRegistry.
func NewRegistry() *Registry {
	return callable.NewRegistry()
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	return config.DefaultOptions()
}

// Result is a resolved version.
type Result struct {
	// Version is the canonical version string.
	Version string

	// Variables holds every output variable keyed by name (Version, Public,
	// Local, Source, Template, Tag, Sha, FullSha, CCount, Branch, Dirty).
	Variables map[string]string

	// Explanation is a human readable trace of how the version was chosen.
	Explanation string

	// ConfigFile names the configuration file used, if any.
	ConfigFile string
}

type settings struct {
	configFile string
	logger     *zap.Logger
	registry   *callable.Registry
}

// Option customises a call.
type Option func(*settings)

// WithConfigFile reads configuration from path instead of discovering it
// in the project root.
func WithConfigFile(path string) Option {
	return func(s *settings) { s.configFile = path }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithRegistry resolves "module:attr" references against registry instead
// of the default one.
func WithRegistry(registry *Registry) Option {
	return func(s *settings) { s.registry = registry }
}

func newSettings(opts []Option) *settings {
	s := &settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Resolve computes the version of the project rooted at root, using the
// configuration found there (or the file given by WithConfigFile). It
// returns ErrDisabled when there is no configuration or it is disabled.
func Resolve(ctx context.Context, root string, opts ...Option) (*Result, error) {
	s := newSettings(opts)
	root, err := projectRoot(root)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(root)

	cfg, source, err := LoadConfig(fsys, s.configFile)
	if err != nil {
		return nil, err
	}
	options, err := cfg.Options(fsys)
	if err != nil {
		return nil, err
	}

	res, err := resolveLocal(ctx, root, fsys, options, s)
	if err != nil {
		return nil, err
	}
	res.ConfigFile = source
	return res, nil
}

// ResolveWith computes the version of the project rooted at root from
// options, ignoring configuration files.
func ResolveWith(ctx context.Context, root string, options Options, opts ...Option) (*Result, error) {
	s := newSettings(opts)
	root, err := projectRoot(root)
	if err != nil {
		return nil, err
	}
	return resolveLocal(ctx, root, os.DirFS(root), options, s)
}

func resolveLocal(ctx context.Context, root string, fsys fs.FS, options Options, s *settings) (*Result, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	repo := git.Detect(root, s.logger)
	loader := callable.NewLoader(root, s.registry, s.logger)
	return run(ctx, resolver.New(repo, fsys, loader, s.logger, resolver.WithRoot(root)), options)
}

// RemoteOptions configures resolution through the GitHub API.
type RemoteOptions struct {
	// Owner and Repo name the repository (required).
	Owner string
	Repo  string

	// Ref is the branch, tag or SHA to version. Defaults to the default
	// branch.
	Ref string

	// Token is a GitHub token. Falls back to GITHUB_TOKEN.
	Token string

	// AppID, AppKey and AppKeyPath configure GitHub App authentication.
	AppID      int64
	AppKey     string
	AppKeyPath string

	// BaseURL is the GitHub Enterprise API URL. Falls back to GITHUB_API_URL.
	BaseURL string
}

// ResolveRemote computes the version of a GitHub repository at a ref.
// Configuration is read from the repository unless WithConfigFile is given.
// The remote has no working tree, so the dirty template never applies.
func ResolveRemote(ctx context.Context, remote RemoteOptions, opts ...Option) (*Result, error) {
	if remote.Owner == "" || remote.Repo == "" {
		return nil, errors.New("owner and repo are required")
	}

	client, err := ghprovider.NewClient(ctx, ghprovider.ClientConfig{
		Token:      remote.Token,
		AppID:      remote.AppID,
		AppKey:     remote.AppKey,
		AppKeyPath: remote.AppKeyPath,
		BaseURL:    remote.BaseURL,
		Owner:      remote.Owner,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}
	return ResolveRemoteWithClient(ctx, client, remote, opts...)
}

// ResolveRemoteWithClient is ResolveRemote with a caller supplied client.
// Only Owner, Repo and Ref of remote are used.
func ResolveRemoteWithClient(ctx context.Context, client *gh.Client, remote RemoteOptions, opts ...Option) (*Result, error) {
	s := newSettings(opts)

	repo := ghprovider.NewRepository(client, remote.Owner, remote.Repo,
		ghprovider.WithRef(remote.Ref),
		ghprovider.WithContext(ctx),
		ghprovider.WithLogger(s.logger),
	)
	fsys := ghprovider.NewFS(ctx, client, remote.Owner, remote.Repo, remote.Ref)

	cfg, source, err := LoadConfig(fsys, s.configFile)
	if err != nil {
		return nil, err
	}
	options, err := cfg.Options(fsys)
	if err != nil {
		return nil, err
	}

	loader := callable.NewLoader("", s.registry, s.logger)
	res, err := run(ctx, resolver.New(repo, fsys, loader, s.logger), options)
	if err != nil {
		return nil, err
	}
	if source != "" && s.configFile == "" {
		source = repo.Slug() + ":" + source
	}
	res.ConfigFile = source
	return res, nil
}

func run(ctx context.Context, r *resolver.Resolver, options Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := r.Resolve(options)
	if err != nil {
		return nil, err
	}
	return &Result{
		Version:     res.Version.String(),
		Variables:   output.GetVariables(res),
		Explanation: output.FormatExplanation(res),
	}, nil
}

// LoadConfig reads configuration from configFile, or discovers it in the
// root of fsys when configFile is empty. The result has defaults applied
// and is validated. It returns ErrDisabled when there is no configuration
// or it is disabled, along with the name of the file it came from.
func LoadConfig(fsys fs.FS, configFile string) (*config.Config, string, error) {
	var (
		cfg    *config.Config
		source string
		err    error
	)
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		source = configFile
	} else {
		cfg, source, err = config.Discover(fsys)
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading configuration: %w", err)
	}
	if !cfg.IsEnabled() {
		return nil, source, ErrDisabled
	}

	built, err := config.NewBuilder().Add(cfg).Build()
	if err != nil {
		return nil, "", err
	}
	return built, source, nil
}

func projectRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving project root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", root)
	}
	return abs, nil
}
