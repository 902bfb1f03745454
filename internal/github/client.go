package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// Environment variables consulted when the matching ClientConfig field is
// empty.
const (
	EnvToken      = "GITHUB_TOKEN"
	EnvAPIURL     = "GITHUB_API_URL"
	EnvAppID      = "GH_APP_ID"
	EnvAppKey     = "GH_APP_PRIVATE_KEY"
	EnvAppKeyPath = "GH_APP_PRIVATE_KEY_PATH"
)

// ErrNoAuth is returned by NewClient when neither a token nor complete
// GitHub App credentials are available.
var ErrNoAuth = errors.New("no GitHub authentication provided: set GITHUB_TOKEN, use --token, or provide --github-app-id with --github-app-key or --github-app-key-path")

// ClientConfig holds the configuration for creating a GitHub API client.
type ClientConfig struct {
	// Token is a personal access token. Falls back to GITHUB_TOKEN.
	Token string

	// AppID is the GitHub App ID. Falls back to GH_APP_ID.
	AppID int64

	// AppKey is the PEM encoded App private key. Falls back to
	// GH_APP_PRIVATE_KEY.
	AppKey string

	// AppKeyPath is a file holding the App private key. Falls back to
	// GH_APP_PRIVATE_KEY_PATH. AppKey wins when both are set.
	AppKeyPath string

	// BaseURL is the GitHub Enterprise API URL. Falls back to GITHUB_API_URL.
	BaseURL string

	// Owner is the account the App installation is looked up for.
	Owner string
}

// NewClient creates an authenticated GitHub API client. Token auth is tried
// first, then GitHub App auth.
func NewClient(ctx context.Context, cfg ClientConfig) (*gh.Client, error) {
	baseURL := ResolveBaseURL(cfg.BaseURL)

	if token := resolveString(cfg.Token, EnvToken); token != "" {
		return newTokenClient(ctx, token, baseURL)
	}

	appID := cfg.AppID
	if appID == 0 {
		if s := os.Getenv(EnvAppID); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", EnvAppID, s, err)
			}
			appID = v
		}
	}
	if appID == 0 {
		return nil, ErrNoAuth
	}

	key, err := appKey(cfg)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, ErrNoAuth
	}
	return newAppClient(ctx, appID, key, cfg.Owner, baseURL)
}

// appKey returns the App private key from the inline value or the key file.
func appKey(cfg ClientConfig) ([]byte, error) {
	if key := resolveString(cfg.AppKey, EnvAppKey); key != "" {
		return []byte(key), nil
	}
	path := resolveString(cfg.AppKeyPath, EnvAppKeyPath)
	if path == "" {
		return nil, nil
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GitHub App key: %w", err)
	}
	return key, nil
}

func newTokenClient(ctx context.Context, token, baseURL string) (*gh.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return withBaseURL(gh.NewClient(oauth2.NewClient(ctx, ts)), baseURL)
}

func newAppClient(ctx context.Context, appID int64, key []byte, owner, baseURL string) (*gh.Client, error) {
	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, key)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub App transport: %w", err)
	}
	if baseURL != "" {
		appTransport.BaseURL = baseURL
	}

	appClient, err := withBaseURL(gh.NewClient(&http.Client{Transport: appTransport}), baseURL)
	if err != nil {
		return nil, err
	}

	installationID, err := findInstallation(ctx, appClient, owner)
	if err != nil {
		return nil, err
	}

	installTransport, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}
	if baseURL != "" {
		installTransport.BaseURL = baseURL
	}
	return withBaseURL(gh.NewClient(&http.Client{Transport: installTransport}), baseURL)
}

func withBaseURL(client *gh.Client, baseURL string) (*gh.Client, error) {
	if baseURL == "" {
		return client, nil
	}
	c, err := client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("setting enterprise URL: %w", err)
	}
	return c, nil
}

// findInstallation finds the GitHub App installation for owner.
func findInstallation(ctx context.Context, client *gh.Client, owner string) (int64, error) {
	opts := &gh.ListOptions{PerPage: 100}
	for {
		installations, resp, err := client.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return 0, fmt.Errorf("listing GitHub App installations: %w", err)
		}
		for _, inst := range installations {
			if inst.GetAccount().GetLogin() == owner {
				return inst.GetID(), nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return 0, fmt.Errorf("no GitHub App installation found for owner %q", owner)
}

// IsNotFoundError reports whether err is an HTTP 404 from the GitHub API.
func IsNotFoundError(err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func resolveString(flag, envKey string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envKey)
}

// ResolveBaseURL returns flagValue, or GITHUB_API_URL when it is empty. An
// empty result means github.com.
func ResolveBaseURL(flagValue string) string {
	return resolveString(flagValue, EnvAPIURL)
}

// ParseSlug splits "owner/repo" into its parts.
func ParseSlug(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSuffix(slug, ".git"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", slug)
	}
	return owner, repo, nil
}
