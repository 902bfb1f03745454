package config

import "github.com/MyCarrier-DevOps/go-gitversioning/internal/git"

const (
	DefaultTemplate        = "{tag}"
	DefaultDevTemplate     = "{tag}.post{ccount}+git.{sha}"
	DefaultDirtyTemplate   = "{tag}.post{ccount}+git.{sha}.dirty"
	DefaultStartingVersion = "0.0.1"
)

// CreateDefaultConfiguration returns a Config with all default values
// populated. Reference options (callbacks, formatters, filters) and the
// version file have no default.
func CreateDefaultConfiguration() *Config {
	return &Config{
		Enabled:                     boolPtr(true),
		Template:                    stringPtr(DefaultTemplate),
		DevTemplate:                 stringPtr(DefaultDevTemplate),
		DirtyTemplate:               stringPtr(DefaultDirtyTemplate),
		StartingVersion:             stringPtr(DefaultStartingVersion),
		CountCommitsFromVersionFile: boolPtr(false),
		SortBy:                      sortKeyPtr(git.DefaultSortKey),
	}
}
