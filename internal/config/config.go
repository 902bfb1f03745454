// Package config provides configuration loading (YAML and pyproject.toml),
// defaults, layering and the resolved Options consumed by the resolver.
package config

import (
	"errors"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/git"
)

var (
	// ErrConfig marks configuration errors: wrong shape, unknown keys,
	// mutually exclusive options, or two config sources at once.
	ErrConfig = errors.New("configuration error")

	// ErrDisabled is returned when no configuration was found or it sets
	// enabled to false.
	ErrDisabled = errors.New("versioning is not enabled")
)

// Config is the file-facing configuration. All fields are pointers to
// support merge semantics during configuration building.
type Config struct {
	Enabled                     *bool        `yaml:"enabled" toml:"enabled"`
	Template                    *string      `yaml:"template" toml:"template"`
	DevTemplate                 *string      `yaml:"dev_template" toml:"dev_template"`
	DirtyTemplate               *string      `yaml:"dirty_template" toml:"dirty_template"`
	StartingVersion             *string      `yaml:"starting_version" toml:"starting_version"`
	VersionCallback             *string      `yaml:"version_callback" toml:"version_callback"`
	VersionFile                 *string      `yaml:"version_file" toml:"version_file"`
	CountCommitsFromVersionFile *bool        `yaml:"count_commits_from_version_file" toml:"count_commits_from_version_file"`
	TagFormatter                *string      `yaml:"tag_formatter" toml:"tag_formatter"`
	BranchFormatter             *string      `yaml:"branch_formatter" toml:"branch_formatter"`
	TagFilter                   *string      `yaml:"tag_filter" toml:"tag_filter"`
	SortBy                      *git.SortKey `yaml:"sort_by" toml:"sort_by"`
	EnvFile                     *string      `yaml:"env_file" toml:"env_file"`
}

// IsEnabled reports whether versioning should run for this configuration.
// A nil or empty configuration is disabled, as is one with enabled: false.
func (c *Config) IsEnabled() bool {
	if c == nil || c.isEmpty() {
		return false
	}
	return c.Enabled == nil || *c.Enabled
}

func (c *Config) isEmpty() bool {
	return *c == Config{}
}
