package config

import (
	"fmt"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/git"
)

// Builder constructs a Config by layering overrides on top of defaults.
type Builder struct {
	overrides []*Config
}

// NewBuilder creates a new configuration builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add adds a configuration override. Overrides are applied in order:
// later overrides take precedence over earlier ones.
func (b *Builder) Add(override *Config) *Builder {
	if override != nil {
		b.overrides = append(b.overrides, override)
	}
	return b
}

// Build constructs the final configuration by starting with defaults,
// applying all overrides, and validating.
func (b *Builder) Build() (*Config, error) {
	cfg := CreateDefaultConfiguration()

	for _, override := range b.overrides {
		mergeConfig(cfg, override)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig applies non-nil fields from src to dst.
func mergeConfig(dst, src *Config) {
	if src.Enabled != nil {
		dst.Enabled = src.Enabled
	}
	if src.Template != nil {
		dst.Template = src.Template
	}
	if src.DevTemplate != nil {
		dst.DevTemplate = src.DevTemplate
	}
	if src.DirtyTemplate != nil {
		dst.DirtyTemplate = src.DirtyTemplate
	}
	if src.StartingVersion != nil {
		dst.StartingVersion = src.StartingVersion
	}
	if src.VersionCallback != nil {
		dst.VersionCallback = src.VersionCallback
	}
	if src.VersionFile != nil {
		dst.VersionFile = src.VersionFile
	}
	if src.CountCommitsFromVersionFile != nil {
		dst.CountCommitsFromVersionFile = src.CountCommitsFromVersionFile
	}
	if src.TagFormatter != nil {
		dst.TagFormatter = src.TagFormatter
	}
	if src.BranchFormatter != nil {
		dst.BranchFormatter = src.BranchFormatter
	}
	if src.TagFilter != nil {
		dst.TagFilter = src.TagFilter
	}
	if src.SortBy != nil {
		dst.SortBy = src.SortBy
	}
	if src.EnvFile != nil {
		dst.EnvFile = src.EnvFile
	}
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	if stringValue(cfg.VersionCallback) != "" && stringValue(cfg.VersionFile) != "" {
		return errMutuallyExclusive()
	}

	if cfg.SortBy != nil {
		if _, err := git.ParseSortKey(string(*cfg.SortBy)); err != nil {
			return fmt.Errorf("%w: sort_by: %v", ErrConfig, err)
		}
	}

	return nil
}

func errMutuallyExclusive() error {
	return fmt.Errorf("%w: either version_file or version_callback can be set, but not both at the same time", ErrConfig)
}
