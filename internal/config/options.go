package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/joho/godotenv"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/callable"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/git"
)

// Options is the fully resolved configuration the resolver consumes. Every
// field has a value; reference options are unset when not configured.
type Options struct {
	Template        string
	DevTemplate     string
	DirtyTemplate   string
	StartingVersion string

	VersionCallback             callable.VersionRef
	VersionFile                 string
	CountCommitsFromVersionFile bool

	TagFormatter    callable.Ref
	BranchFormatter callable.Ref
	TagFilter       callable.Ref

	SortBy git.SortKey

	// Env supplements the process environment for {env:...} placeholders.
	Env map[string]string
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	return Options{
		Template:        DefaultTemplate,
		DevTemplate:     DefaultDevTemplate,
		DirtyTemplate:   DefaultDirtyTemplate,
		StartingVersion: DefaultStartingVersion,
		SortBy:          git.DefaultSortKey,
	}
}

// Validate reports configuration errors that make resolution impossible.
func (o Options) Validate() error {
	if o.VersionCallback.IsSet() && o.VersionFile != "" {
		return errMutuallyExclusive()
	}
	if _, err := git.ParseSortKey(string(o.SortBy)); err != nil {
		return fmt.Errorf("%w: sort_by: %v", ErrConfig, err)
	}
	return nil
}

// Options converts a built configuration into resolver Options. The
// env_file, if any, is read from fsys.
func (c *Config) Options(fsys fs.FS) (Options, error) {
	opts := DefaultOptions()

	if c.Template != nil {
		opts.Template = *c.Template
	}
	if c.DevTemplate != nil {
		opts.DevTemplate = *c.DevTemplate
	}
	if c.DirtyTemplate != nil {
		opts.DirtyTemplate = *c.DirtyTemplate
	}
	if c.StartingVersion != nil {
		opts.StartingVersion = *c.StartingVersion
	}
	opts.VersionCallback = callable.VersionRef{Spec: stringValue(c.VersionCallback)}
	opts.VersionFile = stringValue(c.VersionFile)
	if c.CountCommitsFromVersionFile != nil {
		opts.CountCommitsFromVersionFile = *c.CountCommitsFromVersionFile
	}
	opts.TagFormatter = callable.Ref{Spec: stringValue(c.TagFormatter)}
	opts.BranchFormatter = callable.Ref{Spec: stringValue(c.BranchFormatter)}
	opts.TagFilter = callable.Ref{Spec: stringValue(c.TagFilter)}
	if c.SortBy != nil {
		opts.SortBy = *c.SortBy
	}

	if envFile := stringValue(c.EnvFile); envFile != "" {
		env, err := ReadEnvFile(fsys, envFile)
		if err != nil {
			return Options{}, err
		}
		opts.Env = env
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// ReadEnvFile parses a dotenv file. The process environment is not
// modified. A missing file yields an empty map.
func ReadEnvFile(fsys fs.FS, name string) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, path.Clean(name))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading env_file %s: %w", name, err)
	}

	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing env_file %s: %v", ErrConfig, name, err)
	}
	return env, nil
}
