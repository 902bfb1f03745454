package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// PyprojectFile is the TOML file searched for a [tool.gitversioning] table.
const PyprojectFile = "pyproject.toml"

// PyprojectSection is the table name under [tool] holding the configuration.
const PyprojectSection = "gitversioning"

// YAMLFiles are the YAML configuration file names, in lookup order.
var YAMLFiles = []string{".gitversioning.yml", "gitversioning.yml", "gitversioning.yaml"}

// LoadFromFile reads and parses a configuration file. Files named *.toml
// are read as pyproject.toml; anything else is YAML.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err := LoadFromPyproject(data)
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			return nil, fmt.Errorf("%w: %s has no [tool.%s] table", ErrConfig, path, PyprojectSection)
		}
		return cfg, nil
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML configuration. Unknown keys are rejected.
// An empty document yields an empty Config.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing config: %v", ErrConfig, err)
	}
	return &cfg, nil
}

// LoadFromPyproject extracts [tool.gitversioning] from pyproject.toml
// content. It returns nil and no error when the table is absent.
func LoadFromPyproject(data []byte) (*Config, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, PyprojectFile, err)
	}

	tool, ok := doc["tool"].(map[string]any)
	if !ok {
		return nil, nil
	}
	section, present := tool[PyprojectSection]
	if !present {
		return nil, nil
	}
	table, ok := section.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: wrong format of [tool.%s]: expected a table, got %T",
			ErrConfig, PyprojectSection, section)
	}

	raw, err := toml.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("%w: re-encoding [tool.%s]: %v", ErrConfig, PyprojectSection, err)
	}

	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing [tool.%s]: %v", ErrConfig, PyprojectSection, err)
	}
	return &cfg, nil
}

// Discover looks for configuration in the root of fsys and returns it
// along with the name of the file it came from. It returns a nil Config
// when there is none. Configuration in both a YAML file and pyproject.toml
// is an error.
func Discover(fsys fs.FS) (*Config, string, error) {
	var (
		yamlCfg  *Config
		yamlName string
	)
	for _, name := range YAMLFiles {
		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", name, err)
		}
		yamlCfg, err = LoadFromBytes(data)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", name, err)
		}
		yamlName = name
		break
	}

	var tomlCfg *Config
	data, err := fs.ReadFile(fsys, PyprojectFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, "", fmt.Errorf("reading %s: %w", PyprojectFile, err)
	default:
		tomlCfg, err = LoadFromPyproject(data)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", PyprojectFile, err)
		}
	}

	switch {
	case yamlCfg != nil && tomlCfg != nil:
		return nil, "", fmt.Errorf("%w: both %s and %s have a gitversioning config section, please remove one of them",
			ErrConfig, yamlName, PyprojectFile)
	case yamlCfg != nil:
		return yamlCfg, yamlName, nil
	case tomlCfg != nil:
		return tomlCfg, PyprojectFile, nil
	default:
		return nil, "", nil
	}
}
