package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_ZeroValue(t *testing.T) {
	var cfg Config
	require.Nil(t, cfg.Enabled)
	require.Nil(t, cfg.Template)
	require.Nil(t, cfg.VersionCallback)
	require.Nil(t, cfg.SortBy)
	require.False(t, cfg.IsEnabled())
}

func TestConfig_IsEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want bool
	}{
		{"nil", nil, false},
		{"empty", &Config{}, false},
		{"enabled", &Config{Enabled: boolPtr(true)}, true},
		{"disabled", &Config{Enabled: boolPtr(false), Template: stringPtr("{tag}")}, false},
		{"implicitly enabled", &Config{Template: stringPtr("{tag}")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cfg.IsEnabled())
		})
	}
}
