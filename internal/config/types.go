// SPDX-License-Identifier: MPL-2.0

package config

import "time"

type (
	// Config is the effective shellplus configuration.
	Config struct {
		// ProjectRoot is the directory holding the model modules. It is
		// also the live-reload watch root; empty means unresolved.
		ProjectRoot string           `json:"project_root" mapstructure:"project_root"`
		Autoreload  AutoreloadConfig `json:"autoreload" mapstructure:"autoreload"`
		Models      ModelsConfig     `json:"models" mapstructure:"models"`
		Shell       ShellConfig      `json:"shell" mapstructure:"shell"`
		Notebook    NotebookConfig   `json:"notebook" mapstructure:"notebook"`
		Database    DatabaseConfig   `json:"database" mapstructure:"database"`
	}

	// AutoreloadConfig controls live reload of model modules.
	AutoreloadConfig struct {
		// Enabled turns live reload on without the --autoreload flag.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Debounce is the window in which events for one path are coalesced.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		// Extensions are the source-file extensions that trigger a reload.
		Extensions []string `json:"extensions" mapstructure:"extensions"`
	}

	// ModelsConfig controls model discovery.
	ModelsConfig struct {
		Patterns []string `json:"patterns" mapstructure:"patterns"`
		Ignore   []string `json:"ignore" mapstructure:"ignore"`
		// DontLoad lists modules ("app/models") or single exports
		// ("app/models.User") that are never bound.
		DontLoad []string `json:"dont_load" mapstructure:"dont_load"`
	}

	// ShellConfig controls the interactive front-ends.
	ShellConfig struct {
		// Default names the front-end to launch when no mode flag is given.
		// An empty value means the default fallback chain.
		Default       string `json:"default" mapstructure:"default"`
		StartupScript string `json:"startup_script" mapstructure:"startup_script"`
		HistoryFile   string `json:"history_file" mapstructure:"history_file"`
		QuietLoad     bool   `json:"quiet_load" mapstructure:"quiet_load"`
	}

	// NotebookConfig controls the notebook server.
	NotebookConfig struct {
		Address string `json:"address" mapstructure:"address"`
	}

	// DatabaseConfig configures the optional data layer.
	DatabaseConfig struct {
		// Driver is empty when no data layer is configured.
		Driver   string `json:"driver" mapstructure:"driver"`
		DSN      string `json:"dsn" mapstructure:"dsn"`
		Alias    string `json:"alias" mapstructure:"alias"`
		PrintSQL bool   `json:"print_sql" mapstructure:"print_sql"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Autoreload: AutoreloadConfig{
			Debounce:   100 * time.Millisecond,
			Extensions: []string{".js"},
		},
		Models: ModelsConfig{
			Patterns: []string{"**/*.js"},
			Ignore:   []string{},
			DontLoad: []string{},
		},
		Notebook: NotebookConfig{
			Address: "127.0.0.1:8888",
		},
		Database: DatabaseConfig{
			Alias: "default",
		},
	}
}
