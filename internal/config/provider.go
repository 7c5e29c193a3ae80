// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the user config directory lookup when set.
	ConfigDirPath string
	// WorkDir is where shellplus.cue and .env are looked up. Defaults to
	// the process working directory.
	WorkDir string
	// Getenv overrides the process environment.
	Getenv func(string) string
	// SkipDotEnv disables reading .env.
	SkipDotEnv bool
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
	// Path returns the file the last successful Load read, if any.
	Path() string
}

type fileProvider struct {
	path string
}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	p.path = path
	return cfg, nil
}

func (p *fileProvider) Path() string {
	return p.path
}
