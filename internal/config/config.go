// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"mvdan.cc/sh/v3/shell"

	"github.com/shellplus/shellplus/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "shellplus"
	// ConfigFileName is the name of the config file in the user config directory.
	ConfigFileName = "config.cue"
	// LocalConfigFileName is the name of the project-local config file.
	LocalConfigFileName = "shellplus.cue"
	// DotEnvFileName is read from the working directory when present.
	DotEnvFileName = ".env"

	// EnvProjectRoot names the project root and live-reload watch root.
	EnvProjectRoot = "SHELLPLUS_PROJECT_ROOT"
	// EnvLegacyProjectRoot is honored when EnvProjectRoot is unset.
	EnvLegacyProjectRoot = "PROJECT_ROOT"
	// EnvStartup names the startup script run by the plain front-end.
	EnvStartup = "SHELLPLUS_STARTUP"
)

// ErrWatchRootUnresolved is returned when live reload is requested without
// an environment hint or a configured project root.
var ErrWatchRootUnresolved = errors.New("watch root could not be determined")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the shellplus configuration directory using
// platform-specific conventions.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// loadWithOptions performs option-driven config loading. It returns the
// effective configuration and the path of the file it was read from (empty
// when only defaults apply).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("project_root", defaults.ProjectRoot)
	v.SetDefault("autoreload.enabled", defaults.Autoreload.Enabled)
	v.SetDefault("autoreload.debounce", defaults.Autoreload.Debounce)
	v.SetDefault("autoreload.extensions", defaults.Autoreload.Extensions)
	v.SetDefault("models.patterns", defaults.Models.Patterns)
	v.SetDefault("models.ignore", defaults.Models.Ignore)
	v.SetDefault("models.dont_load", defaults.Models.DontLoad)
	v.SetDefault("shell.default", defaults.Shell.Default)
	v.SetDefault("shell.startup_script", defaults.Shell.StartupScript)
	v.SetDefault("shell.history_file", defaults.Shell.HistoryFile)
	v.SetDefault("shell.quiet_load", defaults.Shell.QuietLoad)
	v.SetDefault("notebook.address", defaults.Notebook.Address)
	v.SetDefault("database.driver", defaults.Database.Driver)
	v.SetDefault("database.dsn", defaults.Database.DSN)
	v.SetDefault("database.alias", defaults.Database.Alias)
	v.SetDefault("database.print_sql", defaults.Database.PrintSQL)

	resolvedPath, err := resolveConfigPath(opts, workDir)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'shellplus config show' to see the effective configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Configuration().
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	getenv, err := envLookup(opts, workDir)
	if err != nil {
		return nil, "", err
	}
	applyEnv(&cfg, getenv)
	if err := expandPaths(&cfg, getenv, baseDir(resolvedPath, workDir)); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

// resolveConfigPath picks the config file: the explicit path, then the
// project-local file, then the user config directory.
func resolveConfigPath(opts LoadOptions, workDir string) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithIssue(issue.ConfigLoadFailedId).
				Configuration().
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if local := filepath.Join(workDir, LocalConfigFileName); fileExists(local) {
		return local, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", nil //nolint:nilerr // no user config directory means defaults
		}
		cfgDir = dir
	}
	if global := filepath.Join(cfgDir, ConfigFileName); fileExists(global) {
		return global, nil
	}
	return "", nil
}

// envLookup returns the environment accessor for this load: the process
// environment (or opts.Getenv), falling back to values from .env.
func envLookup(opts LoadOptions, workDir string) (func(string) string, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	path := filepath.Join(workDir, DotEnvFileName)
	if opts.SkipDotEnv || !fileExists(path) {
		return getenv, nil
	}
	dotenv, err := godotenv.Read(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read environment file").
			WithResource(path).
			WithSuggestion("Use KEY=value lines; quote values containing spaces").
			WithIssue(issue.ConfigLoadFailedId).
			Configuration().
			Wrap(err).
			BuildError()
	}

	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if root := getenv(EnvProjectRoot); root != "" {
		cfg.ProjectRoot = root
	} else if root := getenv(EnvLegacyProjectRoot); root != "" {
		cfg.ProjectRoot = root
	}
	if startup := getenv(EnvStartup); startup != "" {
		cfg.Shell.StartupScript = startup
	}
}

// expandPaths expands variables and a leading ~ in path settings and makes
// relative paths absolute against base.
func expandPaths(cfg *Config, getenv func(string) string, base string) error {
	for _, p := range []*string{&cfg.ProjectRoot, &cfg.Shell.StartupScript, &cfg.Shell.HistoryFile} {
		if *p == "" {
			continue
		}
		expanded, err := ExpandPath(*p, getenv)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("expand configuration path").
				WithResource(*p).
				WithSuggestion("Check the variable references in the path").
				WithIssue(issue.ConfigLoadFailedId).
				Configuration().
				Wrap(err).
				BuildError()
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(base, expanded)
		}
		*p = filepath.Clean(expanded)
	}
	return nil
}

// ExpandPath performs shell-style expansion of $VAR, ${VAR} and a leading ~.
func ExpandPath(path string, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := getenv("HOME")
		if home == "" {
			h, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			home = h
		}
		path = home + path[1:]
	}
	return shell.Expand(path, getenv)
}

// WatchRoot returns the absolute live-reload watch root. It fails with a
// configuration error when neither the environment nor the configuration
// names one, or when the named path is not a directory.
func (c *Config) WatchRoot() (string, error) {
	if c.ProjectRoot == "" {
		return "", issue.NewErrorContext().
			WithOperation("resolve live-reload watch root").
			WithSuggestions(
				"Set "+EnvProjectRoot+" to the project directory",
				"Or set project_root in "+LocalConfigFileName,
			).
			WithIssue(issue.WatchRootUnresolvedId).
			Configuration().
			Wrap(ErrWatchRootUnresolved).
			BuildError()
	}
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	info, err := os.Stat(root)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", root)
	}
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("resolve live-reload watch root").
			WithResource(root).
			WithSuggestion("Point " + EnvProjectRoot + " or project_root at an existing directory").
			WithIssue(issue.WatchRootInvalidId).
			Configuration().
			Wrap(err).
			BuildError()
	}
	return root, nil
}

// ModelsRoot returns the directory model modules are discovered in: the
// project root when set, the working directory otherwise.
func (c *Config) ModelsRoot() (string, error) {
	if c.ProjectRoot != "" {
		return filepath.Abs(c.ProjectRoot)
	}
	return os.Getwd()
}

func baseDir(configPath, workDir string) string {
	if configPath == "" {
		return workDir
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return workDir
	}
	return filepath.Dir(abs)
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
