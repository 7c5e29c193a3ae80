// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shellplus/shellplus/internal/issue"
	"github.com/shellplus/shellplus/internal/testutil"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Autoreload.Debounce != 100*time.Millisecond {
		t.Errorf("Debounce = %v, want 100ms", cfg.Autoreload.Debounce)
	}
	if !slices.Equal(cfg.Autoreload.Extensions, []string{".js"}) {
		t.Errorf("Extensions = %v", cfg.Autoreload.Extensions)
	}
	if cfg.Database.Alias != "default" {
		t.Errorf("Alias = %q", cfg.Database.Alias)
	}
	if cfg.ProjectRoot != "" {
		t.Errorf("ProjectRoot = %q, want empty", cfg.ProjectRoot)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		WorkDir:       dir,
		ConfigDirPath: filepath.Join(dir, "nope"),
		Getenv:        noEnv,
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if cfg.Notebook.Address != "127.0.0.1:8888" {
		t.Errorf("Notebook.Address = %q", cfg.Notebook.Address)
	}
	if !slices.Equal(cfg.Models.Patterns, []string{"**/*.js"}) {
		t.Errorf("Models.Patterns = %v", cfg.Models.Patterns)
	}
}

func TestLoadLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, LocalConfigFileName), `
project_root: "src"
autoreload: {
	enabled: true
	debounce: "250ms"
}
shell: default: "plain"
database: {
	driver: "sqlite"
	dsn: ":memory:"
}
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{WorkDir: dir, Getenv: noEnv})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != filepath.Join(dir, LocalConfigFileName) {
		t.Errorf("path = %q", path)
	}
	if !cfg.Autoreload.Enabled || cfg.Autoreload.Debounce != 250*time.Millisecond {
		t.Errorf("Autoreload = %+v", cfg.Autoreload)
	}
	if cfg.ProjectRoot != filepath.Join(dir, "src") {
		t.Errorf("ProjectRoot = %q, want relative to the config file", cfg.ProjectRoot)
	}
	if cfg.Shell.Default != "plain" || cfg.Database.Driver != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
	// Defaults survive for fields the file omits.
	if cfg.Database.Alias != "default" {
		t.Errorf("Database.Alias = %q", cfg.Database.Alias)
	}
}

func TestLoadSchemaViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"unknown shell", `shell: default: "emacs"`, "shell.default"},
		{"bad debounce", `autoreload: debounce: "soon"`, "autoreload.debounce"},
		{"unknown field", `colour: "red"`, "colour"},
		{"bad syntax", `project_root: `, LocalConfigFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			testutil.WriteFile(t, filepath.Join(dir, LocalConfigFileName), tt.content)

			_, _, err := loadWithOptions(context.Background(), LoadOptions{WorkDir: dir, Getenv: noEnv})
			if err == nil {
				t.Fatal("expected error")
			}
			if !issue.IsConfiguration(err) {
				t.Errorf("error %v is not a configuration error", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"),
		Getenv:         noEnv,
	})
	if !errors.Is(err, issue.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration error", err)
	}
}

func TestLoadUserConfigDir(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	cfgDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(cfgDir, ConfigFileName), `shell: quiet_load: true`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		WorkDir:       work,
		ConfigDirPath: cfgDir,
		Getenv:        noEnv,
	})
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(cfgDir, ConfigFileName) || !cfg.Shell.QuietLoad {
		t.Errorf("path = %q, QuietLoad = %v", path, cfg.Shell.QuietLoad)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		env      map[string]string
		dotenv   string
		wantRoot string
	}{
		{"primary", map[string]string{EnvProjectRoot: "/a", EnvLegacyProjectRoot: "/b"}, "", "/a"},
		{"legacy", map[string]string{EnvLegacyProjectRoot: "/b"}, "", "/b"},
		{"dotenv", nil, EnvProjectRoot + "=/c\n", "/c"},
		{"process wins over dotenv", map[string]string{EnvProjectRoot: "/a"}, EnvProjectRoot + "=/c\n", "/a"},
		{"variable expansion", map[string]string{EnvProjectRoot: "$BASE/proj", "BASE": "/srv"}, "", "/srv/proj"},
		{"none", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.dotenv != "" {
				testutil.WriteFile(t, filepath.Join(dir, DotEnvFileName), tt.dotenv)
			}
			cfg, _, err := loadWithOptions(context.Background(), LoadOptions{
				WorkDir:       dir,
				ConfigDirPath: dir,
				Getenv:        envMap(tt.env),
			})
			if err != nil {
				t.Fatal(err)
			}
			if cfg.ProjectRoot != filepath.FromSlash(tt.wantRoot) {
				t.Errorf("ProjectRoot = %q, want %q", cfg.ProjectRoot, tt.wantRoot)
			}
		})
	}
}

func TestStartupFromEnvironment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{
		WorkDir:       dir,
		ConfigDirPath: dir,
		Getenv:        envMap(map[string]string{EnvStartup: "~/init.js", "HOME": "/home/u"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Shell.StartupScript != filepath.FromSlash("/home/u/init.js") {
		t.Errorf("StartupScript = %q", cfg.Shell.StartupScript)
	}
}

func TestWatchRoot(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	_, err := cfg.WatchRoot()
	if !errors.Is(err, ErrWatchRootUnresolved) {
		t.Errorf("WatchRoot() error = %v, want ErrWatchRootUnresolved", err)
	}
	if !issue.IsConfiguration(err) {
		t.Errorf("WatchRoot() error %v is not a configuration error", err)
	}

	dir := t.TempDir()
	cfg.ProjectRoot = dir
	root, err := cfg.WatchRoot()
	if err != nil || root != dir {
		t.Errorf("WatchRoot() = %q, %v; want %q", root, err, dir)
	}

	file := filepath.Join(dir, "file.js")
	testutil.WriteFile(t, file, "")
	for _, bad := range []string{filepath.Join(dir, "missing"), file} {
		cfg.ProjectRoot = bad
		_, err := cfg.WatchRoot()
		var ae *issue.ActionableError
		if !errors.As(err, &ae) || ae.Issue != issue.WatchRootInvalidId || !issue.IsConfiguration(err) {
			t.Errorf("WatchRoot(%s) error = %v, want a WatchRootInvalidId configuration error", bad, err)
		}
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := DefaultConfig()
	want.Autoreload.Enabled = true
	want.Autoreload.Debounce = 300 * time.Millisecond
	want.Models.DontLoad = []string{"app/models.User"}
	want.Shell.Default = "tui"

	path := filepath.Join(dir, "generated.cue")
	testutil.WriteFile(t, path, GenerateCUE(want))

	got, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: path,
		WorkDir:        dir,
		Getenv:         noEnv,
	})
	if err != nil {
		t.Fatalf("generated CUE does not load: %v", err)
	}
	if !slices.Equal(got.Autoreload.Extensions, want.Autoreload.Extensions) {
		t.Errorf("Extensions = %v, want %v", got.Autoreload.Extensions, want.Autoreload.Extensions)
	}
	if got.Autoreload.Debounce != want.Autoreload.Debounce || !got.Autoreload.Enabled {
		t.Errorf("Autoreload = %+v", got.Autoreload)
	}
	if !slices.Equal(got.Models.DontLoad, want.Models.DontLoad) || got.Shell.Default != "tui" {
		t.Errorf("got %+v", got)
	}
}

func TestProvider(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, LocalConfigFileName), `notebook: address: "127.0.0.1:9999"`)

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{WorkDir: dir, Getenv: noEnv})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Notebook.Address != "127.0.0.1:9999" {
		t.Errorf("Address = %q", cfg.Notebook.Address)
	}
	if p.Path() != filepath.Join(dir, LocalConfigFileName) {
		t.Errorf("Path() = %q", p.Path())
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{Getenv: noEnv}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
