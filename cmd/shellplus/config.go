// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shellplus/shellplus/internal/config"
	"github.com/shellplus/shellplus/internal/issue"
)

// newConfigCommand creates the `shellplus config` command tree.
func newConfigCommand(rf *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shellplus configuration",
		Long: `Manage shellplus configuration.

Configuration is read from, in order:
  - the file given with --config
  - shellplus.cue in the working directory
  - the user config file:
      Linux: ~/.config/shellplus/config.cue
      macOS: ~/Library/Application Support/shellplus/config.cue
      Windows: %APPDATA%\shellplus\config.cue

SHELLPLUS_* variables from the environment and from .env override it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd, rf)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the user configuration file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return fail(cmd, err, rf.verbose)
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default user configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, rf)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewProvider().Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rf.cfgFile})
			if err != nil {
				return fail(cmd, err, rf.verbose)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, rf *rootFlags) error {
	provider := config.NewProvider()
	cfg, err := provider.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rf.cfgFile})
	if err != nil {
		if rendered, rerr := issue.Get(issue.ConfigLoadFailedId).Render("dark"); rerr == nil {
			fmt.Fprint(cmd.ErrOrStderr(), rendered)
		}
		return fail(cmd, err, rf.verbose)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path := provider.Path(); path != "" {
		printValue(w, "Config file", path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	root := cfg.ProjectRoot
	if root == "" {
		root = "(unresolved)"
	}
	printValue(w, "project_root", root)

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("autoreload"))
	printValue(w, "  enabled", fmt.Sprint(cfg.Autoreload.Enabled))
	printValue(w, "  debounce", cfg.Autoreload.Debounce.String())
	printValue(w, "  extensions", strings.Join(cfg.Autoreload.Extensions, ", "))

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("models"))
	printValue(w, "  patterns", strings.Join(cfg.Models.Patterns, ", "))
	printValue(w, "  ignore", strings.Join(cfg.Models.Ignore, ", "))
	printValue(w, "  dont_load", strings.Join(cfg.Models.DontLoad, ", "))

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("shell"))
	def := cfg.Shell.Default
	if def == "" {
		def = "auto"
	}
	printValue(w, "  default", def)
	printValue(w, "  startup_script", cfg.Shell.StartupScript)
	printValue(w, "  history_file", cfg.Shell.HistoryFile)
	printValue(w, "  quiet_load", fmt.Sprint(cfg.Shell.QuietLoad))

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("notebook"))
	printValue(w, "  address", cfg.Notebook.Address)

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("database"))
	if cfg.Database.Driver == "" {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		printValue(w, "  driver", cfg.Database.Driver)
		printValue(w, "  alias", cfg.Database.Alias)
		printValue(w, "  print_sql", fmt.Sprint(cfg.Database.PrintSQL))
	}
	return nil
}

func printValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(key), ValueStyle.Render(value))
}

func initConfig(cmd *cobra.Command, rf *rootFlags) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return fail(cmd, err, rf.verbose)
	}
	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file already exists: %s\n", path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fail(cmd, err, rf.verbose)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(cmd, fmt.Errorf("create config directory: %w", err), rf.verbose)
	}
	if err := os.WriteFile(path, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
		return fail(cmd, fmt.Errorf("write config file: %w", err), rf.verbose)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ValueStyle.Render("Created"), path)
	return nil
}
