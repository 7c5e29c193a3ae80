// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the shellplus command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shellplus/shellplus/internal/config"
	"github.com/shellplus/shellplus/internal/exithook"
	"github.com/shellplus/shellplus/internal/frontend"
	"github.com/shellplus/shellplus/internal/issue"
	"github.com/shellplus/shellplus/internal/session"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// rootFlags holds the global flags.
	rootFlags struct {
		verbose bool
		cfgFile string
	}

	// shellFlags holds the flags of the session command.
	shellFlags struct {
		plain        bool
		ishell       bool
		tui          bool
		notebook     bool
		noStartup    bool
		printSQL     bool
		dontLoad     []string
		quietLoad    bool
		autoreload   bool
		notebookAddr string
	}
)

// newRootCommand builds the command tree. The root command itself starts a
// session.
func newRootCommand() *cobra.Command {
	rf := &rootFlags{}
	sf := &shellFlags{}

	rootCmd := &cobra.Command{
		Use:   "shellplus",
		Short: "An interactive JavaScript shell with your models preloaded",
		Long: TitleStyle.Render("shellplus") + SubtitleStyle.Render(" - An interactive JavaScript shell with your models preloaded") + `

shellplus loads every model module of a project into one namespace and
drops you into a REPL over it. With --autoreload, edits to model files
are picked up while the session runs.

` + SubtitleStyle.Render("Front-ends:") + `
  --plain      line editor with history and completion
  --ishell     shell with dot commands (.names, .help, .exit)
  --tui        full-screen terminal UI with fuzzy completion
  --notebook   browser notebook over HTTP

Without a front-end flag the first available of ishell, tui and plain
is used.

` + SubtitleStyle.Render("Examples:") + `
  shellplus                      Start the best available shell
  shellplus --plain --autoreload Plain shell with live reload
  shellplus --notebook           Serve a notebook on 127.0.0.1:8888
  shellplus config show          Show current configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, rf, sf)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&rf.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&rf.cfgFile, "config", "", "config file (default is $HOME/.config/shellplus/config.cue)")

	f := rootCmd.Flags()
	f.BoolVar(&sf.plain, "plain", false, "use the plain line-editor shell")
	f.BoolVar(&sf.ishell, "ishell", false, "use the ishell front-end")
	f.BoolVar(&sf.tui, "tui", false, "use the full-screen terminal UI")
	f.BoolVar(&sf.notebook, "notebook", false, "serve a browser notebook")
	f.BoolVar(&sf.noStartup, "no-startup-script", false, "skip the startup script and ~/"+frontend.RCFileName)
	f.BoolVar(&sf.printSQL, "print-sql", false, "print SQL statements as they run")
	f.StringArrayVar(&sf.dontLoad, "dont-load", nil, "module or module.Export to skip (repeatable)")
	f.BoolVar(&sf.quietLoad, "quiet-load", false, "do not print the autoload report")
	f.BoolVar(&sf.autoreload, "autoreload", false, "reload model modules when their files change")
	f.StringVar(&sf.notebookAddr, "notebook-addr", "", "listen address of the notebook server")
	rootCmd.MarkFlagsMutuallyExclusive("plain", "ishell", "tui", "notebook")

	rootCmd.AddCommand(newConfigCommand(rf))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// mode maps the front-end flags to a mode. Cobra rejects more than one.
func (sf *shellFlags) mode() frontend.Mode {
	switch {
	case sf.plain:
		return frontend.ModePlain
	case sf.ishell:
		return frontend.ModeIShell
	case sf.tui:
		return frontend.ModeTUI
	case sf.notebook:
		return frontend.ModeNotebook
	default:
		return frontend.ModeAuto
	}
}

func runShell(cmd *cobra.Command, rf *rootFlags, sf *shellFlags) error {
	logger := newLogger(cmd.ErrOrStderr(), rf.verbose)

	cfg, err := config.NewProvider().Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rf.cfgFile})
	if err != nil {
		return fail(cmd, err, rf.verbose)
	}

	ctrl := session.NewController(session.WithLogger(logger))
	err = ctrl.Run(cmd.Context(), session.Options{
		Config:       cfg,
		Mode:         sf.mode(),
		NoStartup:    sf.noStartup,
		PrintSQL:     sf.printSQL,
		DontLoad:     sf.dontLoad,
		QuietLoad:    sf.quietLoad,
		Autoreload:   sf.autoreload,
		NotebookAddr: sf.notebookAddr,
		Env:          frontend.DetectEnv(),
	})
	if err != nil {
		return fail(cmd, err, rf.verbose)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "shellplus"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// fail prints err and converts it to an ExitError. Configuration errors exit
// with ExitConfiguration.
func fail(cmd *cobra.Command, err error, verbose bool) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// The selector already reported every front-end it tried.
	if errors.Is(err, frontend.ErrNoFrontend) {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if verbose && errors.As(err, &ae) && ae.Issue != 0 {
		if guide := issue.Get(ae.Issue); guide != nil {
			if rendered, rerr := guide.Render("dark"); rerr == nil {
				fmt.Fprint(stderr, rendered)
			}
		}
	}

	code := ExitFailure
	if issue.IsConfiguration(err) {
		code = ExitConfiguration
	}
	return &ExitError{Code: code, Err: err}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method with verbose mode.
// Otherwise, it returns the standard error message.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the command line and exits the process with its status.
// Registered exit hooks run before the process exits.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	defer exithook.Run()

	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
