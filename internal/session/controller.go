// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/shellplus/shellplus/internal/config"
	"github.com/shellplus/shellplus/internal/database"
	"github.com/shellplus/shellplus/internal/exithook"
	"github.com/shellplus/shellplus/internal/frontend"
	"github.com/shellplus/shellplus/internal/models"
	"github.com/shellplus/shellplus/internal/reload"
	"github.com/shellplus/shellplus/internal/watch"
)

type (
	// Options are the per-session choices, usually taken from flags. They
	// are merged with Config: a flag can turn a setting on, never off.
	Options struct {
		Config *config.Config
		// Mode selects the front-end. ModeAuto falls back to
		// Config.Shell.Default, then to the default chain.
		Mode       frontend.Mode
		NoStartup  bool
		PrintSQL   bool
		DontLoad   []string
		QuietLoad  bool
		Autoreload bool
		// NotebookAddr overrides Config.Notebook.Address.
		NotebookAddr string
		Env          frontend.Env
	}

	// Controller orchestrates a session.
	Controller struct {
		logger   *log.Logger
		selector *frontend.Selector
		// started is called with the running watcher, if any. Tests use it
		// to observe the watcher while the front-end runs.
		started func(*watch.Thread)
	}

	// Option configures a Controller.
	Option func(*Controller)
)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSelector replaces the selector over the registered front-ends.
func WithSelector(s *frontend.Selector) Option {
	return func(c *Controller) {
		c.selector = s
	}
}

// NewController creates a Controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	if c.selector == nil {
		c.selector = frontend.NewSelector(frontend.WithLogger(c.logger))
	}
	return c
}

// Run builds the namespace, starts live reload when enabled and blocks in
// the selected front-end until the user leaves it.
func (c *Controller) Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	mode, err := c.resolveMode(cfg, opts.Mode)
	if err != nil {
		return err
	}
	autoreload := opts.Autoreload || cfg.Autoreload.Enabled
	var watchRoot string
	if autoreload {
		if watchRoot, err = cfg.WatchRoot(); err != nil {
			return err
		}
	}

	db, err := c.openDatabase(ctx, cfg, opts)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				c.logger.Warn("closing database", "err", err)
			}
		}()
	}

	root, err := cfg.ModelsRoot()
	if err != nil {
		return fmt.Errorf("resolve models root: %w", err)
	}
	built, err := models.NewBuilder(c.logger).Build(ctx, models.Options{
		Root:     root,
		Patterns: cfg.Models.Patterns,
		Ignore:   cfg.Models.Ignore,
		DontLoad: slices.Concat(cfg.Models.DontLoad, opts.DontLoad),
		Quiet:    opts.QuietLoad || cfg.Shell.QuietLoad,
		DB:       db,
		Output:   opts.Env.Stdout,
	})
	if err != nil {
		return err
	}
	if n := len(built.Failures); n > 0 {
		c.logger.Warn("session started without some model modules", "failed", n, "loaded", built.Scope.Len())
	}

	if autoreload {
		thread := c.newWatcher(watchRoot, cfg, built)
		unregister := exithook.Register(thread.Stop)
		defer unregister()
		defer thread.Stop()

		if err := thread.Start(ctx); err != nil {
			return err
		}
		if c.started != nil {
			c.started(thread)
		}
	}

	notebookAddr := opts.NotebookAddr
	if notebookAddr == "" {
		notebookAddr = cfg.Notebook.Address
	}
	sess := &frontend.Session{
		Namespace:     built.Namespace,
		Scope:         built.Scope,
		Env:           opts.Env,
		NoStartup:     opts.NoStartup,
		StartupScript: cfg.Shell.StartupScript,
		RCFile:        frontend.DefaultRCFile(),
		HistoryFile:   cfg.Shell.HistoryFile,
		NotebookAddr:  notebookAddr,
		Logger:        c.logger,
	}
	return c.selector.Run(ctx, sess, mode)
}

func (c *Controller) resolveMode(cfg *config.Config, mode frontend.Mode) (frontend.Mode, error) {
	if mode != frontend.ModeAuto {
		return mode, nil
	}
	m, err := frontend.ParseMode(cfg.Shell.Default)
	if err != nil {
		return frontend.ModeAuto, fmt.Errorf("shell.default: %w", err)
	}
	return m, nil
}

func (c *Controller) openDatabase(ctx context.Context, cfg *config.Config, opts Options) (*database.DB, error) {
	if cfg.Database.Driver == "" {
		return nil, nil
	}
	db, err := database.Open(ctx, database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Alias:  cfg.Database.Alias,
	})
	if err != nil {
		return nil, err
	}
	if opts.PrintSQL || cfg.Database.PrintSQL {
		db.Intercept(database.PrintQueries(opts.Env.Stdout))
	}
	return db, nil
}

// newWatcher wires a watcher thread to a reload handler over the built
// namespace. A root that does not exist is reported by Start.
func (c *Controller) newWatcher(root string, cfg *config.Config, built *models.Result) *watch.Thread {
	handler := reload.New(reload.Config{
		Root:       root,
		Extensions: cfg.Autoreload.Extensions,
		Namespace:  built.Namespace,
		Scope:      built.Scope,
		Loader:     built.Loader,
		Logger:     c.logger,
	})
	return watch.NewThread(watch.Config{
		BaseDir:    root,
		Recursive:  true,
		Extensions: cfg.Autoreload.Extensions,
		Ignore:     cfg.Models.Ignore,
		Debounce:   cfg.Autoreload.Debounce,
		OnEvent:    handler.OnEvent,
		Logger:     c.logger.WithPrefix("watch"),
	})
}
