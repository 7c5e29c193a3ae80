// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/shellplus/shellplus/internal/models"
	"github.com/shellplus/shellplus/internal/namespace"
	"github.com/shellplus/shellplus/internal/watch"
)

const (
	// Ignored means the path is not a source file under the root.
	Ignored Outcome = iota
	// Skipped means the path is relevant but nothing was rebound: it was
	// deleted or moved away, or the module was never imported.
	Skipped
	// Reloaded means the module was re-imported and its globals rebound.
	Reloaded
	// Failed means the re-import failed; the namespace is unchanged.
	Failed
)

type (
	// Outcome is the result of handling one event.
	Outcome int

	// Config wires a Handler to a session.
	Config struct {
		// Root is the watched project root.
		Root string
		// Extensions of source files. Defaults to [".js"].
		Extensions []string
		Namespace  *namespace.Namespace
		Scope      *models.Scope
		Loader     *models.Loader
		Logger     *log.Logger
	}

	// Failure records a reload that could not complete.
	Failure struct {
		Module string
		Path   string
		Err    error
	}

	// Handler turns watcher events into namespace rebinds.
	Handler struct {
		cfg    Config
		root   string
		logger *log.Logger

		// mu serialises reloads so two events for one module never
		// interleave their import and rebind.
		mu          sync.Mutex
		lastFailure *Failure
	}
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Skipped:
		return "skipped"
	case Reloaded:
		return "reloaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Error implements error.
func (f *Failure) Error() string {
	return fmt.Sprintf("reload %s: %v", f.Module, f.Err)
}

// Unwrap returns the import error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".js"}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		root = filepath.Clean(cfg.Root)
	}
	return &Handler{
		cfg:    cfg,
		root:   root,
		logger: logger.WithPrefix("reload"),
	}
}

// OnEvent adapts Handle to watch.Config.OnEvent. Failures are already
// logged by Handle, so it never returns an error.
func (h *Handler) OnEvent(ctx context.Context, ev watch.Event) error {
	h.Handle(ctx, ev)
	return nil
}

// LastFailure returns the most recent failed reload, or nil.
func (h *Handler) LastFailure() *Failure {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastFailure
}

// Handle processes one event. It never panics and never returns an error;
// the outcome says what happened.
func (h *Handler) Handle(ctx context.Context, ev watch.Event) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("reload panicked", "path", ev.Path, "panic", r)
			outcome = Failed
		}
	}()

	if !h.relevant(ev.Path) {
		h.logger.Debug("ignoring event", "path", ev.Path, "kind", ev.Kind)
		return Ignored
	}

	if ev.Kind == watch.Deleted || ev.Kind == watch.Moved {
		h.logger.Debug("module removed, keeping its bindings", "path", ev.Path, "kind", ev.Kind)
		return Skipped
	}

	id, err := h.cfg.Loader.ModuleID(ev.Path)
	if err != nil {
		return Ignored
	}
	bindings, ok := h.cfg.Scope.Bindings(id)
	if !ok {
		h.logger.Debug("module was not imported at startup", "module", id)
		return Skipped
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	exports, err := h.cfg.Loader.Import(ctx, ev.Path)
	if err != nil {
		h.lastFailure = &Failure{Module: id, Path: ev.Path, Err: err}
		h.logger.Error("reload failed, keeping previous version", "module", id, "err", err)
		return Failed
	}

	var rebound []string
	err = h.cfg.Namespace.Update(func(tx *namespace.Tx) error {
		for _, b := range bindings {
			v, ok := exports.Get(b.Export)
			if !ok {
				h.logger.Debug("export no longer defined, keeping stale value", "module", id, "name", b.Export)
				continue
			}
			tx.Set(b.Name, v)
			rebound = append(rebound, b.Name)
		}
		return nil
	})
	if err != nil {
		h.lastFailure = &Failure{Module: id, Path: ev.Path, Err: err}
		h.logger.Error("rebind failed", "module", id, "err", err)
		return Failed
	}

	for _, name := range exports.Names() {
		if !slices.ContainsFunc(bindings, func(b models.Binding) bool { return b.Export == name }) {
			h.logger.Debug("new export is not bound until restart", "module", id, "name", name)
		}
	}
	h.logger.Info("reloaded", "module", id, "names", strings.Join(rebound, ", "))
	return Reloaded
}

// relevant reports whether path is a source file inside the root.
func (h *Handler) relevant(path string) bool {
	if !slices.Contains(h.cfg.Extensions, filepath.Ext(path)) {
		return false
	}
	if !filepath.IsAbs(path) {
		return false
	}
	rel, err := filepath.Rel(h.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
