// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/shellplus/shellplus/internal/issue"
)

// DefaultDebounce is the coalescing window used when Config.Debounce is unset.
const DefaultDebounce = 100 * time.Millisecond

// defaultIgnores lists path patterns that are always excluded, regardless of
// user-supplied ignore patterns.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/4913", // vim write test file
}

// ErrRunTwice is returned by a second call to Run.
var ErrRunTwice = errors.New("watch: Run called more than once")

// Watcher monitors a directory tree and delivers coalesced events. Run must
// be called exactly once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	ignores  []string
	logger   *log.Logger
	debounce time.Duration
	baseDir  string
	started  atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// New validates cfg, checks that BaseDir is an existing directory and
// registers it (and, when Recursive, every non-ignored subdirectory) with
// fsnotify. A missing or non-directory BaseDir is a configuration error.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absBase, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}
	info, err := os.Stat(absBase)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", absBase)
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("watch project root").
			WithResource(absBase).
			WithSuggestion("Point the project root at an existing directory").
			WithIssue(issue.WatchRootInvalidId).
			Configuration().
			Wrap(err).
			BuildError()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(DefaultIgnores(), cfg.Ignore...),
		logger:   logger,
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			logger.Warn("close after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// BaseDir returns the absolute watched root.
func (w *Watcher) BaseDir() string {
	return w.baseDir
}

// Close releases the fsnotify source. Run closes it on return; calling
// Close while Run is active makes Run return. Safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

// Run blocks until ctx is cancelled, the watcher is closed or a fatal
// fsnotify error occurs. Pending events are dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrRunTwice
	}
	defer func() {
		if err := w.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	var (
		pending = newCoalescer()
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				// Close was called.
				return nil
			}

			ev, relevant := w.translate(evt)
			if !relevant {
				continue
			}
			if ev.Kind == Created && w.cfg.Recursive {
				w.maybeAddDir(ev.Path)
			}

			pending.add(ev)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			for _, ev := range pending.drain() {
				if ctx.Err() != nil {
					return nil
				}
				w.dispatch(ctx, ev)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			// isFatalFsnotifyError is platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// translate filters a raw notification and converts it to an Event.
func (w *Watcher) translate(evt fsnotify.Event) (Event, bool) {
	kind, ok := kindOf(evt.Op)
	if !ok {
		return Event{}, false
	}

	path := evt.Name
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.baseDir, path)
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return Event{}, false
	}
	if w.isIgnored(rel) || !w.matchesPatterns(rel) {
		return Event{}, false
	}
	if len(w.cfg.Extensions) > 0 && !slices.Contains(w.cfg.Extensions, filepath.Ext(path)) {
		// New directories still need registering.
		if kind == Created && w.cfg.Recursive {
			w.maybeAddDir(path)
		}
		return Event{}, false
	}
	return Event{Kind: kind, Path: path}, true
}

// dispatch invokes OnEvent, logging errors and recovering panics so one bad
// event never stops the watcher.
func (w *Watcher) dispatch(ctx context.Context, ev Event) {
	if w.cfg.OnEvent == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("event callback panicked", "path", ev.Path, "kind", ev.Kind, "panic", r)
		}
	}()
	if err := w.cfg.OnEvent(ctx, ev); err != nil {
		w.logger.Warn("event callback error", "path", ev.Path, "kind", ev.Kind, "err", err)
	}
}

// addDirectories registers BaseDir and, when Recursive, every non-ignored
// directory below it. Pattern filtering is applied when events arrive.
func (w *Watcher) addDirectories() error {
	if !w.cfg.Recursive {
		if err := w.fsw.Add(w.baseDir); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", w.baseDir, err)
		}
		return nil
	}

	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir registers a directory created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if addErr := w.fsw.Add(path); addErr != nil {
		w.logger.Warn("add new directory", "path", path, "err", addErr)
	}
}

// isIgnored returns true if rel (relative to BaseDir) matches an ignore pattern.
func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// matchesPatterns returns true if rel matches a configured pattern, or when
// none are configured.
func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.cfg.Patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
