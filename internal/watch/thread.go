// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/shellplus/shellplus/internal/core/lifecycle"
)

// Thread runs a Watcher on a background goroutine.
//
// State machine: Created → Starting → Running → Stopping → Stopped, with
// Failed reachable from Starting (invalid root) and Running (fatal fsnotify
// error). A Thread is single-use.
type Thread struct {
	*lifecycle.Base

	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	watcher *Watcher
}

// NewThread creates a Thread for cfg. Nothing touches the filesystem until
// Start.
func NewThread(cfg Config) *Thread {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Thread{
		Base:   lifecycle.NewBase(),
		cfg:    cfg,
		logger: logger,
	}
}

// Start validates the configuration, registers the watch and spawns the
// watcher goroutine. Validation happens before Start returns, so a missing
// root is reported to the caller instead of killing the goroutine later.
// The goroutine is not bound to ctx; call Stop to end it.
func (t *Thread) Start(ctx context.Context) error {
	if err := t.TransitionToStarting(ctx); err != nil {
		return err
	}

	w, err := New(t.cfg)
	if err != nil {
		t.TransitionToFailed(err)
		return err
	}
	t.mu.Lock()
	t.watcher = w
	t.mu.Unlock()

	runCtx := t.Context()
	t.Go(func() {
		if err := w.Run(runCtx); err != nil {
			t.logger.Error("watcher stopped", "root", w.BaseDir(), "err", err)
			t.TransitionToFailed(err)
		}
	})

	t.TransitionToRunning()
	t.logger.Debug("watching", "root", w.BaseDir(), "recursive", t.cfg.Recursive)
	return nil
}

// Stop cancels the watcher, closes the fsnotify source and waits for the
// goroutine to exit. It is a no-op on a Thread that never started and safe
// to call any number of times, from any goroutine.
func (t *Thread) Stop() {
	if t.Shutdown(t.closeWatcher) {
		t.logger.Debug("watcher stopped")
	}
}

func (t *Thread) closeWatcher() {
	t.mu.Lock()
	w := t.watcher
	t.mu.Unlock()
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		t.logger.Warn("close watcher", "err", err)
	}
}
