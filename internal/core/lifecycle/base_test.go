// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("created to stopped through running", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		if b.State() != StateCreated {
			t.Errorf("expected StateCreated, got %s", b.State())
		}

		if err := b.TransitionToStarting(context.Background()); err != nil {
			t.Fatalf("TransitionToStarting failed: %v", err)
		}
		if b.Context() == nil {
			t.Fatal("Context() should be set after TransitionToStarting")
		}

		b.TransitionToRunning()
		if !b.IsRunning() {
			t.Errorf("expected running, got %s", b.State())
		}

		if !b.TransitionToStopping() {
			t.Error("TransitionToStopping should return true")
		}
		if b.Context().Err() == nil {
			t.Error("lifecycle context should be cancelled when stopping")
		}

		b.TransitionToStopped()
		if b.State() != StateStopped {
			t.Errorf("expected StateStopped, got %s", b.State())
		}
	})

	t.Run("starting to failed", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		if err := b.TransitionToStarting(context.Background()); err != nil {
			t.Fatalf("TransitionToStarting failed: %v", err)
		}

		testErr := errors.New("listen failed")
		b.TransitionToFailed(testErr)

		if b.State() != StateFailed {
			t.Errorf("expected StateFailed, got %s", b.State())
		}
		if !errors.Is(b.LastError(), testErr) {
			t.Errorf("LastError() = %v, want %v", b.LastError(), testErr)
		}
		select {
		case err := <-b.Err():
			if !errors.Is(err, testErr) {
				t.Errorf("Err() delivered %v, want %v", err, testErr)
			}
		default:
			t.Error("expected error in channel")
		}
	})

	t.Run("cancelled context fails start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		b := NewBase()
		if err := b.TransitionToStarting(ctx); err == nil {
			t.Fatal("expected error for cancelled context")
		}
		if b.State() != StateFailed {
			t.Errorf("expected StateFailed, got %s", b.State())
		}
	})
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	t.Run("never started is a no-op", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		released := false
		if b.Shutdown(func() { released = true }) {
			t.Error("Shutdown on a never-started component should return false")
		}
		if released {
			t.Error("release must not run when nothing was started")
		}
		if b.State() != StateStopped {
			t.Errorf("expected StateStopped, got %s", b.State())
		}
		if err := b.TransitionToStarting(context.Background()); err == nil {
			t.Error("a stopped component must not start again")
		}
	})

	t.Run("joins goroutines and is idempotent", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		if err := b.TransitionToStarting(context.Background()); err != nil {
			t.Fatalf("TransitionToStarting failed: %v", err)
		}

		var exited atomic.Bool
		b.Go(func() {
			<-b.Context().Done()
			time.Sleep(20 * time.Millisecond)
			exited.Store(true)
		})
		b.TransitionToRunning()

		var releases atomic.Int32
		if !b.Shutdown(func() { releases.Add(1) }) {
			t.Fatal("first Shutdown should return true")
		}
		if !exited.Load() {
			t.Error("Shutdown returned before the goroutine exited")
		}
		if b.Shutdown(func() { releases.Add(1) }) {
			t.Error("second Shutdown should return false")
		}
		if releases.Load() != 1 {
			t.Errorf("release ran %d times, want 1", releases.Load())
		}
	})

	t.Run("concurrent shutdown", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		if err := b.TransitionToStarting(context.Background()); err != nil {
			t.Fatalf("TransitionToStarting failed: %v", err)
		}
		b.Go(func() { <-b.Context().Done() })
		b.TransitionToRunning()

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 10 {
			wg.Go(func() {
				if b.Shutdown(nil) {
					wins.Add(1)
				}
			})
		}
		wg.Wait()

		if wins.Load() != 1 {
			t.Errorf("Shutdown won %d times, want 1", wins.Load())
		}
		if b.State() != StateStopped {
			t.Errorf("expected StateStopped, got %s", b.State())
		}
	})
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateCreated:  "created",
		StateStarting: "starting",
		StateRunning:  "running",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		StateFailed:   "failed",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int32(s), got, want)
		}
	}
}
