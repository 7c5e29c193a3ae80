// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base carries the state and goroutine bookkeeping of a background
// component. Concrete components embed it.
//
// A Base is single-use: once stopped or failed, create a new instance.
type Base struct {
	state   atomic.Int32
	stateMu sync.Mutex

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	errCh   chan error
	lastErr error
}

// NewBase creates a Base in StateCreated.
func NewBase() *Base {
	b := &Base{errCh: make(chan error, 1)}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state (atomic, lock-free read).
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning returns true if the component is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns a channel for receiving asynchronous fatal errors.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that caused the Failed state, or nil.
func (b *Base) LastError() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.lastErr
}

// Context returns the lifecycle context, cancelled when stopping begins.
// Returns nil before TransitionToStarting.
func (b *Base) Context() context.Context {
	return b.ctx
}

// TransitionToStarting moves Created → Starting and creates the lifecycle
// context. It fails when ctx is already cancelled or when the component was
// started (or stopped) before.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	select {
	case <-ctx.Done():
		b.TransitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return b.LastError()
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start in state %s", State(b.state.Load()))
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// TransitionToRunning moves Starting → Running. A component that failed
// or was stopped during start-up stays where it is.
func (b *Base) TransitionToRunning() {
	b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))
}

// TransitionToFailed records err, marks the component failed and cancels
// the lifecycle context.
func (b *Base) TransitionToFailed(err error) {
	b.stateMu.Lock()
	b.lastErr = err
	b.stateMu.Unlock()

	b.state.Store(int32(StateFailed))

	if b.cancel != nil {
		b.cancel()
	}

	b.SendError(err)
}

// TransitionToStopping moves Starting/Running → Stopping and cancels the
// lifecycle context. It returns false when there is nothing to stop: the
// component never started (it becomes Stopped), is already stopping, or is
// in a terminal state.
func (b *Base) TransitionToStopping() bool {
	for {
		current := State(b.state.Load())
		switch current {
		case StateStopped, StateFailed, StateStopping:
			return false
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if !b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				continue
			}
			if b.cancel != nil {
				b.cancel()
			}
			return true
		default:
			return false
		}
	}
}

// TransitionToStopped marks the component as fully stopped.
// Must be called after all tracked goroutines have exited.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// Shutdown performs the whole stop sequence once: Stopping, release,
// join, Stopped. Concurrent or repeated calls wait for the first shutdown
// to finish and return false; so does a failed component, after its
// goroutines exit. release runs after the context is cancelled
// and before the join; it may be nil.
func (b *Base) Shutdown(release func()) bool {
	if !b.TransitionToStopping() {
		if st := b.State(); st == StateStopping || st == StateFailed {
			b.wg.Wait()
		}
		return false
	}
	if release != nil {
		release()
	}
	b.wg.Wait()
	b.TransitionToStopped()
	return true
}

// Go runs fn on a tracked goroutine.
func (b *Base) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// SendError sends an error to the error channel without blocking.
// If the channel is full, the error is dropped.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}
