// SPDX-License-Identifier: MPL-2.0

// Package exithook runs cleanup registered by long-lived components when the
// process exits through a path that skips deferred calls, such as os.Exit
// after a fatal error.
package exithook

import "sync"

type entry struct {
	id int
	fn func()
}

var (
	mu     sync.Mutex
	nextID int
	hooks  []entry
)

// Register adds fn to the hooks run by Run. The returned function removes
// it again; call it once the component has been released normally.
func Register(fn func()) (unregister func()) {
	mu.Lock()
	defer mu.Unlock()

	nextID++
	id := nextID
	hooks = append(hooks, entry{id: id, fn: fn})

	return func() {
		mu.Lock()
		defer mu.Unlock()
		for i, h := range hooks {
			if h.id == id {
				hooks = append(hooks[:i], hooks[i+1:]...)
				return
			}
		}
	}
}

// Run calls every registered hook once, most recent first, and clears the
// list. A panicking hook does not prevent the others from running.
func Run() {
	mu.Lock()
	pending := hooks
	hooks = nil
	mu.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		runOne(pending[i].fn)
	}
}

func runOne(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
