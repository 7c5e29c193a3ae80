// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"github.com/fsnotify/fsnotify"
)

const (
	// Created reports a new path.
	Created Kind = iota + 1
	// Modified reports a write to an existing path.
	Modified
	// Deleted reports a removed path.
	Deleted
	// Moved reports a path that was renamed away.
	Moved
)

type (
	// Kind classifies a change.
	Kind int

	// Event is one coalesced change.
	Event struct {
		Kind Kind
		// Path is absolute.
		Path string
	}
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// kindOf maps an fsnotify operation to a Kind. Chmod-only notifications
// report no change.
func kindOf(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return Deleted, true
	case op.Has(fsnotify.Rename):
		return Moved, true
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Write):
		return Modified, true
	default:
		return 0, false
	}
}

// coalescer merges events per path, keeping first-seen order and the
// latest kind. It is owned by the Run goroutine.
type coalescer struct {
	index  map[string]int
	events []Event
}

func newCoalescer() *coalescer {
	return &coalescer{index: make(map[string]int)}
}

func (c *coalescer) add(ev Event) {
	if i, ok := c.index[ev.Path]; ok {
		c.events[i].Kind = ev.Kind
		return
	}
	c.index[ev.Path] = len(c.events)
	c.events = append(c.events, ev)
}

func (c *coalescer) drain() []Event {
	out := c.events
	c.events = nil
	clear(c.index)
	return out
}

func (c *coalescer) len() int {
	return len(c.events)
}
