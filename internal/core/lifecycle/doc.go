// SPDX-License-Identifier: MPL-2.0

// Package lifecycle provides the single-use state machine shared by the
// session's background components: the live-reload watcher thread and the
// notebook server.
//
// A component moves created → starting → running → stopping → stopped, or
// into failed when start-up does not complete. Reads are lock-free, stop is
// idempotent, and background goroutines are tracked so Stop can join them.
package lifecycle
