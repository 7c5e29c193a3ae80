// SPDX-License-Identifier: MPL-2.0

// Package watch reports changes under a project root.
//
// A Watcher turns raw fsnotify notifications into Events. Notifications for
// the same path that arrive within the debounce window are coalesced into one
// Event carrying the latest kind, so a single editor save produces a single
// Event. Events are delivered in first-seen order on the goroutine running
// Run, one at a time.
//
// A Thread owns a Watcher and the goroutine running it. Stop is idempotent
// and waits for that goroutine to exit.
package watch
