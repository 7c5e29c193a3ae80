// SPDX-License-Identifier: MPL-2.0

// Package notebook serves a session over HTTP.
//
// The server listens on a local address and evaluates cells against the
// session namespace, so everything the live-reload watcher rebinds is
// visible to the next cell. Every endpoint except /health requires the
// server token, given either as "Authorization: Bearer <token>" or as the
// token query parameter (which is how the page at / receives it).
package notebook
