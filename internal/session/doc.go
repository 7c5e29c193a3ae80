// SPDX-License-Identifier: MPL-2.0

// Package session runs one interactive session from start to exit.
//
// The Controller builds the model namespace, starts the live-reload watcher
// when asked to, and hands the namespace to the front-end selector. The
// watcher is stopped on every way out of Run: a normal return, an error, a
// panic unwinding through Run, and a process exit that runs the exit hooks.
package session
