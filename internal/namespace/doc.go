// SPDX-License-Identifier: MPL-2.0

// Package namespace holds the live set of names an interactive session
// evaluates against.
//
// A Namespace owns one goja runtime. The REPL front-ends, the notebook
// server and the live-reload handler all share the same *Namespace and
// mutate its bindings in place; the runtime itself is not goroutine-safe, so
// every access goes through the Namespace mutex.
package namespace
