// SPDX-License-Identifier: MPL-2.0

// Package reload applies watcher events to a live session.
//
// When a model module that was imported at startup changes, the Handler
// re-imports it and rebinds every global the module populated, as one batch.
// A failed import leaves the namespace at its last good state; the failure
// is logged and never reaches the interactive session.
package reload
