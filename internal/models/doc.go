// SPDX-License-Identifier: MPL-2.0

// Package models discovers the project's model modules, imports them into
// a session namespace and records which global each export was bound to.
//
// A model module is a JavaScript file under the project root written in
// CommonJS style: it assigns to exports (or module.exports) and every
// exported name becomes a global of the session. The module id is the
// slash-separated path relative to the root without extension, so
// app/models.js is "app/models".
//
// The Scope produced by Build is what live reload consults to know which
// globals to rebind when a module changes.
package models
