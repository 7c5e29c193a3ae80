// SPDX-License-Identifier: MPL-2.0

// Package frontend launches the interactive front-end of a session.
//
// Front-ends register themselves from init functions, the way database/sql
// drivers do, so a build that leaves one out (see the no_ishell and no_tui
// build tags) simply reports it as unavailable. The Selector picks exactly
// one front-end per session: an explicitly requested mode is tried alone and
// fails with a configuration error when it cannot run, while the default
// mode walks ishell, tui and plain, skipping the ones that are unavailable.
package frontend
