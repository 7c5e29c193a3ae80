// SPDX-License-Identifier: MPL-2.0

// Package database is the optional data layer bound into a session as the
// db global. It wraps database/sql with the pure-Go SQLite driver and lets
// callers observe every statement through interceptors (used by --print-sql).
package database
