// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and a
// list of remediation hints. A Category classifies the error so callers can
// decide whether it aborts the session (configuration) or is recovered
// locally. Issue values hold longer Markdown guides rendered with glamour.
package issue
