// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers cover fixture files (WriteFile, WriteTree) and the home
// directory (SetHomeDir).
package testutil
