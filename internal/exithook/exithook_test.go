// SPDX-License-Identifier: MPL-2.0

package exithook

import (
	"slices"
	"testing"
)

// Tests share the package-level registry, so they do not run in parallel.

func TestRunOrderAndOnce(t *testing.T) {
	var calls []int
	Register(func() { calls = append(calls, 1) })
	Register(func() { panic("boom") })
	Register(func() { calls = append(calls, 3) })

	Run()
	Run()

	if want := []int{3, 1}; !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestUnregister(t *testing.T) {
	called := false
	unregister := Register(func() { called = true })
	unregister()
	unregister()

	Run()
	if called {
		t.Error("unregistered hook ran")
	}
}
