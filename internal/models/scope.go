// SPDX-License-Identifier: MPL-2.0

package models

import (
	"slices"
	"sync"
)

type (
	// Binding ties a namespace global to the module export it holds.
	Binding struct {
		// Name is the global in the namespace.
		Name string
		// Export is the name the module exports the value under. It differs
		// from Name when a collision forced an alias.
		Export string
	}

	// Scope records, per module id, the globals that module populated.
	Scope struct {
		mu       sync.RWMutex
		order    []string
		bindings map[string][]Binding
	}
)

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{bindings: make(map[string][]Binding)}
}

// Record stores the bindings of module id, replacing earlier ones.
func (s *Scope) Record(id string, bindings []Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[id]; !ok {
		s.order = append(s.order, id)
	}
	s.bindings[id] = slices.Clone(bindings)
}

// Bindings returns the bindings recorded for module id.
func (s *Scope) Bindings(id string) ([]Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[id]
	return slices.Clone(b), ok
}

// Modules returns the recorded module ids in import order.
func (s *Scope) Modules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Len returns the number of recorded modules.
func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
