// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "start live reload"},
			expected: "failed to start live reload",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "start live reload",
				Resource:  "/srv/app",
			},
			expected: "failed to start live reload: /srv/app",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "shellplus.cue",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load configuration: shellplus.cue: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	cause := errors.New("specific error")
	wrapped := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if errors.Is(wrapped, ErrConfiguration) {
		t.Error("generic error must not match ErrConfiguration")
	}
}

func TestConfigurationCategory(t *testing.T) {
	err := NewErrorContext().
		WithOperation("launch ishell").
		WithSuggestion("use --plain").
		Configuration().
		BuildError()

	if !IsConfiguration(err) {
		t.Fatal("IsConfiguration() = false, want true")
	}

	outer := fmt.Errorf("session: %w", err)
	if !errors.Is(outer, ErrConfiguration) {
		t.Error("errors.Is through fmt.Errorf wrapping should match ErrConfiguration")
	}

	var ae *ActionableError
	if !errors.As(outer, &ae) || ae.Category != CategoryConfiguration {
		t.Errorf("errors.As category = %v, want CategoryConfiguration", ae)
	}
}

func TestActionableError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions",
			err: &ActionableError{
				Operation:   "launch tui",
				Suggestions: []string{"Run from a terminal", "Use --plain"},
			},
			contains: []string{"failed to launch tui", "• Run from a terminal", "• Use --plain"},
		},
		{
			name: "error chain in verbose mode",
			err: &ActionableError{
				Operation: "execute startup script",
				Cause: &ActionableError{
					Operation: "evaluate",
					Cause:     errors.New("TypeError"),
				},
			},
			verbose:  true,
			contains: []string{"Error chain:", "1. failed to evaluate: TypeError", "2. TypeError"},
		},
		{
			name: "no error chain in non-verbose",
			err: &ActionableError{
				Operation: "parse config",
				Cause:     errors.New("syntax error"),
			},
			contains: []string{"failed to parse config: syntax error"},
			excludes: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	if NewErrorContext().Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}

	ae := NewErrorContext().
		WithOperation("open database").
		WithResource("app.db").
		WithSuggestions("a", "b").
		WithIssue(DatabaseOpenFailedId).
		Build()
	if ae.Resource != "app.db" || len(ae.Suggestions) != 2 || ae.Issue != DatabaseOpenFailedId {
		t.Errorf("Build() = %+v", ae)
	}
	if !ae.HasSuggestions() {
		t.Error("HasSuggestions() = false, want true")
	}
}
