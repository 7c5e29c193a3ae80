// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/shellplus/shellplus/internal/models"
)

func TestHistoryPersistsAddedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "history")
	h := loadHistory(path)
	h.add("User.findAll()")
	h.add("User.findAll()")
	h.add("   ")
	h.add("1 + 1")
	if err := h.save(); err != nil {
		t.Fatalf("save() error = %v", err)
	}

	again := loadHistory(path)
	if want := []string{"User.findAll()", "1 + 1"}; !slices.Equal(again.entries, want) {
		t.Errorf("entries = %v, want %v", again.entries, want)
	}

	// A second save appends only what is new.
	again.add("2 + 2")
	if err := again.save(); err != nil {
		t.Fatalf("save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Errorf("history file has %d lines, want 3:\n%s", got, data)
	}
}

func TestHistoryWithoutPath(t *testing.T) {
	t.Parallel()

	h := loadHistory("")
	if _, ok := h.prev(); ok {
		t.Error("prev() on an empty history returned an entry")
	}
	h.add("x")
	if err := h.save(); err != nil {
		t.Errorf("save() without a path error = %v", err)
	}
}

func TestRenderScope(t *testing.T) {
	t.Parallel()

	if got := renderScope(nil); got != "No model globals.\n" {
		t.Errorf("renderScope(nil) = %q", got)
	}

	scope := models.NewScope()
	scope.Record("app/models", []models.Binding{
		{Name: "User", Export: "User"},
		{Name: "models_Group", Export: "Group"},
	})
	got := renderScope(scope)
	for _, want := range []string{"app/models", "  User\n", "Group", "(as models_Group)"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderScope() = %q, want it to contain %q", got, want)
		}
	}
}
