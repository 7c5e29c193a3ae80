// SPDX-License-Identifier: MPL-2.0

//go:build !no_tui

package frontend

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shellplus/shellplus/internal/namespace"
)

func newTestTUIModel(t *testing.T) tuiModel {
	t.Helper()
	return newTUIModel(context.Background(), completionNamespace(t), nil, loadHistory(""))
}

func typeLine(m tuiModel, s string) tuiModel {
	m.input.SetValue(s)
	m.input.CursorEnd()
	return m
}

func TestTUICtrlDQuitsOnEmptyLine(t *testing.T) {
	t.Parallel()

	m := newTestTUIModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if cmd == nil {
		t.Fatal("Update(Ctrl+D) returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Update(Ctrl+D) on an empty line did not quit")
	}

	m = typeLine(m, "1 +")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD}); cmd != nil {
		t.Error("Update(Ctrl+D) quit with text on the line")
	}
}

func TestTUICtrlCClearsLine(t *testing.T) {
	t.Parallel()

	m := typeLine(newTestTUIModel(t), "half typed")
	m.pending = []string{"function f() {"}
	m.input.Prompt = continuationPrompt

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	got := next.(tuiModel)
	if got.input.Value() != "" || got.pending != nil || got.input.Prompt != primaryPrompt {
		t.Errorf("after Ctrl+C: value=%q pending=%v prompt=%q", got.input.Value(), got.pending, got.input.Prompt)
	}
}

func TestTUITabCompletesSingleMatch(t *testing.T) {
	t.Parallel()

	m := typeLine(newTestTUIModel(t), "x = app.mo")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	got := next.(tuiModel)
	if v := got.input.Value(); v != "x = app.models" {
		t.Errorf("value after Tab = %q, want %q", v, "x = app.models")
	}
}

func TestTUITabListsSeveralMatches(t *testing.T) {
	t.Parallel()

	m := typeLine(newTestTUIModel(t), "User.fi")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	got := next.(tuiModel)
	if got.input.Value() != "User.fi" {
		t.Errorf("value changed to %q with several matches", got.input.Value())
	}
	if len(got.matches) != 2 {
		t.Errorf("matches = %v, want two", got.matches)
	}
	if view := got.View(); !strings.Contains(view, "User.findAll") {
		t.Errorf("View() = %q, want the matches listed", view)
	}
}

func TestTUIFuzzyCompletion(t *testing.T) {
	t.Parallel()

	m := typeLine(newTestTUIModel(t), "Usr")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if v := next.(tuiModel).input.Value(); v != "User" {
		t.Errorf("value after Tab = %q, want %q", v, "User")
	}
}

func TestTUIHistoryNavigation(t *testing.T) {
	t.Parallel()

	m := newTestTUIModel(t)
	m.history.add("first")
	m.history.add("second")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(tuiModel)
	if v := m.input.Value(); v != "second" {
		t.Fatalf("Up = %q, want %q", v, "second")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(tuiModel)
	if v := m.input.Value(); v != "first" {
		t.Fatalf("Up Up = %q, want %q", v, "first")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(tuiModel)
	if v := m.input.Value(); v != "second" {
		t.Fatalf("Up Up Down = %q, want %q", v, "second")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(tuiModel)
	if v := m.input.Value(); v != "" {
		t.Errorf("past newest = %q, want empty", v)
	}
}

func TestTUISubmitEvaluates(t *testing.T) {
	t.Parallel()

	m := typeLine(newTestTUIModel(t), "6 * 7")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(tuiModel)
	if !m.busy || cmd == nil {
		t.Fatal("Enter did not start an evaluation")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	// Keys are ignored while an evaluation runs.
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD}); cmd != nil {
		t.Error("Ctrl+D handled while busy")
	}

	res, err := m.ns.Eval(context.Background(), "6 * 7")
	next, cmd = m.Update(evalDoneMsg{source: "6 * 7", res: res, err: err})
	m = next.(tuiModel)
	if m.busy || m.pending != nil || cmd == nil {
		t.Errorf("after evaluation: busy=%v pending=%v cmd=%v", m.busy, m.pending, cmd != nil)
	}
}

func TestTUIMultiLineInput(t *testing.T) {
	t.Parallel()

	m := newTestTUIModel(t)
	m.pending = []string{"function f() {"}
	res, err := m.ns.Eval(context.Background(), "function f() {")

	next, cmd := m.Update(evalDoneMsg{source: "function f() {", res: res, err: err})
	m = next.(tuiModel)
	if cmd != nil {
		t.Error("incomplete input produced output")
	}
	if m.input.Prompt != continuationPrompt || len(m.pending) != 1 {
		t.Errorf("prompt=%q pending=%v, want a continuation", m.input.Prompt, m.pending)
	}
}

func TestTUIFinishEvalShowsErrors(t *testing.T) {
	t.Parallel()

	m := newTestTUIModel(t)
	_, err := m.ns.Eval(context.Background(), "nope")
	if !namespace.IsMissingReference(err) {
		t.Fatalf("Eval(nope) error = %v", err)
	}
	next, cmd := m.Update(evalDoneMsg{source: "nope", err: err})
	if cmd == nil || next.(tuiModel).pending != nil {
		t.Error("an evaluation error was not reported")
	}
}
