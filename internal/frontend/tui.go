// SPDX-License-Identifier: MPL-2.0

//go:build !no_tui

package frontend

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"

	"github.com/shellplus/shellplus/internal/models"
	"github.com/shellplus/shellplus/internal/namespace"
)

const maxMatches = 8

var (
	hintStyle = lipgloss.NewStyle().Faint(true)
	busyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type (
	// tuiFrontend is the bubbletea front-end.
	tuiFrontend struct{}

	tuiModel struct {
		ctx   context.Context
		ns    *namespace.Namespace
		scope *models.Scope

		input   textinput.Model
		history *history
		pending []string
		matches []string
		busy    bool
		width   int
	}

	evalDoneMsg struct {
		source string
		res    *namespace.Result
		err    error
	}
)

func init() {
	Register(tuiFrontend{})
}

func (tuiFrontend) Name() Mode { return ModeTUI }

func (tuiFrontend) Dependency() string { return Dependency(ModeTUI) }

func (tuiFrontend) Available(env Env) error {
	if !env.Interactive() {
		return Unavailable(ModeTUI, ErrNotTerminal)
	}
	return nil
}

func (tuiFrontend) Launch(ctx context.Context, sess *Session) error {
	hist := loadHistory(sess.HistoryFile)
	m := newTUIModel(ctx, sess.Namespace, sess.Scope, hist)

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(sess.Env.Stdin),
		tea.WithOutput(sess.Env.Stdout),
	)
	_, err := p.Run()
	if saveErr := hist.save(); saveErr != nil {
		sess.logger().Warn("could not save history", "path", sess.HistoryFile, "err", saveErr)
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func newTUIModel(ctx context.Context, ns *namespace.Namespace, scope *models.Scope, hist *history) tuiModel {
	ti := textinput.New()
	ti.Prompt = primaryPrompt
	ti.Focus()
	return tuiModel{
		ctx:     ctx,
		ns:      ns,
		scope:   scope,
		input:   ti,
		history: hist,
	}
}

// Init implements tea.Model.
func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.Println(hintStyle.Render("shellplus: .names lists model globals, Ctrl+D exits")),
	)
}

// Update implements tea.Model.
func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case evalDoneMsg:
		return m.finishEval(msg)

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlD:
			if m.input.Value() == "" && len(m.pending) == 0 {
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyCtrlC:
			m.pending = nil
			m.matches = nil
			m.input.Reset()
			m.input.Prompt = primaryPrompt
			return m, nil
		case tea.KeyUp:
			if line, ok := m.history.prev(); ok {
				m.input.SetValue(line)
				m.input.CursorEnd()
			}
			return m, nil
		case tea.KeyDown:
			line, _ := m.history.next()
			m.input.SetValue(line)
			m.input.CursorEnd()
			return m, nil
		case tea.KeyTab:
			m.complete()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.matches = nil
	return m, cmd
}

// View implements tea.Model.
func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	if m.busy {
		b.WriteString("\n" + busyStyle.Render("evaluating…"))
	}
	if len(m.matches) > 0 {
		line := strings.Join(m.matches, "  ")
		if m.width > 0 {
			line = truncate.StringWithTail(line, uint(m.width), "…")
		}
		b.WriteString("\n" + hintStyle.Render(line))
	}
	return b.String()
}

func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.Reset()
	m.matches = nil
	echo := tea.Println(m.input.Prompt + line)

	if len(m.pending) == 0 {
		switch strings.TrimSpace(line) {
		case "":
			return m, echo
		case ".exit":
			return m, tea.Sequence(echo, tea.Quit)
		case ".names":
			return m, tea.Sequence(echo, tea.Println(strings.TrimSuffix(renderScope(m.scope), "\n")))
		}
	}

	m.history.add(line)
	m.pending = append(m.pending, line)
	m.busy = true
	src := strings.Join(m.pending, "\n")
	ctx, ns := m.ctx, m.ns
	return m, tea.Sequence(echo, func() tea.Msg {
		res, err := ns.Eval(ctx, src)
		return evalDoneMsg{source: line, res: res, err: err}
	})
}

func (m tuiModel) finishEval(msg evalDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil && incomplete(msg.err) && strings.TrimSpace(msg.source) != "" {
		m.input.Prompt = continuationPrompt
		return m, nil
	}
	m.pending = nil
	m.input.Prompt = primaryPrompt
	out := renderResult(msg.res, msg.err, true)
	if out == "" {
		return m, nil
	}
	return m, tea.Println(out)
}

// complete replaces the word before the cursor with its single match, or
// lists the best matches when there are several. Plain names are matched
// fuzzily; dotted paths by prefix.
func (m *tuiModel) complete() {
	value := []rune(m.input.Value())
	pos := min(m.input.Position(), len(value))
	word := wordBefore(value[:pos])

	var found []string
	if strings.Contains(word, ".") || word == "" {
		found = candidates(m.ns, word)
	} else {
		for _, match := range fuzzy.Find(word, m.ns.Globals()) {
			found = append(found, match.Str)
		}
	}

	switch len(found) {
	case 0:
		m.matches = nil
	case 1:
		start := pos - len([]rune(word))
		next := string(value[:start]) + found[0] + string(value[pos:])
		m.input.SetValue(next)
		m.input.SetCursor(start + len([]rune(found[0])))
		m.matches = nil
	default:
		m.matches = found[:min(len(found), maxMatches)]
	}
}
