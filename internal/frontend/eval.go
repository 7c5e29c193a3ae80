// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dop251/goja"

	"github.com/shellplus/shellplus/internal/namespace"
)

const (
	primaryPrompt      = ">>> "
	continuationPrompt = "... "
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

// evaluator accumulates input lines until they form a complete program,
// then evaluates them against the namespace.
type evaluator struct {
	ns      *namespace.Namespace
	out     io.Writer
	errOut  io.Writer
	styled  bool
	pending []string
}

func newEvaluator(ns *namespace.Namespace, out, errOut io.Writer, styled bool) *evaluator {
	return &evaluator{ns: ns, out: out, errOut: errOut, styled: styled}
}

// prompt returns the prompt for the next line.
func (e *evaluator) prompt() string {
	if len(e.pending) > 0 {
		return continuationPrompt
	}
	return primaryPrompt
}

// reset drops a partially entered program.
func (e *evaluator) reset() {
	e.pending = e.pending[:0]
}

// feed adds one line. It evaluates once the buffered source parses,
// printing output, the displayed value or the error.
func (e *evaluator) feed(ctx context.Context, line string) {
	if len(e.pending) == 0 && strings.TrimSpace(line) == "" {
		return
	}
	e.pending = append(e.pending, line)
	src := strings.Join(e.pending, "\n")

	res, err := e.ns.Eval(ctx, src)
	if err != nil && incomplete(err) && strings.TrimSpace(line) != "" {
		return
	}
	e.reset()
	e.print(res, err)
}

func (e *evaluator) print(res *namespace.Result, err error) {
	if res != nil && res.Output != "" {
		_, _ = io.WriteString(e.out, res.Output)
	}
	if err != nil {
		fmt.Fprintln(e.errOut, errorText(err, e.styled))
		return
	}
	if res != nil && res.Display != "" {
		fmt.Fprintln(e.out, res.Display)
	}
}

// renderResult formats an evaluation the way a terminal shows it, with no
// trailing newline.
func renderResult(res *namespace.Result, err error, styled bool) string {
	var b strings.Builder
	if res != nil {
		b.WriteString(res.Output)
	}
	switch {
	case err != nil:
		b.WriteString(errorText(err, styled))
	case res != nil:
		b.WriteString(res.Display)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func errorText(err error, styled bool) string {
	msg := describe(err)
	if styled {
		return errorStyle.Render(msg)
	}
	return msg
}

// incomplete reports whether err is a parse error at end of input, which
// means the user is still typing a multi-line statement.
func incomplete(err error) bool {
	var (
		syntax *goja.CompilerSyntaxError
		exc    *goja.Exception
	)
	if !errors.As(err, &syntax) && !errors.As(err, &exc) {
		return false
	}
	return strings.Contains(err.Error(), "Unexpected end of input")
}

func describe(err error) string {
	if errors.Is(err, namespace.ErrInterrupted) {
		return "KeyboardInterrupt"
	}
	var se *namespace.ScriptError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
