// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/shellplus/shellplus/internal/issue"
)

const exhaustedMessage = "Could not load any interactive environment."

type (
	// Selector launches exactly one front-end per session.
	Selector struct {
		lookup func(Mode) (Frontend, bool)
		order  []Mode
		logger *log.Logger
	}

	// SelectorOption configures a Selector.
	SelectorOption func(*Selector)
)

// WithFrontends makes the Selector use fs instead of the global registry.
func WithFrontends(fs ...Frontend) SelectorOption {
	byMode := make(map[Mode]Frontend, len(fs))
	for _, f := range fs {
		byMode[f.Name()] = f
	}
	return func(s *Selector) {
		s.lookup = func(m Mode) (Frontend, bool) {
			f, ok := byMode[m]
			return f, ok
		}
	}
}

// WithOrder replaces DefaultOrder.
func WithOrder(modes ...Mode) SelectorOption {
	return func(s *Selector) {
		s.order = modes
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *log.Logger) SelectorOption {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSelector creates a Selector over the registered front-ends.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		lookup: Lookup,
		order:  DefaultOrder,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("frontend")
	return s
}

// Run launches the front-end for mode and blocks until the user leaves it.
//
// An explicit mode is the only one tried; if it cannot run, Run returns a
// configuration error naming its dependency. ModeNotebook is launched
// without probing. ModeAuto walks the default order, skipping unavailable
// front-ends; the first launch failure of any other kind ends the walk.
// When nothing could be launched, the last diagnostic is printed to the
// session's stderr and the returned error wraps ErrNoFrontend.
func (s *Selector) Run(ctx context.Context, sess *Session, mode Mode) error {
	switch mode {
	case ModeAuto:
		return s.runDefault(ctx, sess)
	case ModeNotebook:
		return s.runExplicit(ctx, sess, mode, false)
	default:
		return s.runExplicit(ctx, sess, mode, true)
	}
}

func (s *Selector) runExplicit(ctx context.Context, sess *Session, mode Mode, check bool) error {
	f, ok := s.lookup(mode)
	if !ok {
		return explicitUnavailable(mode, Unavailable(mode, ErrNotCompiled))
	}
	if check {
		if err := f.Available(sess.Env); err != nil {
			return explicitUnavailable(mode, asUnavailable(mode, err))
		}
	}

	s.logger.Debug("launching", "mode", mode)
	err := f.Launch(ctx, sess)
	if errors.Is(err, ErrUnavailable) {
		return explicitUnavailable(mode, err)
	}
	return err
}

func (s *Selector) runDefault(ctx context.Context, sess *Session) error {
	var last error
	for _, mode := range s.order {
		f, ok := s.lookup(mode)
		if !ok {
			last = Unavailable(mode, ErrNotCompiled)
			s.logger.Debug("skipping", "mode", mode, "reason", ErrNotCompiled)
			continue
		}
		if err := f.Available(sess.Env); err != nil {
			last = asUnavailable(mode, err)
			s.logger.Debug("skipping", "mode", mode, "reason", err)
			continue
		}

		s.logger.Debug("launching", "mode", mode)
		err := f.Launch(ctx, sess)
		if err == nil {
			return nil
		}
		last = err
		if !errors.Is(err, ErrUnavailable) {
			break
		}
		s.logger.Debug("front-end unavailable at launch", "mode", mode, "err", err)
	}

	report(sess.Env.stderr(), last)
	if last == nil {
		return ErrNoFrontend
	}
	return fmt.Errorf("%w: %w", ErrNoFrontend, last)
}

func asUnavailable(mode Mode, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return Unavailable(mode, err)
}

func explicitUnavailable(mode Mode, err error) error {
	dep := Dependency(mode)
	return issue.NewErrorContext().
		WithOperation(fmt.Sprintf("start the %s front-end", mode)).
		WithResource(dep).
		WithSuggestions(
			fmt.Sprintf("Install %s: rebuild shellplus with the %s front-end", dep, mode),
			"Run shellplus without a front-end flag to use the first one available",
		).
		WithIssue(issue.FrontendUnavailableId).
		Configuration().
		Wrap(err).
		BuildError()
}

// report prints the last diagnostic and the exhaustion message.
func report(w io.Writer, last error) {
	if last != nil {
		var ae *issue.ActionableError
		if errors.As(last, &ae) {
			fmt.Fprintln(w, ae.Format(true))
		} else {
			fmt.Fprintf(w, "%+v\n", last)
		}
	}
	fmt.Fprintln(w, exhaustedMessage)
}
