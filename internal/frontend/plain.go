// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

const maxLineSize = 1 << 20

// plain is the always-available front-end: readline line editing and
// completion on a terminal, a bare line reader otherwise.
type plain struct{}

func init() {
	Register(plain{})
}

func (plain) Name() Mode { return ModePlain }

func (plain) Dependency() string { return Dependency(ModePlain) }

func (plain) Available(Env) error { return nil }

func (p plain) Launch(ctx context.Context, sess *Session) error {
	if err := runStartup(ctx, sess); err != nil {
		return err
	}

	env := sess.Env
	ev := newEvaluator(sess.Namespace, env.Stdout, env.stderr(), env.StdoutTTY)
	if env.StdinTTY {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          ev.prompt(),
			HistoryFile:     sess.HistoryFile,
			AutoComplete:    completer{ns: sess.Namespace},
			InterruptPrompt: "^C",
			EOFPrompt:       "",
			Stdin:           io.NopCloser(env.Stdin),
			Stdout:          env.Stdout,
			Stderr:          env.stderr(),
		})
		if err == nil {
			return p.readline(ctx, rl, ev)
		}
		sess.logger().Debug("line editing unavailable, falling back to plain input", "err", err)
	}
	return p.scan(ctx, env, ev)
}

func (plain) readline(ctx context.Context, rl *readline.Instance, ev *evaluator) error {
	defer func() { _ = rl.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	for {
		rl.SetPrompt(ev.prompt())
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			ev.reset()
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		ev.feed(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (plain) scan(ctx context.Context, env Env, ev *evaluator) error {
	sc := bufio.NewScanner(env.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for {
		if env.StdinTTY {
			_, _ = io.WriteString(env.Stdout, ev.prompt())
		}
		if !sc.Scan() {
			break
		}
		ev.feed(ctx, sc.Text())
		if ctx.Err() != nil {
			return nil
		}
	}
	// An unterminated statement at end of input is reported, not dropped.
	if len(ev.pending) > 0 {
		ev.feed(ctx, "")
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
