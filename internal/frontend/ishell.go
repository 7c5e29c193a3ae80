// SPDX-License-Identifier: MPL-2.0

//go:build !no_ishell

package frontend

import (
	"context"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/abiosoft/readline"
	"github.com/charmbracelet/glamour"
)

const ishellHelp = `# shellplus

Type JavaScript at the prompt. Every model module under the project root
is already imported; its exports are globals.

| Command  | Description                                   |
|----------|-----------------------------------------------|
| .names   | list the model globals, grouped by module     |
| .help    | show this help                                |
| .exit    | leave the session (Ctrl+D works too)          |

Press Tab to complete globals and properties (User.fi<Tab>).
`

// richShell is the ishell front-end.
type richShell struct{}

func init() {
	Register(richShell{})
}

func (richShell) Name() Mode { return ModeIShell }

func (richShell) Dependency() string { return Dependency(ModeIShell) }

func (richShell) Available(env Env) error {
	if !env.Interactive() {
		return Unavailable(ModeIShell, ErrNotTerminal)
	}
	return nil
}

func (richShell) Launch(ctx context.Context, sess *Session) error {
	env := sess.Env
	// ishell is built on the abiosoft fork of readline, which reads the
	// process terminal.
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       primaryPrompt,
		HistoryFile:  sess.HistoryFile,
		AutoComplete: completer{ns: sess.Namespace},
		Stdout:       env.Stdout,
		Stderr:       env.stderr(),
	})
	if err != nil {
		return Unavailable(ModeIShell, err)
	}

	sh := ishell.NewWithReadline(rl)
	defer sh.Close()
	stop := context.AfterFunc(ctx, sh.Stop)
	defer stop()

	ev := newEvaluator(sess.Namespace, env.Stdout, env.stderr(), true)
	sh.SetPrompt(ev.prompt())
	sh.DeleteCmd("exit")
	sh.DeleteCmd("help")
	sh.CustomCompleter(completer{ns: sess.Namespace})

	sh.EOF(func(c *ishell.Context) {
		c.Stop()
	})
	sh.Interrupt(func(c *ishell.Context, _ int, _ string) {
		ev.reset()
		c.SetPrompt(ev.prompt())
	})
	sh.NotFound(func(c *ishell.Context) {
		// ishell hands over the line already split on whitespace, so runs
		// of spaces (including inside string literals) collapse to one.
		// Use the plain or tui front-end when exact spacing matters.
		ev.feed(ctx, strings.Join(c.RawArgs, " "))
		c.SetPrompt(ev.prompt())
	})

	sh.AddCmd(&ishell.Cmd{
		Name: ".names",
		Help: "list the model globals, grouped by module",
		Func: func(c *ishell.Context) {
			c.Print(renderScope(sess.Scope))
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: ".help",
		Help: "show help",
		Func: func(c *ishell.Context) {
			out, err := glamour.Render(ishellHelp, "auto")
			if err != nil {
				out = ishellHelp
			}
			c.Print(out)
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: ".exit",
		Help: "leave the session",
		Func: func(c *ishell.Context) {
			c.Stop()
		},
	})

	sh.Println("shellplus: type .help for help, Ctrl+D to exit")
	sh.Run()
	return nil
}
