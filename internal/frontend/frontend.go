// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/shellplus/shellplus/internal/models"
	"github.com/shellplus/shellplus/internal/namespace"
)

// Front-end modes. ModeAuto selects the default fallback chain.
const (
	ModeAuto     Mode = ""
	ModePlain    Mode = "plain"
	ModeIShell   Mode = "ishell"
	ModeTUI      Mode = "tui"
	ModeNotebook Mode = "notebook"
)

var (
	// ErrUnavailable is matched by every UnavailableError.
	ErrUnavailable = errors.New("front-end unavailable")

	// ErrNoFrontend is returned when the default chain is exhausted.
	ErrNoFrontend = errors.New("could not load any interactive environment")

	// ErrNotCompiled is the reason given for a mode missing from the registry.
	ErrNotCompiled = errors.New("not compiled into this binary")

	// ErrNotTerminal is the reason rich front-ends give without a terminal.
	ErrNotTerminal = errors.New("stdin and stdout must be terminals")

	// DefaultOrder is the fallback chain tried when no mode is requested.
	DefaultOrder = []Mode{ModeIShell, ModeTUI, ModePlain}

	// dependencies names the library each front-end is built on, so the
	// hint is available even for a front-end excluded from the build.
	dependencies = map[Mode]string{
		ModePlain:    "github.com/chzyer/readline",
		ModeIShell:   "github.com/abiosoft/ishell/v2",
		ModeTUI:      "github.com/charmbracelet/bubbletea",
		ModeNotebook: "net/http",
	}

	registryMu sync.RWMutex
	registry   = make(map[Mode]Frontend)
)

type (
	// Mode names a front-end.
	Mode string

	// Frontend is one interactive read-eval-print implementation.
	Frontend interface {
		// Name returns the mode this front-end implements.
		Name() Mode
		// Dependency names the library the front-end needs.
		Dependency() string
		// Available reports whether the front-end can run in env. It has
		// no side effects.
		Available(env Env) error
		// Launch runs the front-end and blocks until the user leaves it
		// or ctx is cancelled.
		Launch(ctx context.Context, sess *Session) error
	}

	// Env is the terminal a front-end runs on.
	Env struct {
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
		StdinTTY  bool
		StdoutTTY bool
	}

	// Session is everything a front-end needs from the session controller.
	Session struct {
		// Namespace is the live scope shared with the reload handler.
		Namespace *namespace.Namespace
		// Scope lists the names each model module contributed.
		Scope *models.Scope
		Env   Env
		// NoStartup skips the startup scripts of the plain front-end.
		NoStartup bool
		// StartupScript is run by the plain front-end before the first
		// prompt. Empty means none.
		StartupScript string
		// RCFile is run after StartupScript. Empty means none.
		RCFile string
		// HistoryFile persists line history. Empty disables history.
		HistoryFile string
		// NotebookAddr is the notebook listen address.
		NotebookAddr string
		Logger       *log.Logger
	}

	// UnavailableError reports a front-end that cannot run.
	UnavailableError struct {
		Mode       Mode
		Dependency string
		Reason     error
	}
)

// String returns the mode name, or "auto" for ModeAuto.
func (m Mode) String() string {
	if m == ModeAuto {
		return "auto"
	}
	return string(m)
}

// ParseMode converts a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModePlain, ModeIShell, ModeTUI, ModeNotebook:
		return m, nil
	case "auto":
		return ModeAuto, nil
	default:
		return ModeAuto, fmt.Errorf("unknown front-end %q", s)
	}
}

// Dependency returns the library the front-end for m is built on.
func Dependency(m Mode) string {
	return dependencies[m]
}

// Error implements error.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s front-end unavailable: %v", e.Mode, e.Reason)
}

// Unwrap returns the reason.
func (e *UnavailableError) Unwrap() error {
	return e.Reason
}

// Is matches ErrUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable builds an UnavailableError for m.
func Unavailable(m Mode, reason error) error {
	return &UnavailableError{Mode: m, Dependency: Dependency(m), Reason: reason}
}

// Register makes a front-end available by its mode. It panics when called
// twice for the same mode.
func Register(f Frontend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("frontend: Register front-end is nil")
	}
	if _, dup := registry[f.Name()]; dup {
		panic("frontend: Register called twice for " + f.Name().String())
	}
	registry[f.Name()] = f
}

// Lookup returns the registered front-end for m.
func Lookup(m Mode) (Frontend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[m]
	return f, ok
}

// Registered returns the registered modes, sorted.
func Registered() []Mode {
	registryMu.RLock()
	defer registryMu.RUnlock()
	modes := make([]Mode, 0, len(registry))
	for m := range registry {
		modes = append(modes, m)
	}
	slices.Sort(modes)
	return modes
}

// DetectEnv describes the process's standard streams.
func DetectEnv() Env {
	return Env{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		StdinTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		StdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Interactive reports whether both stdin and stdout are terminals.
func (e Env) Interactive() bool {
	return e.StdinTTY && e.StdoutTTY
}

func (e Env) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return io.Discard
}

func (s *Session) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(io.Discard)
	}
	return s.Logger
}
