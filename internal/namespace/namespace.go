// SPDX-License-Identifier: MPL-2.0

package namespace

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

type (
	// Namespace is the single mutable scope of a session.
	Namespace struct {
		mu     sync.Mutex
		vm     *goja.Runtime
		bound  map[string]struct{}
		stdout io.Writer
		// capture collects print output of the running evaluation; nil
		// outside Eval.
		capture *strings.Builder
		// ctx belongs to the running evaluation; nil between evaluations.
		ctx context.Context
	}

	// Option configures a Namespace.
	Option func(*Namespace)

	// Tx stages rebinds inside Update.
	Tx struct {
		ns      *Namespace
		pending []binding
	}

	binding struct {
		name  string
		value any
	}

	// Result is the outcome of one evaluation.
	Result struct {
		// Output is everything print/console.log wrote during the evaluation.
		Output string
		// Value is the completion value of the evaluated source.
		Value goja.Value
		// Display is Value formatted for a terminal; empty for undefined.
		Display string
	}
)

// WithOutput sets where print writes outside of Eval (module bodies and
// startup scripts). Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(ns *Namespace) {
		ns.stdout = w
	}
}

// New creates an empty namespace with print and console.log installed.
func New(opts ...Option) *Namespace {
	ns := &Namespace{
		vm:     goja.New(),
		bound:  make(map[string]struct{}),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(ns)
	}

	printFn := func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.String()
		}
		line := strings.Join(args, " ") + "\n"
		if ns.capture != nil {
			ns.capture.WriteString(line)
		} else {
			_, _ = io.WriteString(ns.stdout, line)
		}
		return goja.Undefined()
	}
	// Installing functions on a fresh runtime cannot fail.
	_ = ns.vm.Set("print", printFn)
	console := ns.vm.NewObject()
	_ = console.Set("log", printFn)
	_ = ns.vm.Set("console", console)

	return ns
}

// Set binds name to value in the global scope.
func (ns *Namespace) Set(name string, value any) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.set(name, value)
}

func (ns *Namespace) set(name string, value any) error {
	if err := ns.vm.Set(name, value); err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	ns.bound[name] = struct{}{}
	return nil
}

// Get returns the value bound to name in the global scope.
func (ns *Namespace) Get(name string) (goja.Value, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.get(name)
}

func (ns *Namespace) get(name string) (v goja.Value, ok bool) {
	var err error
	defer func() {
		if err != nil {
			v, ok = nil, false
		}
	}()
	defer catch(&err)

	v = ns.vm.GlobalObject().Get(name)
	return v, v != nil
}

// Has reports whether name was bound through Set or Update.
func (ns *Namespace) Has(name string) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	_, ok := ns.bound[name]
	return ok
}

// Names returns the names bound through Set or Update, sorted.
func (ns *Namespace) Names() []string {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	names := make([]string, 0, len(ns.bound))
	for name := range ns.bound {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Globals returns every enumerable global, including names the user
// defined with var or plain assignment, sorted. Used for completion.
func (ns *Namespace) Globals() []string {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	keys := ns.vm.GlobalObject().Keys()
	for name := range ns.bound {
		if !slices.Contains(keys, name) {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	return keys
}

// Update runs fn with exclusive access and applies the rebinds it staged
// only when fn returns nil. No evaluation observes a partial batch.
func (ns *Namespace) Update(fn func(tx *Tx) error) (err error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	defer catch(&err)

	tx := &Tx{ns: ns}
	if err := fn(tx); err != nil {
		return err
	}
	for _, b := range tx.pending {
		if err := ns.set(b.name, b.value); err != nil {
			return err
		}
	}
	return nil
}

// Set stages a rebind.
func (tx *Tx) Set(name string, value any) {
	tx.pending = append(tx.pending, binding{name: name, value: value})
}

// Get reads the current (pre-commit) binding.
func (tx *Tx) Get(name string) (goja.Value, bool) {
	return tx.ns.get(name)
}

// Runtime exposes the runtime to the staging function.
func (tx *Tx) Runtime() *goja.Runtime {
	return tx.ns.vm
}

// Do runs fn with exclusive access to the runtime. An exception thrown by
// user code that fn reaches through the Value API is returned as the error.
func (ns *Namespace) Do(fn func(vm *goja.Runtime) error) (err error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	defer catch(&err)
	return fn(ns.vm)
}

// DoContext is Do with cancellation: cancelling ctx interrupts whatever
// script fn is running.
func (ns *Namespace) DoContext(ctx context.Context, fn func(vm *goja.Runtime) error) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	_, err := ns.run(ctx, func() (goja.Value, error) {
		return nil, fn(ns.vm)
	})
	return classify("<module>", err)
}

// Eval evaluates src in the global scope. Cancelling ctx interrupts a
// long-running evaluation.
func (ns *Namespace) Eval(ctx context.Context, src string) (*Result, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	var out strings.Builder
	ns.capture = &out
	defer func() { ns.capture = nil }()

	val, err := ns.run(ctx, func() (goja.Value, error) {
		return ns.vm.RunString(src)
	})
	if err != nil {
		return &Result{Output: out.String()}, classify("<eval>", err)
	}

	return &Result{
		Output:  out.String(),
		Value:   val,
		Display: format(ns.vm, val),
	}, nil
}

// RunScript compiles and runs a whole script in the global scope. name is
// used in stack traces and errors.
func (ns *Namespace) RunScript(ctx context.Context, name, src string) error {
	prg, err := goja.Compile(name, src, false)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	_, err = ns.run(ctx, func() (goja.Value, error) {
		return ns.vm.RunProgram(prg)
	})
	return classify(name, err)
}

// Context returns the context of the evaluation currently running, or
// context.Background() outside one. Go functions bound into the runtime
// call it so their blocking work ends with the evaluation. It does not
// lock; only call it from such functions.
func (ns *Namespace) Context() context.Context {
	if ns.ctx == nil {
		return context.Background()
	}
	return ns.ctx
}

// run executes fn with context-driven interruption. The watcher goroutine
// has exited before the interrupt flag is cleared, so a late cancellation
// never leaks into the next evaluation, even when fn panics.
func (ns *Namespace) run(ctx context.Context, fn func() (goja.Value, error)) (val goja.Value, err error) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			ns.vm.Interrupt(ErrInterrupted.Error())
		case <-done:
		}
	}()
	ns.ctx = ctx
	defer func() {
		ns.ctx = nil
		close(done)
		<-exited
		ns.vm.ClearInterrupt()
	}()
	defer catch(&err)

	return fn()
}
