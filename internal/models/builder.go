// SPDX-License-Identifier: MPL-2.0

package models

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"

	"github.com/shellplus/shellplus/internal/database"
	"github.com/shellplus/shellplus/internal/namespace"
)

// reserved globals are never taken by a model export without an alias.
var reserved = []string{"print", "console", database.GlobalName}

type (
	// Options configure a Build.
	Options struct {
		// Root is the project root model modules are discovered under.
		Root     string
		Patterns []string
		Ignore   []string
		// DontLoad lists modules or module.Export entries to skip.
		DontLoad []string
		// Quiet suppresses the load report.
		Quiet bool
		// Namespace receives the bindings. A new one is created when nil.
		Namespace *namespace.Namespace
		// DB is bound as the db global when set.
		DB *database.DB
		// Output receives the load report and module print output.
		// Defaults to os.Stdout.
		Output io.Writer
	}

	// Result is the outcome of a Build.
	Result struct {
		Namespace *namespace.Namespace
		Scope     *Scope
		Loader    *Loader
		Modules   []Module
		// Failures holds modules that could not be imported; their exports
		// are absent from the namespace.
		Failures []*ImportError
	}

	// Builder builds the initial session namespace.
	Builder struct {
		logger *log.Logger
	}

	staged struct {
		name  string
		value goja.Value
	}
)

// NewBuilder creates a Builder. A nil logger discards log output.
func NewBuilder(logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{logger: logger.WithPrefix("models")}
}

// Build discovers and imports every model module and binds their exports.
// Import failures are collected in the Result; only discovery failures and
// cancellation are returned as errors.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	modules, err := Discover(opts.Root, opts.Patterns, opts.Ignore)
	if err != nil {
		return nil, err
	}

	ns := opts.Namespace
	if ns == nil {
		ns = namespace.New(namespace.WithOutput(out))
	}
	if opts.DB != nil {
		if err := opts.DB.Bind(ns); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Namespace: ns,
		Scope:     NewScope(),
		Loader:    NewLoader(opts.Root, ns),
		Modules:   modules,
	}

	excluded := parseDontLoad(opts.DontLoad)
	taken := make(map[string]struct{})
	for _, name := range reserved {
		taken[name] = struct{}{}
	}

	var (
		pending []staged
		report  []reportLine
	)
	for _, m := range modules {
		if excluded.module(m.ID) {
			b.logger.Debug("module excluded", "module", m.ID)
			continue
		}

		exports, err := res.Loader.Import(ctx, m.Path)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			var ie *ImportError
			if errors.As(err, &ie) {
				res.Failures = append(res.Failures, ie)
			}
			b.logger.Warn("import failed", "module", m.ID, "err", err)
			continue
		}

		var bindings []Binding
		for _, name := range exports.Names() {
			if excluded.export(m.ID, name) {
				b.logger.Debug("export excluded", "module", m.ID, "name", name)
				continue
			}
			bound, ok := bindName(m.ID, name, taken)
			if !ok {
				b.logger.Warn("export not bound, every candidate name is taken", "module", m.ID, "name", name)
				continue
			}
			if bound != name {
				b.logger.Warn("name collision, export bound under alias", "module", m.ID, "name", name, "alias", bound)
			}
			taken[bound] = struct{}{}

			value, _ := exports.Get(name)
			pending = append(pending, staged{name: bound, value: value})
			bindings = append(bindings, Binding{Name: bound, Export: name})
		}

		res.Scope.Record(m.ID, bindings)
		report = append(report, reportLine{module: m.ID, bindings: bindings})
	}

	err = ns.Update(func(tx *namespace.Tx) error {
		for _, s := range pending {
			tx.Set(s.name, s.value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !opts.Quiet {
		printReport(out, report)
	}
	return res, nil
}

// bindName returns the global an export is bound under: its own name, or
// <last path segment>_<name> when taken, or <module id>_<name> as a last
// resort.
func bindName(id, name string, taken map[string]struct{}) (string, bool) {
	candidates := []string{
		name,
		path.Base(id) + "_" + name,
		strings.ReplaceAll(id, "/", "_") + "_" + name,
	}
	for _, c := range candidates {
		if _, dup := taken[c]; !dup {
			return c, true
		}
	}
	return "", false
}
