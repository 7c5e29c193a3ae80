// SPDX-License-Identifier: MPL-2.0

package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"

	"github.com/shellplus/shellplus/internal/namespace"
)

// The module body shares its first line with the wrapper head so runtime
// line numbers match the file.
const (
	wrapperHead = "(function (exports, module, __filename, __dirname) {"
	wrapperTail = "\n})"
)

// ErrOutsideRoot is returned by ModuleID for paths outside the loader root.
var ErrOutsideRoot = errors.New("path is outside the project root")

type (
	// ImportError reports a module that could not be read, compiled or run.
	// The namespace is never modified by a failed import.
	ImportError struct {
		Module string
		Path   string
		Err    error
	}

	// Exports are the names a module exported, in definition order.
	Exports struct {
		names  []string
		values map[string]goja.Value
	}

	// Loader imports model modules into one namespace.
	Loader struct {
		root string
		ns   *namespace.Namespace
	}
)

// Error implements error.
func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Module, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// Names returns the exported names in definition order.
func (e *Exports) Names() []string {
	return e.names
}

// Get returns the value of an exported name.
func (e *Exports) Get(name string) (goja.Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Len returns the number of exports.
func (e *Exports) Len() int {
	return len(e.names)
}

func (e *Exports) add(name string, v goja.Value) {
	if _, dup := e.values[name]; !dup {
		e.names = append(e.names, name)
	}
	e.values[name] = v
}

// NewLoader creates a loader for modules under root.
func NewLoader(root string, ns *namespace.Namespace) *Loader {
	return &Loader{root: root, ns: ns}
}

// Root returns the directory module ids are relative to.
func (l *Loader) Root() string {
	return l.root
}

// ModuleID returns the module id of path.
func (l *Loader) ModuleID(path string) (string, error) {
	return moduleID(l.root, path)
}

func moduleID(root, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel), nil
}

// Import executes the module at path in a fresh module scope and returns
// its exports. Each call re-reads and re-runs the file.
func (l *Loader) Import(ctx context.Context, path string) (*Exports, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}
	id, err := l.ModuleID(path)
	if err != nil {
		return nil, &ImportError{Module: path, Path: path, Err: err}
	}
	fail := func(err error) (*Exports, error) {
		return nil, &ImportError{Module: id, Path: path, Err: err}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	prg, err := goja.Compile(path, wrapperHead+string(src)+wrapperTail, false)
	if err != nil {
		return fail(err)
	}

	var exports *Exports
	err = l.ns.DoContext(ctx, func(vm *goja.Runtime) error {
		wrapper, err := vm.RunProgram(prg)
		if err != nil {
			return err
		}
		body, ok := goja.AssertFunction(wrapper)
		if !ok {
			return errors.New("module wrapper is not a function")
		}

		exportsObj := vm.NewObject()
		module := vm.NewObject()
		if err := module.Set("exports", exportsObj); err != nil {
			return err
		}
		if err := module.Set("id", id); err != nil {
			return err
		}

		if _, err := body(goja.Undefined(), exportsObj, module, vm.ToValue(path), vm.ToValue(filepath.Dir(path))); err != nil {
			return err
		}
		exports = collect(module.Get("exports"))
		return nil
	})
	if err != nil {
		return fail(err)
	}
	return exports, nil
}

// collect reads module.exports. A plain object contributes its own
// enumerable keys; a named function or class is exported under its name;
// anything else is exported as "default".
func collect(v goja.Value) *Exports {
	ex := &Exports{values: make(map[string]goja.Value)}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ex
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		ex.add("default", v)
		return ex
	}
	if _, isFn := goja.AssertFunction(v); isFn {
		name := "default"
		if n := obj.Get("name"); n != nil && n.String() != "" {
			name = n.String()
		}
		ex.add(name, v)
		return ex
	}

	for _, key := range obj.Keys() {
		ex.add(key, obj.Get(key))
	}
	return ex
}
