// SPDX-License-Identifier: MPL-2.0

package namespace

import (
	"github.com/dop251/goja"
)

// format renders a completion value for display. Must be called with the
// runtime lock held. A value whose toString or getters throw is shown by
// class with the exception text.
func format(vm *goja.Runtime, v goja.Value) (s string) {
	var err error
	defer func() {
		if err == nil {
			return
		}
		class := "object"
		if obj, ok := v.(*goja.Object); ok {
			class += " " + obj.ClassName()
		}
		s = "[" + class + "] (display failed: " + displayError(err) + ")"
	}()
	defer catch(&err)
	return render(vm, v)
}

func displayError(err error) (msg string) {
	exc, ok := err.(*goja.Exception)
	if !ok {
		return err.Error()
	}
	var inner error
	defer func() {
		if inner != nil {
			msg = "exception"
		}
	}()
	defer catch(&inner)
	if v := exc.Value(); v != nil {
		return v.String()
	}
	return "exception"
}

func render(vm *goja.Runtime, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	if goja.IsNull(v) {
		return "null"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		if s, isString := v.Export().(string); isString {
			return quote(s)
		}
		return v.String()
	}

	if _, isFn := goja.AssertFunction(v); isFn {
		name := obj.Get("name")
		if name == nil || name.String() == "" {
			return "[Function (anonymous)]"
		}
		return "[Function: " + name.String() + "]"
	}

	switch obj.ClassName() {
	case "Error":
		return obj.String()
	case "Date":
		return obj.String()
	}

	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return obj.String()
	}
	out, err := stringify(goja.Undefined(), obj)
	if err != nil || goja.IsUndefined(out) {
		return obj.String()
	}
	return out.String()
}

func quote(s string) string {
	return "'" + s + "'"
}

// Format renders a value the way the interactive shells print results.
func (ns *Namespace) Format(v goja.Value) string {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return format(ns.vm, v)
}
