// SPDX-License-Identifier: MPL-2.0

package namespace

import (
	"errors"

	"github.com/dop251/goja"
)

// ErrInterrupted is returned when an evaluation is cancelled through its context.
var ErrInterrupted = errors.New("evaluation interrupted")

// MissingReferenceError reports a script that referenced a name which is
// not defined (a JavaScript ReferenceError).
type MissingReferenceError struct {
	// Script is the script name given to RunScript, or "<eval>".
	Script string
	Err    error
}

// Error implements error.
func (e *MissingReferenceError) Error() string {
	return e.Script + ": " + e.Err.Error()
}

// Unwrap returns the goja exception.
func (e *MissingReferenceError) Unwrap() error {
	return e.Err
}

// IsMissingReference reports whether err is exactly an unresolved-identifier
// failure. Syntax errors, type errors and thrown values are not.
func IsMissingReference(err error) bool {
	var mre *MissingReferenceError
	return errors.As(err, &mre)
}

// ScriptError is a JavaScript exception whose message was rendered while
// the runtime was locked. Rendering a thrown object can run user code, so
// the text is never computed later.
type ScriptError struct {
	Script    string
	Exception *goja.Exception
	msg       string
}

// Error implements error.
func (e *ScriptError) Error() string {
	return e.msg
}

// Unwrap returns the goja exception.
func (e *ScriptError) Unwrap() error {
	return e.Exception
}

// catch stores a JavaScript exception that escaped through the Value API
// (a throwing getter, toString or Proxy trap) in *errp. Other panics are
// re-raised. It must be deferred directly.
func catch(errp *error) {
	switch r := recover().(type) {
	case nil:
	case *goja.Exception:
		*errp = r
	case *goja.InterruptedError:
		*errp = r
	default:
		panic(r)
	}
}

// classify converts runtime errors into the package's typed errors. It
// must run with the runtime lock held because it reads the exception object.
func classify(script string, err error) error {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return ErrInterrupted
	}

	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return err
	}
	se := &ScriptError{Script: script, Exception: exc, msg: exceptionText(exc)}
	if exceptionName(exc) == "ReferenceError" {
		return &MissingReferenceError{Script: script, Err: se}
	}
	return se
}

func exceptionText(exc *goja.Exception) (msg string) {
	var err error
	defer func() {
		if err != nil {
			msg = "uncaught exception (rendering its message threw again)"
		}
	}()
	defer catch(&err)
	return exc.Error()
}

func exceptionName(exc *goja.Exception) (name string) {
	var err error
	defer func() {
		if err != nil {
			name = ""
		}
	}()
	defer catch(&err)

	obj, ok := exc.Value().(*goja.Object)
	if !ok {
		return ""
	}
	if v := obj.Get("name"); v != nil {
		return v.String()
	}
	return ""
}
