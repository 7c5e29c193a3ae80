// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shellplus/shellplus/internal/issue"
	"github.com/shellplus/shellplus/internal/namespace"
	"github.com/shellplus/shellplus/internal/testutil"
)

func plainSession(t *testing.T, input string) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	ns := namespace.New(namespace.WithOutput(&stdout))
	return &Session{
		Namespace: ns,
		Env: Env{
			Stdin:  strings.NewReader(input),
			Stdout: &stdout,
			Stderr: &stderr,
		},
	}, &stdout, &stderr
}

func writeScript(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testutil.WriteFile(t, path, src)
	return path
}

func TestPlainEvaluatesPipedInput(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"1 + 1",
		"print('hi')",
		"",
		"function answer() {",
		"  return 42",
		"}",
		"answer()",
		"'done'",
	}, "\n") + "\n"
	sess, stdout, stderr := plainSession(t, input)

	if err := (plain{}).Launch(context.Background(), sess); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	want := "2\nhi\n42\n'done'\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want nothing", stderr.String())
	}
}

func TestPlainReportsErrorsAndContinues(t *testing.T) {
	t.Parallel()

	sess, stdout, stderr := plainSession(t, "missing.x\nthrow new Error('bad')\n3 * 3\n")

	if err := (plain{}).Launch(context.Background(), sess); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if got := stdout.String(); got != "9\n" {
		t.Errorf("stdout = %q, want %q", got, "9\n")
	}
	errs := stderr.String()
	if !strings.Contains(errs, "ReferenceError") || !strings.Contains(errs, "bad") {
		t.Errorf("stderr = %q, want both errors reported", errs)
	}
}

func TestPlainReportsUnterminatedInput(t *testing.T) {
	t.Parallel()

	sess, stdout, stderr := plainSession(t, "function broken() {\n")

	if err := (plain{}).Launch(context.Background(), sess); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", stdout.String())
	}
	if !strings.Contains(stderr.String(), "SyntaxError") {
		t.Errorf("stderr = %q, want a SyntaxError", stderr.String())
	}
}

func TestPlainRunsStartupScripts(t *testing.T) {
	t.Parallel()

	sess, stdout, _ := plainSession(t, "greeting + ', ' + name\n")
	sess.StartupScript = writeScript(t, "startup.js", "var greeting = 'hello';\nprint('startup ran');\n")
	sess.RCFile = writeScript(t, ".shellplusrc.js", "var name = 'world';\n")

	if err := (plain{}).Launch(context.Background(), sess); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	want := "startup ran\n'hello, world'\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestStartupMissingReferenceIsSwallowed(t *testing.T) {
	t.Parallel()

	sess, stdout, _ := plainSession(t, "typeof before\n")
	// The first statement runs; the undefined name aborts the rest of the
	// script without failing the session.
	sess.StartupScript = writeScript(t, "legacy.js", "var before = 1;\nlegacyHelper.install();\nvar after = 2;\n")

	if err := (plain{}).Launch(context.Background(), sess); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if got := stdout.String(); got != "'number'\n" {
		t.Errorf("stdout = %q, want %q", got, "'number'\n")
	}
}

func TestStartupOtherErrorsPropagate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"type error", "null.property;\n"},
		{"thrown value", "throw new Error('startup failed');\n"},
		{"syntax error", "var = ;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sess, stdout, _ := plainSession(t, "1\n")
			sess.StartupScript = writeScript(t, "startup.js", tt.src)

			err := (plain{}).Launch(context.Background(), sess)
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Issue != issue.StartupScriptFailedId {
				t.Fatalf("Launch() error = %v, want StartupScriptFailedId", err)
			}
			if namespace.IsMissingReference(err) {
				t.Error("error classified as a missing reference")
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, input was read after a startup failure", stdout.String())
			}
		})
	}
}

func TestStartupSkippedWhenDisabledOrMissing(t *testing.T) {
	t.Parallel()

	sess, stdout, _ := plainSession(t, "typeof marker\n")
	sess.StartupScript = writeScript(t, "startup.js", "var marker = 1;\n")
	sess.NoStartup = true
	sess.RCFile = filepath.Join(t.TempDir(), "absent.js")

	if err := (plain{}).Launch(context.Background(), sess); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if got := stdout.String(); got != "'undefined'\n" {
		t.Errorf("stdout = %q, want %q", got, "'undefined'\n")
	}

	sess2, _, _ := plainSession(t, "")
	sess2.StartupScript = filepath.Join(t.TempDir(), "absent.js")
	if err := (plain{}).Launch(context.Background(), sess2); err != nil {
		t.Errorf("Launch() with a missing startup script error = %v", err)
	}
}

func TestPlainReturnsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess, _, _ := plainSession(t, "1\n2\n3\n")

	if err := (plain{}).Launch(ctx, sess); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
}

func TestDefaultRCFileUsesHome(t *testing.T) {
	home := t.TempDir()
	testutil.SetHomeDir(t, home)

	if got, want := DefaultRCFile(), filepath.Join(home, RCFileName); got != want {
		t.Errorf("DefaultRCFile() = %q, want %q", got, want)
	}
}
