// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shellplus/shellplus/internal/issue"
	"github.com/shellplus/shellplus/internal/namespace"
)

// RCFileName is the per-user script run after the startup script.
const RCFileName = ".shellplusrc.js"

// DefaultRCFile returns ~/.shellplusrc.js, or "" when there is no home
// directory.
func DefaultRCFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, RCFileName)
}

// runStartup executes the session's startup script and rc file, in that
// order, in the session namespace. Missing files are skipped. A script
// that fails only because it references an undefined name is logged and
// skipped; any other failure is returned.
func runStartup(ctx context.Context, sess *Session) error {
	if sess.NoStartup {
		return nil
	}
	logger := sess.logger()
	for _, path := range []string{sess.StartupScript, sess.RCFile} {
		if path == "" {
			continue
		}
		src, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("startup script not found", "path", path)
			continue
		}
		if err != nil {
			return startupError(path, err)
		}

		err = sess.Namespace.RunScript(ctx, path, string(src))
		switch {
		case err == nil:
			logger.Debug("startup script executed", "path", path)
		case namespace.IsMissingReference(err):
			logger.Warn("startup script references an undefined name", "path", path, "err", err)
		default:
			return startupError(path, err)
		}
	}
	return nil
}

func startupError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("run startup script").
		WithResource(path).
		WithSuggestions(
			"Fix the script, or start with --no-startup-script",
		).
		WithIssue(issue.StartupScriptFailedId).
		Wrap(err).
		BuildError()
}
