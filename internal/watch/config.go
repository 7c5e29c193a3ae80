// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the root directory to watch. It must exist and be a
		// directory.
		BaseDir string

		// Recursive extends the watch to every non-ignored subdirectory,
		// including ones created after startup.
		Recursive bool

		// Extensions, when non-empty, restrict events to files with one of
		// these extensions (".js"). Matching is case-sensitive.
		Extensions []string

		// Patterns are doublestar glob patterns relative to BaseDir that
		// select which paths produce events. Empty selects all paths.
		Patterns []string

		// Ignore are additional doublestar patterns merged with the default
		// ignores.
		Ignore []string

		// Debounce is the coalescing window. Zero or negative values fall
		// back to DefaultDebounce.
		Debounce time.Duration

		// OnEvent receives each coalesced event. Errors are logged.
		OnEvent func(ctx context.Context, ev Event) error

		// Logger receives diagnostics. nil discards them.
		Logger *log.Logger
	}

	// InvalidWatchConfigError is returned when Config.Validate finds invalid
	// fields. It wraps ErrInvalidWatchConfig for errors.Is() compatibility.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("invalid watch config (%d field error(s)): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// Validate checks the syntactic validity of the configuration. It does not
// touch the filesystem; New checks that BaseDir exists.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.BaseDir) == "" {
		errs = append(errs, errors.New("base directory is empty"))
	}
	for i, p := range c.Patterns {
		if err := validatePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("patterns[%d]: %w", i, err))
		}
	}
	for i, p := range c.Ignore {
		if err := validatePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("ignore[%d]: %w", i, err))
		}
	}
	for i, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("extensions[%d]: %q must start with a dot", i, ext))
		}
	}

	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

func validatePattern(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("pattern is empty")
	}
	if !doublestar.ValidatePattern(p) {
		return fmt.Errorf("invalid glob pattern %q", p)
	}
	return nil
}
