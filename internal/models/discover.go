// SPDX-License-Identifier: MPL-2.0

package models

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/shellplus/shellplus/internal/watch"
)

// DefaultPatterns select the files treated as model modules.
var DefaultPatterns = []string{"**/*.js"}

// Module is a discovered model module.
type Module struct {
	ID   string
	Path string
}

// Discover walks root and returns the modules matching patterns and not
// matching ignore or the watcher's default ignores, ordered by path.
func Discover(root string, patterns, ignore []string) ([]Module, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range append(append([]string{}, patterns...), ignore...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("models: invalid pattern %q", p)
		}
	}
	ignores := append(watch.DefaultIgnores(), ignore...)

	var modules []Module
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil //nolint:nilerr // unreadable subtrees are skipped
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil //nolint:nilerr // root itself
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matchAny(ignores, rel) || matchAny(ignores, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(ignores, rel) || !matchAny(patterns, rel) {
			return nil
		}

		id, idErr := moduleID(root, path)
		if idErr != nil {
			return nil //nolint:nilerr // cannot happen under root
		}
		modules = append(modules, Module{ID: id, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("models: discover %s: %w", root, err)
	}
	return modules, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
