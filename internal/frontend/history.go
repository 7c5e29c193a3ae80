// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const maxHistory = 500

// history is a line history in the same one-entry-per-line file format
// readline uses, so every front-end shares one history file.
type history struct {
	path    string
	entries []string
	added   []string
	// cursor indexes entries while navigating; len(entries) means the
	// fresh line below the newest entry.
	cursor int
}

func loadHistory(path string) *history {
	h := &history{path: path}
	if path != "" {
		if f, err := os.Open(path); err == nil {
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				if line := sc.Text(); line != "" {
					h.entries = append(h.entries, line)
				}
			}
			_ = f.Close()
		}
	}
	if len(h.entries) > maxHistory {
		h.entries = h.entries[len(h.entries)-maxHistory:]
	}
	h.cursor = len(h.entries)
	return h
}

// add records line and resets navigation. Blank lines and repeats of the
// newest entry are not recorded.
func (h *history) add(line string) {
	h.cursor = len(h.entries)
	if strings.TrimSpace(line) == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	h.added = append(h.added, line)
	h.cursor = len(h.entries)
}

// prev moves to the older entry.
func (h *history) prev() (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// next moves to the newer entry; past the newest it returns "".
func (h *history) next() (string, bool) {
	if h.cursor >= len(h.entries)-1 {
		h.cursor = len(h.entries)
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// save appends the lines added in this session to the history file.
func (h *history) save() error {
	if h.path == "" || len(h.added) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range h.added {
		_, _ = w.WriteString(line + "\n")
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	h.added = nil
	return f.Close()
}
