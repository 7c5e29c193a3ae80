// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"slices"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"github.com/shellplus/shellplus/internal/namespace"
)

// completer completes global names and dotted property paths against the
// live namespace. It implements readline.AutoCompleter.
type completer struct {
	ns *namespace.Namespace
}

// Do implements readline.AutoCompleter.
func (c completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	word := wordBefore(line[:pos])
	var suffixes [][]rune
	for _, cand := range candidates(c.ns, word) {
		suffixes = append(suffixes, []rune(cand[len(word):]))
	}
	return suffixes, len([]rune(word))
}

// wordBefore returns the identifier path ending at the cursor.
func wordBefore(line []rune) string {
	start := len(line)
	for start > 0 && isPathRune(line[start-1]) {
		start--
	}
	return string(line[start:])
}

func isPathRune(r rune) bool {
	return r == '_' || r == '$' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// candidates returns the completions of word, sorted. A word with a dot
// completes the properties of the object named before the last dot.
func candidates(ns *namespace.Namespace, word string) []string {
	dot := strings.LastIndexByte(word, '.')
	if dot < 0 {
		return withPrefix(ns.Globals(), word, "")
	}

	base, partial := word[:dot], word[dot+1:]
	var keys []string
	err := ns.Do(func(vm *goja.Runtime) error {
		keys = propertyKeys(vm, base)
		return nil
	})
	if err != nil {
		// A getter on the path threw.
		return nil
	}
	return withPrefix(keys, partial, base+".")
}

// propertyKeys walks a dotted path from the global object without
// evaluating anything but property reads.
func propertyKeys(vm *goja.Runtime, path string) []string {
	obj := vm.GlobalObject()
	for part := range strings.SplitSeq(path, ".") {
		if part == "" {
			return nil
		}
		v := obj.Get(part)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			return nil
		}
		next, ok := v.(*goja.Object)
		if !ok {
			return nil
		}
		obj = next
	}
	return obj.Keys()
}

func withPrefix(names []string, prefix, lead string) []string {
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, lead+name)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
