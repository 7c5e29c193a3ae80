// SPDX-License-Identifier: MPL-2.0

package models

import "strings"

// exclusions is the parsed form of the dont-load list. An entry names
// either a whole module ("app/models") or one export ("app/models.User").
type exclusions struct {
	modules map[string]struct{}
	exports map[string]map[string]struct{}
}

func parseDontLoad(entries []string) exclusions {
	ex := exclusions{
		modules: make(map[string]struct{}),
		exports: make(map[string]map[string]struct{}),
	}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		ex.modules[entry] = struct{}{}

		i := strings.LastIndexByte(entry, '.')
		if i <= 0 || i == len(entry)-1 || strings.Contains(entry[i:], "/") {
			continue
		}
		id, name := entry[:i], entry[i+1:]
		if ex.exports[id] == nil {
			ex.exports[id] = make(map[string]struct{})
		}
		ex.exports[id][name] = struct{}{}
	}
	return ex
}

func (e exclusions) module(id string) bool {
	_, ok := e.modules[id]
	return ok
}

func (e exclusions) export(id, name string) bool {
	_, ok := e.exports[id][name]
	return ok
}
