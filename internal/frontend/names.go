// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shellplus/shellplus/internal/models"
)

var (
	moduleStyle = lipgloss.NewStyle().Bold(true)
	aliasStyle  = lipgloss.NewStyle().Faint(true)
)

// renderScope lists the globals each model module contributed.
func renderScope(scope *models.Scope) string {
	if scope == nil || scope.Len() == 0 {
		return "No model globals.\n"
	}
	var b strings.Builder
	for _, module := range scope.Modules() {
		bindings, _ := scope.Bindings(module)
		fmt.Fprintln(&b, moduleStyle.Render(module))
		for _, binding := range bindings {
			if binding.Name == binding.Export {
				fmt.Fprintf(&b, "  %s\n", binding.Name)
				continue
			}
			fmt.Fprintf(&b, "  %s %s\n", binding.Export, aliasStyle.Render("(as "+binding.Name+")"))
		}
	}
	return b.String()
}
