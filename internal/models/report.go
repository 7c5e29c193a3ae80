// SPDX-License-Identifier: MPL-2.0

package models

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	reportModuleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	reportNameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	reportAliasStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

type reportLine struct {
	module   string
	bindings []Binding
}

// printReport writes one line per imported module:
//
//	From 'app/models' autoload: User, Group (as models_Group)
func printReport(w io.Writer, lines []reportLine) {
	for _, line := range lines {
		if len(line.bindings) == 0 {
			continue
		}
		names := make([]string, len(line.bindings))
		for i, b := range line.bindings {
			names[i] = reportNameStyle.Render(b.Export)
			if b.Name != b.Export {
				names[i] += " " + reportAliasStyle.Render("(as "+b.Name+")")
			}
		}
		fmt.Fprintf(w, "From %s autoload: %s\n",
			reportModuleStyle.Render("'"+line.module+"'"), strings.Join(names, ", "))
	}
}
