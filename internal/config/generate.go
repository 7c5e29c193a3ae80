// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateCUE renders cfg as a CUE document accepted by the #Config schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// shellplus configuration\n\n")
	if cfg.ProjectRoot != "" {
		fmt.Fprintf(&sb, "project_root: %s\n\n", strconv.Quote(cfg.ProjectRoot))
	}

	sb.WriteString("autoreload: {\n")
	fmt.Fprintf(&sb, "\tenabled:    %t\n", cfg.Autoreload.Enabled)
	fmt.Fprintf(&sb, "\tdebounce:   %s\n", strconv.Quote(cfg.Autoreload.Debounce.String()))
	fmt.Fprintf(&sb, "\textensions: %s\n", cueList(cfg.Autoreload.Extensions))
	sb.WriteString("}\n\n")

	sb.WriteString("models: {\n")
	fmt.Fprintf(&sb, "\tpatterns:  %s\n", cueList(cfg.Models.Patterns))
	fmt.Fprintf(&sb, "\tignore:    %s\n", cueList(cfg.Models.Ignore))
	fmt.Fprintf(&sb, "\tdont_load: %s\n", cueList(cfg.Models.DontLoad))
	sb.WriteString("}\n\n")

	sb.WriteString("shell: {\n")
	fmt.Fprintf(&sb, "\tdefault:        %s\n", strconv.Quote(cfg.Shell.Default))
	fmt.Fprintf(&sb, "\tstartup_script: %s\n", strconv.Quote(cfg.Shell.StartupScript))
	fmt.Fprintf(&sb, "\thistory_file:   %s\n", strconv.Quote(cfg.Shell.HistoryFile))
	fmt.Fprintf(&sb, "\tquiet_load:     %t\n", cfg.Shell.QuietLoad)
	sb.WriteString("}\n\n")

	sb.WriteString("notebook: {\n")
	fmt.Fprintf(&sb, "\taddress: %s\n", strconv.Quote(cfg.Notebook.Address))
	sb.WriteString("}\n\n")

	sb.WriteString("database: {\n")
	fmt.Fprintf(&sb, "\tdriver:    %s\n", strconv.Quote(cfg.Database.Driver))
	fmt.Fprintf(&sb, "\tdsn:       %s\n", strconv.Quote(cfg.Database.DSN))
	fmt.Fprintf(&sb, "\talias:     %s\n", strconv.Quote(cfg.Database.Alias))
	fmt.Fprintf(&sb, "\tprint_sql: %t\n", cfg.Database.PrintSQL)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
