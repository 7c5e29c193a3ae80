// SPDX-License-Identifier: MPL-2.0

package database

import (
	"fmt"
	"io"
	"strings"
)

// PrintQueries returns an interceptor that writes each statement followed
// by its execution time and connection alias.
func PrintQueries(w io.Writer) Interceptor {
	return func(ev QueryEvent) {
		fmt.Fprintln(w, strings.TrimSpace(ev.SQL))
		if len(ev.Args) > 0 {
			fmt.Fprintf(w, "Args: %v\n", ev.Args)
		}
		fmt.Fprintf(w, "Execution time: %.6fs [Database: %s]\n", ev.Duration.Seconds(), ev.Alias)
	}
}
