// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/shellplus/shellplus/cmd/shellplus"

func main() {
	cmd.Execute()
}
