// SPDX-License-Identifier: MPL-2.0

package main

import "autodoc-cli/cmd/autodoc"

func main() {
	cmd.Execute()
}
