// Command beefcake is the CLI entry point; see cmd.Execute for the command tree.
package main

import "github.com/beefcake-data/beefcake/cmd"

func main() {
	cmd.Execute()
}
