// Package main implements the bfc CLI, which compiles Befunge-93 programs
// into optimized control flow graphs.
package main

import (
	"os"

	"github.com/l3aro/go-befunge-cfg/cmd/bfc/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`bfc version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
