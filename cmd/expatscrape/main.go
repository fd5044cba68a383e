// Package main is the entry point for the expatscrape CLI.
package main

import (
	"os"

	"github.com/jmylchreest/expatscrape/cmd/expatscrape/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
