// Package main provides the entry point for the scout CLI.
package main

import (
	"os"

	"github.com/inkfield/scout/cmd/scout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
