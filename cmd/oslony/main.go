// Package main is the entry point for the oslony CLI.
package main

import (
	"os"

	"github.com/Simplici0/oslony/cmd/oslony/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
