// Package main is the entry point for the ecoctl CLI.
package main

import (
	"os"

	"github.com/warp/carbon-engine/cmd/ecoctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
