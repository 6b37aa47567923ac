// Package main provides the CLI entry point for the lead scoring pipeline utilities.
// Commands:
// 1. paths - show the pipeline database and data file locations
// 2. map   - load the interaction mapping CSV into the pipeline database
// 3. load  - load a raw lead data CSV into a table with detected column types
// 4. query - run read-only SQL against the pipeline database
package main

import (
	"fmt"
	"os"

	"lead-scoring-pipeline/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
