// paiERP – natural-language ERP assistant with TUI and HTTP API.
//
// Entry point: initializes the Cobra root command, which launches the
// Bubble Tea TUI by default.
package main

import (
	"os"

	"github.com/DachengChen/paiERP/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
