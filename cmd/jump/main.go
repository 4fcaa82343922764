// Package main is the entry point for the jump CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/jump/cmd/jump/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
