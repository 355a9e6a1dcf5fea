// Package main is the entry point for the xtreamctl application.
package main

import (
	"os"

	"github.com/xtreamctl/xtreamctl/cmd/xtreamctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
