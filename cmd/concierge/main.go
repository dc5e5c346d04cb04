// Package main is the entry point for the concierge CLI and server.
package main

import (
	"os"

	"github.com/cribconcierge/concierge-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
