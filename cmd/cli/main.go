// Package main is the entry point for the bikedash CLI binary.
package main

import (
	"os"

	cli "bike-dash/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
