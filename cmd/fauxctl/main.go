// Package main is the entry point for the fauxctl client.
package main

import (
	"errors"
	"os"

	"fauxterm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exitErr *cli.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
