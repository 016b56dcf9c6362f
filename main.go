// Package main is the entry point for the kestrel traffic monitor.
package main

import (
	"fmt"
	"os"

	"github.com/kestrel-net/kestrel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
