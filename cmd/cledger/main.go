// ABOUTME: Entry point for the cledger CLI.
// ABOUTME: Builds the root Cobra command and exits non-zero on error.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
