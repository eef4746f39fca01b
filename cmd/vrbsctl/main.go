// Command vrbsctl inspects the CultureIndex contract and exercises the frame's
// vote encoding and image pipeline from the shell.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
