// Command cratestack packs cuboid items into a container and trains the
// placement policy used to advise the packer.
//
// Build:
//
//	go build -o cratestack ./cmd/cratestack
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
