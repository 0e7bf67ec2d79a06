// Package main provides the opendal-translate binary entry point.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/OpenDaL/ingestion-and-transformation/commands"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, buf[:n])
			os.Exit(2)
		}
	}()

	if err := commands.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
