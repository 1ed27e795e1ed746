// Command libctl is an operator CLI for the library API.
//
// Usage:
//
//	libctl login --email admin@library.com
//	libctl books list --borrowed=false
//	libctl borrow <book-id> --user <user-id>
//	libctl return <book-id>
package main

import (
	"fmt"
	"os"
)

// Version information - set at build time via ldflags
var Version = "dev"

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
