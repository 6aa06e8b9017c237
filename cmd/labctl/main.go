// Package main provides the labctl command line tool for a medlab store.
package main

import (
	"fmt"
	"os"

	"github.com/zatekoja/medlab/cmd/labctl/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
