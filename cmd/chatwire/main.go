package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gaborage/chatwire/internal/commands"
)

var version = "dev" // Will be set during build

func main() {
	rootCmd := commands.NewRootCommand(version)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
