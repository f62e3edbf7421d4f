// Package main provides the entry point for the depinfer CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Sumatoshi-tech/depinfer/cmd/depinfer/commands"
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
