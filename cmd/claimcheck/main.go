package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"claimcheck/internal/cli"
)

func main() {
	// Load a local .env if present; real environment wins over the file
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
