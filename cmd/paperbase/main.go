package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/paperbase/paperbase/internal/adapters/driving/cli"
)

func main() {
	// Load .env if present; API keys usually live there in development.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
