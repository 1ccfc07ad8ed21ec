package main

import (
	"os"

	"github.com/wonny/screener/backend/cmd/screener/commands"
)

// main is the entry point: go run ./cmd/screener [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
