package main

import (
	"os"

	"github.com/wonny/showaudit/cmd/showaudit/commands"
)

// main is the entry point of the showaudit CLI
// ⭐ go run ./cmd/showaudit [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
