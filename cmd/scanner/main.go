package main

import (
	"os"

	"github.com/wz-hub/a-stock-scanner/cmd/scanner/commands"
)

// main is the entry point for the scanner CLI
// ⭐ go run ./cmd/scanner [command]
func main() {
	os.Exit(commands.ExitCode(commands.Execute()))
}
