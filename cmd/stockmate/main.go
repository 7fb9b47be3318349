package main

import (
	"os"

	"github.com/Howie-Waves/StockMate/cmd/stockmate/commands"
)

// main is the entry point for the StockMate CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/stockmate [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
