package main

import (
	"os"

	"github.com/fintrack/fintrack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
