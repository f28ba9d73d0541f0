package main

import (
	"os"

	"dyscalc-screening-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
