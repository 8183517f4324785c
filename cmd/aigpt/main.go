package main

import (
	"os"

	"github.com/syui/aigpt/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
