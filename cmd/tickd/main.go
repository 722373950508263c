package main

import (
	"os"

	"github.com/tickd-dev/tickd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
