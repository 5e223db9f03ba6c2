package main

import (
	"os"

	"github.com/t03i/jdime/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(2)
	}
}
