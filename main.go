package main

import (
	"os"

	"github.com/protean-io/protean/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
