package main

import (
	"os"

	"github.com/chrismannina/exif-inspector/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
