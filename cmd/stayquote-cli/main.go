package main

import (
	"os"

	"stayquote/cmd/stayquote-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
