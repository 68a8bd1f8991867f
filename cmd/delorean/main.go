package main

import (
	"os"

	"github.com/delorean-quant/delorean/cmd/delorean/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
