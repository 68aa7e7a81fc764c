package main

import (
	"os"

	"github.com/meenmo/bondrisk/cmd/bondrisk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
