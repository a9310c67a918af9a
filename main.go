package main

import (
	"os"

	"github.com/abhisek/gilbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
