package main

import (
	"os"

	"github.com/shivaapratim/mini-crm/cmd/minicrm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
