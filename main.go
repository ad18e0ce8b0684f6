package main

import (
	"os"

	"github.com/igor04091968/tunnel-panel/cmd"
)

func main() {
	if err := cmd.NewCmdPanel().Execute(); err != nil {
		os.Exit(1)
	}
}
