package main

import (
	"fmt"
	"os"

	"github.com/synapsbranch/synapse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
