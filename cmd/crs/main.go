package main

import (
	"fmt"
	"os"

	"github.com/barysiuk/crs/cmd/crs/cmd"
	"github.com/barysiuk/crs/internal/core"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if fe, ok := core.IsFetchError(err); ok {
			for _, hint := range fe.Hints {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
			}
		}
		os.Exit(1)
	}
}
