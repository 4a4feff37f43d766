package main

import (
	"errors"
	"fmt"
	"os"

	"MarketWatch/internal/domain/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "marketwatch:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration problems and 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, models.ErrConfig) {
		return 2
	}
	return 1
}
