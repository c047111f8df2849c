package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emberfall-sim",
		Short: "Deterministic auto-battler simulation core and balance sweep driver",
	}
	rootCmd.AddCommand(newSweepCmd(), newSpectateCmd(), newSchemaCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
