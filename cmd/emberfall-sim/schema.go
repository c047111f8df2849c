package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"emberfall/sim/internal/config"
)

func newSchemaCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Write the JSON schema for trial configuration documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			if err := config.WriteSchema(outPath); err != nil {
				return err
			}
			fmt.Printf("schema written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "path to write the JSON schema")
	return cmd
}
