package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check every sequence for consistency",
	Long:  `Decodes every sequence in the directory and reports fatal errors and dangling edges.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := sequencesDir(cmd, args)
		if err != nil {
			return err
		}
		valid, err := cli.ValidateDir(cmdContext(cmd), dir, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("validation failed:\n%w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d sequences are valid! ✅\n", valid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
