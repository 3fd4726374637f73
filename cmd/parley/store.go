package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and edit the user store",
	Long:  `Reads and writes the key/value store configured for the engine (memory, file, redis or sqlite).`,
}

var storeLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every stored path",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.PrintStore(cmdContext(cmd), app.Store, cmd.OutOrStdout())
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print the value at a path as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.GetValue(cmdContext(cmd), app.Store, args[0], cmd.OutOrStdout())
	},
}

var storeSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Store a value (parsed as JSON when possible)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.SetValue(cmdContext(cmd), app.Store, args[0], args[1])
	},
}

var storeRmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Remove one or more paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var failed bool
		for _, path := range args {
			if err := app.Store.Delete(cmdContext(cmd), path); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", path, err)
				failed = true
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed '%s'\n", path)
		}
		if failed {
			return fmt.Errorf("some paths could not be removed")
		}
		return nil
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored path",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Store.Clear(cmdContext(cmd))
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeLsCmd, storeGetCmd, storeSetCmd, storeRmCmd, storeClearCmd)
}
