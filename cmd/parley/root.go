package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley plays scripted conversations",
	Long:  `Parley runs branching bot conversations authored as JSON or YAML sequences.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./parley.yaml when present)")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the sequences (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// openApp loads the configuration and builds the engine for store and session commands.
func openApp(cmd *cobra.Command) (*cli.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	dir, _ := cmd.Flags().GetString("dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.Sequences.Dir = dir
	}
	return cli.NewApp(cmdContext(cmd), cfg, cli.CreateLogger(cfg, debug))
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// sequencesDir resolves --dir, then the config, then the first positional argument.
func sequencesDir(cmd *cobra.Command, args []string) (string, error) {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir, nil
	}
	if len(args) > 0 {
		return args[0], nil
	}
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		return "", err
	}
	return cfg.Sequences.Dir, nil
}
