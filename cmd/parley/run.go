package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [sequence]",
	Short: "Play a conversation in the terminal",
	Long:  `Starts the engine in interactive mode. Without a sequence id, "start", "main" or "welcome" is used.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Dir, _ = cmd.Flags().GetString("dir")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.Instant, _ = cmd.Flags().GetBool("instant")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		if len(args) > 0 {
			opts.Sequence = args[0]
		}
		return cli.RunSession(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no prompts, no delays)")
	runCmd.Flags().Bool("instant", false, "Skip typing delays")
	runCmd.Flags().BoolP("watch", "w", false, "Reload sequences when their files change")
	runCmd.Flags().Bool("fresh", false, "Clear the store before starting")
}
