package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <sequence>",
	Short: "Export a sequence as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart (graph TD) of the messages and edges of one sequence.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := sequencesDir(cmd, nil)
		if err != nil {
			return err
		}
		var overlay *graph.Overlay
		if cmd.Flags().Changed("current") {
			current, _ := cmd.Flags().GetInt("current")
			overlay = &graph.Overlay{Current: &current}
		}
		return cli.PrintGraph(cmdContext(cmd), dir, args[0], overlay, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int("current", 0, "Highlight a message id")
}
