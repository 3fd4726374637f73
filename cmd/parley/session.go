package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage visit counters and the daily task",
	Long:  `Runs session initialization and the explicit task transitions against the configured store.`,
}

var sessionInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Record a visit and print the derived session facts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		facts, err := app.Engine.InitializeSession(cmdContext(cmd))
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(facts, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionAssignCmd = &cobra.Command{
	Use:   "assign <task>",
	Short: "Assign today's task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Engine.Session().AssignTask(cmdContext(cmd), args[0])
	},
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark the current task as completed",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Engine.Session().CompleteTask(cmdContext(cmd))
	},
}

var sessionFailCmd = &cobra.Command{
	Use:   "fail",
	Short: "Mark the current task as failed",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Engine.Session().FailTask(cmdContext(cmd))
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset-end",
	Short: "Clear the end-of-conversation flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Engine.Session().ClearEndState(cmdContext(cmd))
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionInitCmd, sessionAssignCmd, sessionCompleteCmd, sessionFailCmd, sessionResetCmd)
}
