package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Task planner API server",
	Long: `planner serves the task planner HTTP API: calendar-window task lists,
task mutations with per-day duplicate protection, sign-in with email or Google,
and pushing tasks to Google Calendar.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())

	// Running without a subcommand starts the server.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
