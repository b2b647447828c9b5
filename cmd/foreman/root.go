package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "LLM workflow orchestrator",
	Long: `Foreman turns a plain-language request into a workflow of dependent
tasks, assigns each task to a worker from your roster, and runs them
concurrently in dependency order.

Core capabilities:
- Plans a request into 1-8 tasks with an LLM planner
- Schedules tasks by dependency, bounded by a concurrency cap
- Dispatches each task to a role-matched worker
- Grades the finished workflow against the original request`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
