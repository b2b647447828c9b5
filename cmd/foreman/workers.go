package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebmorris/foreman/internal/worker"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "List the worker roster",
	Long: `Show the workers available for task assignment.

The roster is read from .foreman/workers.yaml in the project; when that
file does not exist the built-in default roster is used. Edit the file to
add specialists or change personas, then run 'foreman workers' to verify.`,
	RunE: runWorkers,
}

func runWorkers(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	workers, err := worker.LoadRoster(cwd)
	if err != nil {
		return err
	}

	for _, w := range workers {
		name := w.Name
		if name == "" {
			name = w.ID
		}
		fmt.Printf("%-20s %-12s %s\n", w.ID, color.CyanString(w.Role), name)
		if w.Persona != "" {
			fmt.Printf("%-20s %s\n", "", color.HiBlackString(truncateLine(w.Persona, 70)))
		}
	}
	return nil
}

func truncateLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
