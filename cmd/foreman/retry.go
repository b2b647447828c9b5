package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/calebmorris/foreman/pkg/models"
)

var retryTaskID string

var retryCmd = &cobra.Command{
	Use:   "retry <workflow-id>",
	Short: "Retry a failed workflow or task",
	Long: `Re-run the failed parts of a workflow.

Without --task, every failed task is reset to pending and the scheduling
loop restarts; completed and skipped tasks are left untouched. With
--task, only that task is forced to run again and the workflow status is
re-derived from the outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func init() {
	retryCmd.Flags().StringVar(&retryTaskID, "task", "", "Retry only this failed task")
}

func runRetry(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	o, st, _, err := buildOrchestrator(cwd)
	if err != nil {
		return err
	}
	defer st.Close()

	workflowID := args[0]

	if retryTaskID != "" {
		result, err := o.RetryTask(context.Background(), workflowID, retryTaskID)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	}

	if err := o.RetryWorkflow(context.Background(), workflowID); err != nil {
		return err
	}
	fmt.Printf("workflow %s restarted\n", shortID(workflowID))

	// The restart is detached; poll until it settles so the process does
	// not exit with the loop mid-flight.
	for {
		result, err := o.GetWorkflowStatus(workflowID)
		if err != nil {
			return err
		}
		if result.Status != models.WorkflowStatusRunning {
			printResult(result)
			return nil
		}
		time.Sleep(time.Second)
	}
}
