package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/calebmorris/foreman/internal/control"
	"github.com/calebmorris/foreman/internal/store"
	"github.com/calebmorris/foreman/pkg/models"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <workflow-id>",
	Short: "Cancel a running workflow",
	Long: `Request cooperative cancellation of a workflow.

The signal is written to .foreman/signals so a foreman process looping in
another terminal picks it up at its next tick. A task already dispatched
to a worker finishes on its own schedule; no new tasks start afterwards.

If the workflow is not currently running, its status is set to cancelled
directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	db, err := store.OpenProject(cwd)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	wf, err := db.GetWorkflow(args[0])
	if err != nil {
		return fmt.Errorf("get workflow: %w", err)
	}
	if wf == nil {
		wf, err = findByShortID(db, args[0])
		if err != nil {
			return err
		}
	}

	if wf.Status.Terminal() {
		return fmt.Errorf("workflow %s already %s", shortID(wf.ID), wf.Status)
	}

	signals, err := control.NewSignalManager(cwd)
	if err != nil {
		return fmt.Errorf("open signals: %w", err)
	}
	defer signals.Close()

	if err := signals.SendCancel(wf.ID); err != nil {
		return fmt.Errorf("send cancel signal: %w", err)
	}

	// A workflow that is not looping anywhere will never observe the
	// signal, so persist the status directly.
	if wf.Status != models.WorkflowStatusRunning {
		now := time.Now().UTC()
		wf.Status = models.WorkflowStatusCancelled
		wf.CompletedAt = &now
		if err := db.UpdateWorkflow(wf); err != nil {
			return fmt.Errorf("persist cancellation: %w", err)
		}
	}

	fmt.Printf("cancellation requested for workflow %s\n", shortID(wf.ID))
	return nil
}
