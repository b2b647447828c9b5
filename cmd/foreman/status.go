package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebmorris/foreman/internal/store"
	"github.com/calebmorris/foreman/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status [workflow-id]",
	Short: "Show workflow state",
	Long: `Display workflows recorded in the project database.

Without arguments, lists all workflows newest first. With a workflow id,
shows that workflow's tasks and progress.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dbPath := store.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No workflows yet. Run 'foreman run <request>' to start.")
		return nil
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if len(args) == 1 {
		return showWorkflow(db, args[0])
	}
	return listWorkflows(db)
}

func listWorkflows(db *store.DB) error {
	workflows, err := db.ListWorkflows()
	if err != nil {
		return fmt.Errorf("list workflows: %w", err)
	}
	if len(workflows) == 0 {
		fmt.Println("No workflows yet. Run 'foreman run <request>' to start.")
		return nil
	}

	for _, wf := range workflows {
		fmt.Printf("%s  %s  %-10s  %s\n",
			shortID(wf.ID),
			wf.CreatedAt.Local().Format("2006-01-02 15:04"),
			statusLabel(wf.Status),
			wf.Title)
	}
	return nil
}

func showWorkflow(db *store.DB, id string) error {
	wf, err := db.GetWorkflow(id)
	if err != nil {
		return fmt.Errorf("get workflow: %w", err)
	}
	if wf == nil {
		// Allow short-id lookup for convenience.
		wf, err = findByShortID(db, id)
		if err != nil {
			return err
		}
	}

	tasks, err := db.ListTasksByWorkflow(wf.ID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	deps, err := db.ListDependenciesByWorkflow(wf.ID)
	if err != nil {
		return fmt.Errorf("list dependencies: %w", err)
	}
	dependsOn := make(map[string][]string)
	for _, d := range deps {
		dependsOn[d.TaskID] = append(dependsOn[d.TaskID], shortID(d.DependsOnTaskID))
	}

	fmt.Printf("workflow %s  %s\n", wf.ID, statusLabel(wf.Status))
	fmt.Printf("title:   %s\n", wf.Title)
	fmt.Printf("created: %s\n", wf.CreatedAt.Local().Format(time.RFC1123))
	if wf.CompletedAt != nil {
		fmt.Printf("ended:   %s\n", wf.CompletedAt.Local().Format(time.RFC1123))
	}

	progress := models.CountProgress(tasks)
	fmt.Printf("tasks:   %d total, %d completed, %d running, %d failed, %d pending\n\n",
		progress.Total, progress.Completed, progress.Running, progress.Failed, progress.Pending)

	for _, task := range tasks {
		fmt.Printf("  %s  %-10s  %s", shortID(task.ID), statusLabel(task.Status), task.Description)
		if after := dependsOn[task.ID]; len(after) > 0 {
			fmt.Printf("  %s", color.HiBlackString("(after %s)", strings.Join(after, ", ")))
		}
		fmt.Println()
		if task.Status == models.TaskStatusFailed && task.Result != "" {
			color.Red("      %s", task.Result)
		}
	}
	return nil
}

func findByShortID(db *store.DB, prefix string) (*models.Workflow, error) {
	workflows, err := db.ListWorkflows()
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	for i := range workflows {
		if len(workflows[i].ID) >= len(prefix) && workflows[i].ID[:len(prefix)] == prefix {
			return &workflows[i], nil
		}
	}
	return nil, fmt.Errorf("workflow %s not found", prefix)
}

func statusLabel[S ~string](status S) string {
	switch string(status) {
	case "completed":
		return color.GreenString(string(status))
	case "failed":
		return color.RedString(string(status))
	case "running":
		return color.YellowString(string(status))
	case "cancelled", "incomplete", "skipped":
		return color.YellowString(string(status))
	default:
		return string(status)
	}
}
