package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebmorris/foreman/internal/api"
	"github.com/calebmorris/foreman/internal/config"
	"github.com/calebmorris/foreman/internal/control"
	"github.com/calebmorris/foreman/internal/orchestrator"
	"github.com/calebmorris/foreman/internal/planner"
	"github.com/calebmorris/foreman/internal/quality"
	"github.com/calebmorris/foreman/internal/store"
	"github.com/calebmorris/foreman/internal/tui"
	"github.com/calebmorris/foreman/internal/worker"
	"github.com/calebmorris/foreman/pkg/models"
)

var (
	runFollow    bool
	runEphemeral bool
	runNoQuality bool
	runCreatedBy string
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Plan and execute a workflow for a request",
	Long: `Plan a request into tasks and execute them with your worker roster.

The request is decomposed by the planner into up to 8 tasks with
dependencies, each assigned to the best-matching worker by role. Tasks run
concurrently in dependency order, bounded by the configured cap.

Examples:
  foreman run "research competitors and write a summary"
  foreman run --follow "draft the quarterly report"
  foreman run --ephemeral "quick one-off request"   # no database writes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().BoolVar(&runFollow, "follow", false, "Show live progress in the terminal")
	runCmd.Flags().BoolVar(&runEphemeral, "ephemeral", false, "Keep state in memory only (no database writes)")
	runCmd.Flags().BoolVar(&runNoQuality, "no-quality", false, "Skip the final quality check")
	runCmd.Flags().StringVar(&runCreatedBy, "created-by", "", "Record who submitted the request")
}

// buildOrchestrator wires the collaborators from configuration. The caller
// owns closing the returned store.
func buildOrchestrator(cwd string) (*orchestrator.Orchestrator, store.Store, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	var st store.Store
	if runEphemeral {
		st = store.NewMemoryStore()
	} else {
		db, err := store.OpenProject(cwd)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		st = db
	}

	var evaluator orchestrator.Evaluator
	if cfg.Orchestrator.QualityGate && !runNoQuality {
		evaluator = quality.New(client)
	}

	o := orchestrator.New(orchestrator.Config{
		Store:              st,
		Planner:            planner.New(client),
		Executor:           worker.NewExecutor(client),
		Workers:            worker.DirSource{Dir: cwd},
		Evaluator:          evaluator,
		Usage:              client.Tracker(),
		MaxConcurrentTasks: cfg.Orchestrator.MaxConcurrentTasks,
		TaskTimeout:        cfg.Orchestrator.TaskTimeout,
		Logger:             orchestrator.NewDebugLoggerForProject(cwd),
	})
	return o, st, client, nil
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	o, st, _, err := buildOrchestrator(cwd)
	if err != nil {
		return err
	}
	defer st.Close()

	// Bridge file-based cancel signals from other processes into the
	// orchestrator's registry.
	signals, err := control.NewSignalManager(cwd)
	if err == nil {
		defer signals.Close()
		go func() {
			for workflowID := range signals.Cancels() {
				if cerr := o.CancelWorkflow(workflowID); cerr != nil {
					fmt.Fprintf(os.Stderr, "cancel %s: %v\n", workflowID, cerr)
				}
			}
		}()
	}

	if runFollow {
		return runWithFollowView(o, request)
	}
	return runPlain(o, request)
}

// runPlain executes the workflow and prints the result line by line.
func runPlain(o *orchestrator.Orchestrator, request string) error {
	// Drain events into simple progress lines.
	go func() {
		for ev := range o.Events() {
			switch ev.Type {
			case orchestrator.EventTaskStarted:
				fmt.Printf("  → %s\n", ev.Message)
			case orchestrator.EventTaskCompleted:
				color.Green("  ✓ task %s", shortID(ev.TaskID))
			case orchestrator.EventTaskFailed:
				color.Red("  ✗ task %s: %v", shortID(ev.TaskID), ev.Error)
			}
		}
	}()

	result, err := o.ExecuteWorkflow(context.Background(), request, runCreatedBy)
	o.Close()
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

// runWithFollowView executes the workflow behind the live terminal view.
func runWithFollowView(o *orchestrator.Orchestrator, request string) error {
	type outcome struct {
		result *models.WorkflowResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := o.ExecuteWorkflow(context.Background(), request, runCreatedBy)
		o.Close()
		done <- outcome{result, err}
	}()

	if err := tui.Run(request, o.Events()); err != nil {
		return err
	}

	out := <-done
	if out.err != nil {
		return out.err
	}
	printResult(out.result)
	return nil
}

func printResult(result *models.WorkflowResult) {
	fmt.Println()
	switch result.Status {
	case models.WorkflowStatusCompleted:
		color.Green("workflow completed")
	case models.WorkflowStatusFailed:
		color.Red("workflow failed")
	case models.WorkflowStatusCancelled:
		color.Yellow("workflow cancelled")
	default:
		color.Yellow("workflow %s", result.Status)
	}
	fmt.Println(result.Summary)

	if result.QualityCheck != nil {
		qc := result.QualityCheck
		verdict := "passed"
		if !qc.Passed {
			verdict = "failed"
		}
		fmt.Printf("quality check %s (score %d): %s\n", verdict, qc.Score, qc.Feedback)
		for _, s := range qc.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}

	for _, task := range result.Tasks {
		if task.Status == models.TaskStatusCompleted && task.Result != "" {
			fmt.Printf("\n## %s\n%s\n", task.Description, task.Result)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
