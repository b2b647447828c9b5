package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebmorris/foreman/internal/scheduler"
	"github.com/calebmorris/foreman/internal/store"
	"github.com/calebmorris/foreman/pkg/models"
)

// ErrNoWorkers is returned when a workflow is requested but the roster is
// empty. It is raised before any persistence happens.
var ErrNoWorkers = errors.New("no workers available")

// Planner produces a validated task plan for a request.
type Planner interface {
	PlanTasks(ctx context.Context, request string, workers []models.Worker) (*models.TaskPlan, error)
}

// Executor runs one task on an assigned worker and returns its text result.
type Executor interface {
	ExecuteTask(ctx context.Context, wk models.Worker, task models.WorkflowTask, depResults []string) (string, error)
}

// Evaluator grades a finished workflow against the original request.
type Evaluator interface {
	CheckWorkflowResult(ctx context.Context, request string, tasks []models.WorkflowTask) (*models.QualityCheckResult, error)
}

// TaskEvaluator grades a single task result. Evaluators may optionally
// implement it to get per-task verdicts after a forced retry.
type TaskEvaluator interface {
	CheckTaskResult(ctx context.Context, request, taskDescription, result string) (*models.QualityCheckResult, error)
}

// WorkerSource provides the current worker roster.
type WorkerSource interface {
	ListWorkers() ([]models.Worker, error)
}

// UsageReporter exposes token accounting for the run summary.
type UsageReporter interface {
	Total() (input, output int64)
	Cost() float64
}

// Config contains the collaborators and tuning knobs for an Orchestrator.
type Config struct {
	// Store is the persistence backend. Required.
	Store store.Store
	// Planner decomposes requests into task plans. Required.
	Planner Planner
	// Executor dispatches tasks to workers. Required.
	Executor Executor
	// Workers provides the roster. Required.
	Workers WorkerSource
	// Evaluator grades completed workflows. Nil disables the quality gate.
	Evaluator Evaluator
	// Usage, when set, adds token accounting to the result summary.
	Usage UsageReporter
	// MaxConcurrentTasks bounds each dispatch wave. Defaults to 3.
	MaxConcurrentTasks int
	// TaskTimeout is the wall-clock deadline for one workflow run.
	// Defaults to 5 minutes.
	TaskTimeout time.Duration
	// EventBuffer sizes the event channel. Defaults to 100.
	EventBuffer int
	// Logger receives debug output. Defaults to a no-op logger.
	Logger *DebugLogger
}

// Orchestrator coordinates planning, scheduling, and execution of
// workflows.
type Orchestrator struct {
	store     store.Store
	planner   Planner
	executor  Executor
	workers   WorkerSource
	evaluator Evaluator
	usage     UsageReporter

	maxConcurrent int
	taskTimeout   time.Duration

	emitter  *EventEmitter
	registry *cancelRegistry
	logger   *DebugLogger
}

// New creates an Orchestrator from the given configuration.
func New(cfg Config) *Orchestrator {
	maxConcurrent := cfg.MaxConcurrentTasks
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}
	setPackageLogger(logger)

	return &Orchestrator{
		store:         cfg.Store,
		planner:       cfg.Planner,
		executor:      cfg.Executor,
		workers:       cfg.Workers,
		evaluator:     cfg.Evaluator,
		usage:         cfg.Usage,
		maxConcurrent: maxConcurrent,
		taskTimeout:   timeout,
		emitter:       NewEventEmitter(buffer),
		registry:      newCancelRegistry(),
		logger:        logger,
	}
}

// Events returns the stream of lifecycle events for subscribers.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// Close releases the event channel. Call once no workflow is running.
func (o *Orchestrator) Close() {
	o.emitter.Close()
}

// ExecuteWorkflow plans, persists, and runs a workflow for the request,
// blocking until it reaches a terminal state.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, request, createdBy string) (*models.WorkflowResult, error) {
	roster, err := o.workers.ListWorkers()
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	if len(roster) == 0 {
		return nil, ErrNoWorkers
	}

	plan, err := o.planner.PlanTasks(ctx, request, roster)
	if err != nil {
		return nil, err
	}

	wf, err := o.persistPlan(plan, request, createdBy, roster)
	if err != nil {
		return nil, err
	}
	o.emit(Event{Type: EventWorkflowCreated, WorkflowID: wf.ID, Message: wf.Title})

	return o.runWorkflow(ctx, wf, roster)
}

// persistPlan writes the workflow, its tasks, and its dependency edges.
// Tasks are assigned workers at creation time; a task with no suitable
// worker is persisted unassigned and will be skipped at dispatch.
func (o *Orchestrator) persistPlan(plan *models.TaskPlan, request, createdBy string, roster []models.Worker) (*models.Workflow, error) {
	now := time.Now().UTC()
	wf := &models.Workflow{
		ID:          uuid.New().String(),
		Title:       plan.Title,
		Description: request,
		Status:      models.WorkflowStatusRunning,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
	if err := o.store.CreateWorkflow(wf); err != nil {
		return nil, fmt.Errorf("persist workflow: %w", err)
	}

	taskIDs := make([]string, len(plan.Tasks))
	for i, planned := range plan.Tasks {
		task := &models.WorkflowTask{
			ID:            uuid.New().String(),
			WorkflowID:    wf.ID,
			WorkerID:      scheduler.AssignWorker(planned.SuggestedRole, roster),
			Description:   planned.Description,
			Status:        models.TaskStatusPending,
			Priority:      planned.Priority,
			SuggestedRole: planned.SuggestedRole,
			OrderIndex:    i,
			CreatedAt:     now,
		}
		if err := o.store.CreateTask(task); err != nil {
			return nil, fmt.Errorf("persist task %d: %w", i, err)
		}
		taskIDs[i] = task.ID
	}

	for i, planned := range plan.Tasks {
		for _, depIdx := range planned.DependsOn {
			dep := &models.TaskDependency{
				ID:              uuid.New().String(),
				WorkflowID:      wf.ID,
				TaskID:          taskIDs[i],
				DependsOnTaskID: taskIDs[depIdx],
			}
			if err := o.store.CreateDependency(dep); err != nil {
				return nil, fmt.Errorf("persist dependency: %w", err)
			}
		}
	}

	return wf, nil
}

// runWorkflow registers a cancellation token, runs the scheduling loop, and
// finalizes the workflow.
func (o *Orchestrator) runWorkflow(ctx context.Context, wf *models.Workflow, roster []models.Worker) (*models.WorkflowResult, error) {
	o.registry.register(wf.ID)
	defer o.registry.clear(wf.ID)

	o.emit(Event{Type: EventWorkflowStarted, WorkflowID: wf.ID})
	o.logger.Log("workflow %s started: %s", wf.ID, wf.Title)

	cancelled := o.runLoop(ctx, wf.ID, roster)
	return o.finalize(ctx, wf.ID, cancelled)
}

// CancelWorkflow requests cooperative cancellation of a running workflow.
// The branch is on whether a scheduling loop is registered here, not on the
// stored status: a workflow left running by a dead process has no loop to
// observe a cancel flag, so it is persisted as cancelled directly.
func (o *Orchestrator) CancelWorkflow(workflowID string) error {
	wf, err := o.store.GetWorkflow(workflowID)
	if err != nil {
		return fmt.Errorf("get workflow: %w", err)
	}
	if wf == nil {
		return fmt.Errorf("workflow %s not found", workflowID)
	}

	if wf.Status.Terminal() {
		return fmt.Errorf("workflow %s already %s", workflowID, wf.Status)
	}

	if o.registry.isActive(workflowID) {
		o.registry.requestCancel(workflowID)
		o.logger.Log("workflow %s cancellation requested", workflowID)
		return nil
	}

	// Flag the registry as well: a loop that is between persisting the plan
	// and registering itself still observes the cancel at its first tick.
	o.registry.requestCancel(workflowID)

	now := time.Now().UTC()
	wf.Status = models.WorkflowStatusCancelled
	wf.CompletedAt = &now
	if err := o.store.UpdateWorkflow(wf); err != nil {
		return fmt.Errorf("persist cancellation: %w", err)
	}
	o.emit(Event{Type: EventWorkflowCancelled, WorkflowID: workflowID})
	return nil
}

// RetryWorkflow resets a failed workflow's failed tasks to pending and
// restarts the scheduling loop in the background. Errors from the detached
// run are logged, not returned.
func (o *Orchestrator) RetryWorkflow(ctx context.Context, workflowID string) error {
	wf, err := o.store.GetWorkflow(workflowID)
	if err != nil {
		return fmt.Errorf("get workflow: %w", err)
	}
	if wf == nil {
		return fmt.Errorf("workflow %s not found", workflowID)
	}
	if wf.Status != models.WorkflowStatusFailed {
		return fmt.Errorf("workflow %s is %s, only failed workflows can be retried", workflowID, wf.Status)
	}

	tasks, err := o.store.ListTasksByWorkflow(workflowID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	for _, t := range tasks {
		if t.Status != models.TaskStatusFailed {
			continue
		}
		t.Status = models.TaskStatusPending
		t.Result = ""
		t.CompletedAt = nil
		if err := o.store.UpdateTask(&t); err != nil {
			return fmt.Errorf("reset task %s: %w", t.ID, err)
		}
	}

	wf.Status = models.WorkflowStatusRunning
	wf.CompletedAt = nil
	if err := o.store.UpdateWorkflow(wf); err != nil {
		return fmt.Errorf("restart workflow: %w", err)
	}

	roster, err := o.workers.ListWorkers()
	if err != nil {
		return fmt.Errorf("list workers: %w", err)
	}

	go func() {
		if _, err := o.runWorkflow(context.WithoutCancel(ctx), wf, roster); err != nil {
			o.logger.Log("workflow %s retry run failed: %v", workflowID, err)
		}
	}()

	return nil
}

// RetryTask forces a single failed task to run again, bypassing the
// readiness check, then re-derives the workflow's status from the updated
// task set.
func (o *Orchestrator) RetryTask(ctx context.Context, workflowID, taskID string) (*models.WorkflowResult, error) {
	task, err := o.store.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil || task.WorkflowID != workflowID {
		return nil, fmt.Errorf("task %s not found in workflow %s", taskID, workflowID)
	}
	if task.Status != models.TaskStatusFailed {
		return nil, fmt.Errorf("task %s is %s, only failed tasks can be retried", taskID, task.Status)
	}

	task.Status = models.TaskStatusPending
	task.Result = ""
	task.CompletedAt = nil
	if err := o.store.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("reset task: %w", err)
	}

	roster, err := o.workers.ListWorkers()
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}

	o.executeTask(ctx, *task, roster)

	if err := o.rederiveStatus(workflowID); err != nil {
		return nil, err
	}
	result, err := o.GetWorkflowStatus(workflowID)
	if err != nil {
		return nil, err
	}

	// Grade the retried task on its own when the evaluator supports it.
	// Grading failures never undo a successful retry.
	if tg, ok := o.evaluator.(TaskEvaluator); ok {
		if done, gerr := o.store.GetTask(taskID); gerr == nil && done != nil && done.Status == models.TaskStatusCompleted {
			wf, gerr := o.store.GetWorkflow(workflowID)
			if gerr == nil && wf != nil {
				verdict, gerr := tg.CheckTaskResult(ctx, wf.Description, done.Description, done.Result)
				if gerr != nil {
					debugLog("task quality check failed for %s: %v", taskID, gerr)
				} else {
					result.QualityCheck = verdict
				}
			}
		}
	}
	return result, nil
}

// rederiveStatus recomputes workflow status from its task set after a
// forced single-task retry. Completed when all tasks are done, failed
// when any remain failed, otherwise the previous status is kept.
func (o *Orchestrator) rederiveStatus(workflowID string) error {
	wf, err := o.store.GetWorkflow(workflowID)
	if err != nil {
		return fmt.Errorf("get workflow: %w", err)
	}
	tasks, err := o.store.ListTasksByWorkflow(workflowID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	allDone := true
	anyFailed := false
	for _, t := range tasks {
		if t.Status == models.TaskStatusFailed {
			anyFailed = true
		}
		if t.Status != models.TaskStatusCompleted && t.Status != models.TaskStatusSkipped {
			allDone = false
		}
	}

	var next models.WorkflowStatus
	switch {
	case allDone:
		next = models.WorkflowStatusCompleted
	case anyFailed:
		next = models.WorkflowStatusFailed
	default:
		return nil
	}

	if next == wf.Status {
		return nil
	}
	now := time.Now().UTC()
	wf.Status = next
	wf.CompletedAt = &now
	if err := o.store.UpdateWorkflow(wf); err != nil {
		return fmt.Errorf("persist status: %w", err)
	}
	return nil
}

// GetWorkflowStatus returns a read-only projection of the workflow, its
// tasks, its dependency edges, and a progress summary.
func (o *Orchestrator) GetWorkflowStatus(workflowID string) (*models.WorkflowResult, error) {
	wf, err := o.store.GetWorkflow(workflowID)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	if wf == nil {
		return nil, fmt.Errorf("workflow %s not found", workflowID)
	}
	tasks, deps, err := o.loadGraph(workflowID)
	if err != nil {
		return nil, err
	}

	return &models.WorkflowResult{
		WorkflowID:   wf.ID,
		Status:       wf.Status,
		Summary:      o.summarize(wf, tasks),
		Tasks:        tasks,
		Dependencies: deps,
	}, nil
}

// ListWorkflows returns all persisted workflows, newest first.
func (o *Orchestrator) ListWorkflows() ([]models.Workflow, error) {
	return o.store.ListWorkflows()
}

// summarize builds the human-readable run summary.
func (o *Orchestrator) summarize(wf *models.Workflow, tasks []models.WorkflowTask) string {
	progress := models.CountProgress(tasks)

	var b strings.Builder
	fmt.Fprintf(&b, "workflow %q %s: %d/%d tasks completed", wf.Title, wf.Status, progress.Completed, progress.Total)
	if progress.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", progress.Failed)
	}
	if progress.Pending > 0 {
		fmt.Fprintf(&b, ", %d pending", progress.Pending)
	}
	if o.usage != nil {
		in, out := o.usage.Total()
		fmt.Fprintf(&b, " (tokens: %d in / %d out, est. $%.4f)", in, out, o.usage.Cost())
	}
	return b.String()
}

func (o *Orchestrator) emit(event Event) {
	event.Timestamp = time.Now()
	o.emitter.Emit(event)
}
