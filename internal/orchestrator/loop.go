package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/calebmorris/foreman/internal/scheduler"
	"github.com/calebmorris/foreman/pkg/models"
)

// backoffInterval is how long the loop waits when no task is ready but
// some are still running.
const backoffInterval = time.Second

// runLoop drives one workflow to quiescence. One iteration is a tick:
// check cancellation, reload state, compute readiness, dispatch a bounded
// batch, wait for it to resolve. Returns true if the run was cancelled.
func (o *Orchestrator) runLoop(ctx context.Context, workflowID string, roster []models.Worker) (cancelled bool) {
	deadline := time.Now().Add(o.taskTimeout)

	for time.Now().Before(deadline) {
		if o.registry.isCancelled(workflowID) || ctx.Err() != nil {
			debugLog("workflow %s: cancellation observed at tick boundary", workflowID)
			return true
		}

		// Re-read rather than cache: tasks dispatched last tick mutate
		// state out of band.
		tasks, deps, err := o.loadGraph(workflowID)
		if err != nil {
			o.logger.Log("workflow %s: tick reload failed: %v", workflowID, err)
			return false
		}

		if allTerminal(tasks) {
			return false
		}

		ready := scheduler.GetReadyTasks(tasks, deps)
		if len(ready) == 0 {
			if countRunning(tasks) == 0 {
				debugLog("workflow %s: stuck, no ready tasks and none running", workflowID)
				return false
			}
			time.Sleep(backoffInterval)
			continue
		}

		batch := ready
		if len(batch) > o.maxConcurrent {
			batch = batch[:o.maxConcurrent]
		}
		o.dispatchBatch(ctx, batch, roster)
	}

	debugLog("workflow %s: deadline reached", workflowID)
	return false
}

// dispatchBatch runs a wave of ready tasks concurrently and blocks until
// every one of them resolves.
func (o *Orchestrator) dispatchBatch(ctx context.Context, batch []models.WorkflowTask, roster []models.Worker) {
	var wg sync.WaitGroup
	for _, task := range batch {
		wg.Add(1)
		go func(t models.WorkflowTask) {
			defer wg.Done()
			o.executeTask(ctx, t, roster)
		}(task)
	}
	wg.Wait()
}

// executeTask runs one task to a terminal status. Execution errors are
// captured as a failed status and never propagate, so one task's failure
// cannot crash the loop.
func (o *Orchestrator) executeTask(ctx context.Context, task models.WorkflowTask, roster []models.Worker) {
	now := time.Now().UTC()

	// An unassigned task is terminal immediately and never dispatched.
	if task.WorkerID == "" {
		task.Status = models.TaskStatusSkipped
		task.CompletedAt = &now
		if err := o.store.UpdateTask(&task); err != nil {
			o.logger.Log("task %s: persist skip failed: %v", task.ID, err)
		}
		debugLog("task %s skipped: no worker assigned", task.ID)
		return
	}

	task.Status = models.TaskStatusRunning
	if err := o.store.UpdateTask(&task); err != nil {
		o.logger.Log("task %s: persist running failed: %v", task.ID, err)
		return
	}
	o.emit(Event{Type: EventTaskStarted, WorkflowID: task.WorkflowID, TaskID: task.ID, WorkerID: task.WorkerID, Message: task.Description})

	result, err := o.runOnWorker(ctx, task, roster)

	done := time.Now().UTC()
	task.CompletedAt = &done
	if err != nil {
		task.Status = models.TaskStatusFailed
		task.Result = err.Error()
		if uerr := o.store.UpdateTask(&task); uerr != nil {
			o.logger.Log("task %s: persist failure failed: %v", task.ID, uerr)
		}
		o.emit(Event{Type: EventTaskFailed, WorkflowID: task.WorkflowID, TaskID: task.ID, WorkerID: task.WorkerID, Error: err})
		return
	}

	task.Status = models.TaskStatusCompleted
	task.Result = result
	if uerr := o.store.UpdateTask(&task); uerr != nil {
		o.logger.Log("task %s: persist completion failed: %v", task.ID, uerr)
	}
	o.emit(Event{Type: EventTaskCompleted, WorkflowID: task.WorkflowID, TaskID: task.ID, WorkerID: task.WorkerID})
}

// runOnWorker resolves the assigned worker and dependency results, then
// invokes the executor.
func (o *Orchestrator) runOnWorker(ctx context.Context, task models.WorkflowTask, roster []models.Worker) (string, error) {
	var wk *models.Worker
	for i := range roster {
		if roster[i].ID == task.WorkerID {
			wk = &roster[i]
			break
		}
	}
	if wk == nil {
		return "", fmt.Errorf("worker %s not in roster", task.WorkerID)
	}

	depResults, err := o.dependencyResults(task)
	if err != nil {
		return "", err
	}

	return o.executor.ExecuteTask(ctx, *wk, task, depResults)
}

// dependencyResults collects the results of this task's completed
// dependencies, in plan order.
func (o *Orchestrator) dependencyResults(task models.WorkflowTask) ([]string, error) {
	deps, err := o.store.ListDependenciesByWorkflow(task.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}

	var results []string
	for _, d := range deps {
		if d.TaskID != task.ID {
			continue
		}
		upstream, err := o.store.GetTask(d.DependsOnTaskID)
		if err != nil {
			return nil, fmt.Errorf("get dependency task: %w", err)
		}
		if upstream != nil && upstream.Status == models.TaskStatusCompleted && upstream.Result != "" {
			results = append(results, upstream.Result)
		}
	}
	return results, nil
}

// finalize reloads the task set once more, persists the terminal workflow
// status, runs the quality gate when applicable, and builds the result.
func (o *Orchestrator) finalize(ctx context.Context, workflowID string, cancelled bool) (*models.WorkflowResult, error) {
	wf, err := o.store.GetWorkflow(workflowID)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	tasks, deps, err := o.loadGraph(workflowID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wf.CompletedAt = &now

	var eventType EventType
	switch {
	case cancelled:
		wf.Status = models.WorkflowStatusCancelled
		eventType = EventWorkflowCancelled
	case allCompleted(tasks):
		wf.Status = models.WorkflowStatusCompleted
		eventType = EventWorkflowCompleted
	case anyFailed(tasks):
		wf.Status = models.WorkflowStatusFailed
		eventType = EventWorkflowFailed
	default:
		// Stuck or timed out with unfinished work but no failures.
		wf.Status = models.WorkflowStatusIncomplete
		eventType = EventWorkflowIncomplete
	}

	if err := o.store.UpdateWorkflow(wf); err != nil {
		return nil, fmt.Errorf("persist final status: %w", err)
	}

	result := &models.WorkflowResult{
		WorkflowID:   wf.ID,
		Status:       wf.Status,
		Tasks:        tasks,
		Dependencies: deps,
	}

	// Grade only fully-completed workflows; evaluator errors are swallowed
	// and leave the verdict unset.
	if o.evaluator != nil && wf.Status == models.WorkflowStatusCompleted {
		verdict, err := o.evaluator.CheckWorkflowResult(ctx, wf.Description, tasks)
		if err != nil {
			o.logger.Log("workflow %s: quality check failed: %v", wf.ID, err)
		} else {
			result.QualityCheck = verdict
		}
	}

	result.Summary = o.summarize(wf, tasks)
	o.emit(Event{Type: eventType, WorkflowID: wf.ID, Message: result.Summary})
	o.logger.Log("workflow %s finished: %s", wf.ID, result.Summary)

	return result, nil
}

func (o *Orchestrator) loadGraph(workflowID string) ([]models.WorkflowTask, []models.TaskDependency, error) {
	tasks, err := o.store.ListTasksByWorkflow(workflowID)
	if err != nil {
		return nil, nil, fmt.Errorf("list tasks: %w", err)
	}
	deps, err := o.store.ListDependenciesByWorkflow(workflowID)
	if err != nil {
		return nil, nil, fmt.Errorf("list dependencies: %w", err)
	}
	return tasks, deps, nil
}

func allTerminal(tasks []models.WorkflowTask) bool {
	for _, t := range tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

func allCompleted(tasks []models.WorkflowTask) bool {
	for _, t := range tasks {
		if t.Status != models.TaskStatusCompleted && t.Status != models.TaskStatusSkipped {
			return false
		}
	}
	return true
}

func anyFailed(tasks []models.WorkflowTask) bool {
	for _, t := range tasks {
		if t.Status == models.TaskStatusFailed {
			return true
		}
	}
	return false
}

func countRunning(tasks []models.WorkflowTask) int {
	n := 0
	for _, t := range tasks {
		if t.Status == models.TaskStatusRunning {
			n++
		}
	}
	return n
}
