package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	// WorkflowStatusPending indicates the workflow has been planned but not started.
	WorkflowStatusPending WorkflowStatus = "pending"
	// WorkflowStatusRunning indicates the scheduling loop is active.
	WorkflowStatusRunning WorkflowStatus = "running"
	// WorkflowStatusCompleted indicates every task completed successfully.
	WorkflowStatusCompleted WorkflowStatus = "completed"
	// WorkflowStatusFailed indicates at least one task failed.
	WorkflowStatusFailed WorkflowStatus = "failed"
	// WorkflowStatusCancelled indicates the workflow was cancelled by request.
	WorkflowStatusCancelled WorkflowStatus = "cancelled"
	// WorkflowStatusIncomplete indicates the loop exited (stuck or timed out)
	// with unfinished tasks but no failures.
	WorkflowStatusIncomplete WorkflowStatus = "incomplete"
)

// Valid returns true if the status is a known value.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusPending, WorkflowStatusRunning, WorkflowStatusCompleted,
		WorkflowStatusFailed, WorkflowStatusCancelled, WorkflowStatusIncomplete:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is an end state.
func (s WorkflowStatus) Terminal() bool {
	switch s {
	case WorkflowStatusCompleted, WorkflowStatusFailed, WorkflowStatusCancelled, WorkflowStatusIncomplete:
		return true
	default:
		return false
	}
}

// Workflow is one user request's execution unit.
type Workflow struct {
	// ID is the unique identifier for this workflow.
	ID string `json:"id"`
	// Title is the short name produced by the planner.
	Title string `json:"title"`
	// Description is the original request text.
	Description string `json:"description"`
	// Status is the current lifecycle state.
	Status WorkflowStatus `json:"status"`
	// CreatedBy identifies the submitter, if known.
	CreatedBy string `json:"created_by,omitempty"`
	// CreatedAt is when the workflow was persisted.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the workflow reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// WorkflowProgress summarizes task states for a workflow.
type WorkflowProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Running   int `json:"running"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

// WorkflowResult is handed back to the caller of ExecuteWorkflow.
// It always describes every task's terminal state.
type WorkflowResult struct {
	// WorkflowID is the workflow this result describes.
	WorkflowID string `json:"workflow_id"`
	// Status is the final workflow status.
	Status WorkflowStatus `json:"status"`
	// Summary is a human-readable description of the outcome.
	Summary string `json:"summary"`
	// Tasks holds the final state of every task.
	Tasks []WorkflowTask `json:"tasks"`
	// Dependencies holds the workflow's dependency edges.
	Dependencies []TaskDependency `json:"dependencies,omitempty"`
	// QualityCheck is the grader's verdict, if quality gating ran.
	QualityCheck *QualityCheckResult `json:"quality_check,omitempty"`
}

// Progress counts task statuses into a WorkflowProgress.
func (r *WorkflowResult) Progress() WorkflowProgress {
	return CountProgress(r.Tasks)
}

// CountProgress tallies task statuses.
func CountProgress(tasks []WorkflowTask) WorkflowProgress {
	p := WorkflowProgress{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case TaskStatusCompleted:
			p.Completed++
		case TaskStatusRunning:
			p.Running++
		case TaskStatusFailed:
			p.Failed++
		case TaskStatusPending:
			p.Pending++
		}
	}
	return p
}
