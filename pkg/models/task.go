package models

import "time"

// TaskStatus represents the current state of a workflow task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates a worker is executing the task.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusSkipped indicates the task had no worker and was never dispatched.
	TaskStatusSkipped TaskStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is an end state for a task.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// TaskPriority indicates the urgency the planner assigned to a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid returns true if the priority is a known value.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// WorkflowTask is one unit of decomposed work within a workflow.
type WorkflowTask struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// WorkflowID is the owning workflow.
	WorkflowID string `json:"workflow_id"`
	// WorkerID is the assigned worker. Empty means no suitable worker
	// existed at creation time; such tasks are skipped, never dispatched.
	WorkerID string `json:"worker_id,omitempty"`
	// Description is what the worker is asked to do.
	Description string `json:"description"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Result holds the worker's text output on success, or the error
	// message on failure.
	Result string `json:"result,omitempty"`
	// Priority is the planner-assigned urgency.
	Priority TaskPriority `json:"priority"`
	// SuggestedRole is the worker role the planner suggested.
	SuggestedRole string `json:"suggested_role,omitempty"`
	// OrderIndex is the task's position in the original plan, for display.
	OrderIndex int `json:"order_index"`
	// CreatedAt is when the task was persisted.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskDependency is a directed "must finish before" edge: TaskID depends on
// DependsOnTaskID. The edges of one workflow must form a DAG; this is
// enforced before persistence.
type TaskDependency struct {
	// ID is the unique identifier for this edge.
	ID string `json:"id"`
	// WorkflowID is the owning workflow.
	WorkflowID string `json:"workflow_id"`
	// TaskID is the task that must wait.
	TaskID string `json:"task_id"`
	// DependsOnTaskID is the prerequisite task.
	DependsOnTaskID string `json:"depends_on_task_id"`
}
