// Package orchestrator coordinates workflow execution: planning, task
// dispatch, result collection, and final quality evaluation.
package orchestrator

import (
	"time"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventWorkflowCreated indicates a workflow record and its tasks were persisted.
	EventWorkflowCreated EventType = "workflow_created"
	// EventWorkflowStarted indicates execution of a workflow has begun.
	EventWorkflowStarted EventType = "workflow_started"
	// EventTaskStarted indicates a task was dispatched to a worker.
	EventTaskStarted EventType = "workflow_task_started"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "workflow_task_completed"
	// EventTaskFailed indicates a task failed.
	EventTaskFailed EventType = "workflow_task_failed"
	// EventWorkflowCompleted indicates every task reached a terminal state with no failures.
	EventWorkflowCompleted EventType = "workflow_completed"
	// EventWorkflowFailed indicates the workflow finished with at least one failed task.
	EventWorkflowFailed EventType = "workflow_failed"
	// EventWorkflowCancelled indicates the workflow was cancelled by request.
	EventWorkflowCancelled EventType = "workflow_cancelled"
	// EventWorkflowIncomplete indicates execution stopped with work still pending
	// (stuck dependencies or deadline) without any task failing.
	EventWorkflowIncomplete EventType = "workflow_incomplete"
)

// Event represents an event emitted during workflow execution.
// These events drive the follow view and the run log.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// WorkflowID is the ID of the related workflow.
	WorkflowID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// WorkerID is the ID of the worker handling the task, if applicable.
	WorkerID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
