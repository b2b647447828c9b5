package models

// WorkerStatus represents a worker's availability.
type WorkerStatus string

const (
	// WorkerIdle indicates the worker is free to take a task.
	WorkerIdle WorkerStatus = "idle"
	// WorkerBusy indicates the worker is occupied.
	WorkerBusy WorkerStatus = "busy"
	// WorkerOffline indicates the worker is unavailable.
	WorkerOffline WorkerStatus = "offline"
)

// Worker describes an external executor capable of fulfilling one task
// description and returning text or failing. The core only reads these;
// the roster owns them.
type Worker struct {
	// ID is the unique identifier for this worker.
	ID string `json:"id" yaml:"id"`
	// Name is the worker's display name.
	Name string `json:"name,omitempty" yaml:"name"`
	// Role is the worker's specialty (e.g. "researcher", "writer").
	Role string `json:"role" yaml:"role"`
	// Status is the worker's current availability.
	Status WorkerStatus `json:"status" yaml:"status"`
	// Persona seeds the worker's system prompt, if set.
	Persona string `json:"persona,omitempty" yaml:"persona"`
}
