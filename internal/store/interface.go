// Package store provides SQLite-backed persistence for workflows, tasks,
// and task dependencies, behind interfaces the orchestrator can consume
// without depending on the concrete implementation.
package store

import (
	"io"

	"github.com/calebmorris/foreman/pkg/models"
)

// WorkflowStore handles workflow-related persistence operations.
type WorkflowStore interface {
	CreateWorkflow(w *models.Workflow) error
	GetWorkflow(id string) (*models.Workflow, error)
	UpdateWorkflow(w *models.Workflow) error
	ListWorkflows() ([]models.Workflow, error)
}

// TaskStore handles workflow task persistence operations.
type TaskStore interface {
	CreateTask(t *models.WorkflowTask) error
	GetTask(id string) (*models.WorkflowTask, error)
	UpdateTask(t *models.WorkflowTask) error
	ListTasksByWorkflow(workflowID string) ([]models.WorkflowTask, error)
}

// DependencyStore handles task dependency persistence operations.
type DependencyStore interface {
	CreateDependency(d *models.TaskDependency) error
	ListDependenciesByWorkflow(workflowID string) ([]models.TaskDependency, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for workflow persistence.
// This interface allows the orchestrator to work with any backend
// without depending on the concrete SQLite implementation.
// It composes focused sub-interfaces for better modularity.
type Store interface {
	io.Closer
	Migrator
	WorkflowStore
	TaskStore
	DependencyStore
}

// Compile-time verification that both backends implement all interfaces.
var (
	_ Store           = (*DB)(nil)
	_ Migrator        = (*DB)(nil)
	_ WorkflowStore   = (*DB)(nil)
	_ TaskStore       = (*DB)(nil)
	_ DependencyStore = (*DB)(nil)

	_ Store = (*MemoryStore)(nil)
)
