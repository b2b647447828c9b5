package store

import (
	"database/sql"
	"fmt"

	"github.com/calebmorris/foreman/pkg/models"
)

// Workflow CRUD operations

// CreateWorkflow inserts a new workflow.
func (db *DB) CreateWorkflow(w *models.Workflow) error {
	_, err := db.Exec(`
		INSERT INTO workflows (id, title, description, status, created_by, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.Title, w.Description, string(w.Status), w.CreatedBy, formatTime(w.CreatedAt), nullableTimeArg(w.CompletedAt))
	if err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow by ID. Returns nil when not found.
func (db *DB) GetWorkflow(id string) (*models.Workflow, error) {
	row := db.QueryRow(`
		SELECT id, title, description, status, created_by, created_at, completed_at
		FROM workflows WHERE id = ?
	`, id)

	w, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return w, nil
}

// UpdateWorkflow persists a workflow's mutable fields.
func (db *DB) UpdateWorkflow(w *models.Workflow) error {
	_, err := db.Exec(`
		UPDATE workflows SET title = ?, description = ?, status = ?, completed_at = ?
		WHERE id = ?
	`, w.Title, w.Description, string(w.Status), nullableTimeArg(w.CompletedAt), w.ID)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	return nil
}

// ListWorkflows returns all workflows, newest first.
func (db *DB) ListWorkflows() ([]models.Workflow, error) {
	rows, err := db.Query(`
		SELECT id, title, description, status, created_by, created_at, completed_at
		FROM workflows ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []models.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		workflows = append(workflows, *w)
	}
	return workflows, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var w models.Workflow
	var createdAt string
	var completedAt sql.NullString
	if err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Status, &w.CreatedBy, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	w.CreatedAt, _ = parseTime(createdAt)
	w.CompletedAt = parseNullableTime(completedAt)
	return &w, nil
}

// Task CRUD operations

// CreateTask inserts a new workflow task.
func (db *DB) CreateTask(t *models.WorkflowTask) error {
	_, err := db.Exec(`
		INSERT INTO workflow_tasks (id, workflow_id, worker_id, description, status, result, priority, suggested_role, order_index, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.WorkflowID, t.WorkerID, t.Description, string(t.Status), t.Result, string(t.Priority), t.SuggestedRole, t.OrderIndex, formatTime(t.CreatedAt), nullableTimeArg(t.CompletedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil when not found.
func (db *DB) GetTask(id string) (*models.WorkflowTask, error) {
	row := db.QueryRow(`
		SELECT id, workflow_id, worker_id, description, status, result, priority, suggested_role, order_index, created_at, completed_at
		FROM workflow_tasks WHERE id = ?
	`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask persists a task's mutable fields.
func (db *DB) UpdateTask(t *models.WorkflowTask) error {
	_, err := db.Exec(`
		UPDATE workflow_tasks SET worker_id = ?, description = ?, status = ?, result = ?, priority = ?, suggested_role = ?, order_index = ?, completed_at = ?
		WHERE id = ?
	`, t.WorkerID, t.Description, string(t.Status), t.Result, string(t.Priority), t.SuggestedRole, t.OrderIndex, nullableTimeArg(t.CompletedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// ListTasksByWorkflow returns a workflow's tasks in plan order.
func (db *DB) ListTasksByWorkflow(workflowID string) ([]models.WorkflowTask, error) {
	rows, err := db.Query(`
		SELECT id, workflow_id, worker_id, description, status, result, priority, suggested_role, order_index, created_at, completed_at
		FROM workflow_tasks WHERE workflow_id = ? ORDER BY order_index ASC
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.WorkflowTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*models.WorkflowTask, error) {
	var t models.WorkflowTask
	var createdAt string
	var completedAt sql.NullString
	if err := row.Scan(&t.ID, &t.WorkflowID, &t.WorkerID, &t.Description, &t.Status, &t.Result, &t.Priority, &t.SuggestedRole, &t.OrderIndex, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	t.CreatedAt, _ = parseTime(createdAt)
	t.CompletedAt = parseNullableTime(completedAt)
	return &t, nil
}

// Dependency operations

// CreateDependency inserts a task dependency edge.
func (db *DB) CreateDependency(d *models.TaskDependency) error {
	_, err := db.Exec(`
		INSERT INTO task_dependencies (id, workflow_id, task_id, depends_on_task_id)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.WorkflowID, d.TaskID, d.DependsOnTaskID)
	if err != nil {
		return fmt.Errorf("create dependency: %w", err)
	}
	return nil
}

// ListDependenciesByWorkflow returns all dependency edges for a workflow.
func (db *DB) ListDependenciesByWorkflow(workflowID string) ([]models.TaskDependency, error) {
	rows, err := db.Query(`
		SELECT id, workflow_id, task_id, depends_on_task_id
		FROM task_dependencies WHERE workflow_id = ?
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	var deps []models.TaskDependency
	for rows.Next() {
		var d models.TaskDependency
		if err := rows.Scan(&d.ID, &d.WorkflowID, &d.TaskID, &d.DependsOnTaskID); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}
