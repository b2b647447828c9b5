package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/calebmorris/foreman/pkg/models"
)

// backends returns one of each Store implementation for table-driven tests.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"sqlite": db,
		"memory": NewMemoryStore(),
	}
}

func TestWorkflowRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC().Truncate(time.Second)
			w := &models.Workflow{
				ID:          "wf-1",
				Title:       "Build the thing",
				Description: "build it end to end",
				Status:      models.WorkflowStatusPending,
				CreatedBy:   "cli",
				CreatedAt:   now,
			}
			if err := s.CreateWorkflow(w); err != nil {
				t.Fatalf("CreateWorkflow: %v", err)
			}

			got, err := s.GetWorkflow("wf-1")
			if err != nil {
				t.Fatalf("GetWorkflow: %v", err)
			}
			if got == nil {
				t.Fatal("GetWorkflow returned nil")
			}
			if got.Title != w.Title || got.Status != models.WorkflowStatusPending {
				t.Errorf("got %+v", got)
			}
			if got.CompletedAt != nil {
				t.Errorf("CompletedAt should be nil, got %v", got.CompletedAt)
			}

			done := now.Add(time.Minute)
			got.Status = models.WorkflowStatusCompleted
			got.CompletedAt = &done
			if err := s.UpdateWorkflow(got); err != nil {
				t.Fatalf("UpdateWorkflow: %v", err)
			}

			updated, err := s.GetWorkflow("wf-1")
			if err != nil {
				t.Fatalf("GetWorkflow after update: %v", err)
			}
			if updated.Status != models.WorkflowStatusCompleted {
				t.Errorf("status = %q", updated.Status)
			}
			if updated.CompletedAt == nil || !updated.CompletedAt.Equal(done) {
				t.Errorf("CompletedAt = %v, want %v", updated.CompletedAt, done)
			}
		})
	}
}

func TestGetWorkflowMissingReturnsNil(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.GetWorkflow("nope")
			if err != nil {
				t.Fatalf("GetWorkflow: %v", err)
			}
			if got != nil {
				t.Errorf("expected nil, got %+v", got)
			}
		})
	}
}

func TestListWorkflowsNewestFirst(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Now().UTC().Truncate(time.Second)
			for i, id := range []string{"old", "mid", "new"} {
				w := &models.Workflow{
					ID:        id,
					Title:     id,
					Status:    models.WorkflowStatusPending,
					CreatedAt: base.Add(time.Duration(i) * time.Hour),
				}
				if err := s.CreateWorkflow(w); err != nil {
					t.Fatalf("CreateWorkflow: %v", err)
				}
			}

			list, err := s.ListWorkflows()
			if err != nil {
				t.Fatalf("ListWorkflows: %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("got %d workflows", len(list))
			}
			if list[0].ID != "new" || list[2].ID != "old" {
				t.Errorf("order = %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
			}
		})
	}
}

func TestTaskRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC().Truncate(time.Second)
			task := &models.WorkflowTask{
				ID:            "t-1",
				WorkflowID:    "wf-1",
				WorkerID:      "worker-engineer",
				Description:   "write the schema",
				Status:        models.TaskStatusPending,
				Priority:      models.PriorityHigh,
				SuggestedRole: "engineer",
				OrderIndex:    2,
				CreatedAt:     now,
			}
			if err := s.CreateTask(task); err != nil {
				t.Fatalf("CreateTask: %v", err)
			}

			got, err := s.GetTask("t-1")
			if err != nil {
				t.Fatalf("GetTask: %v", err)
			}
			if got == nil {
				t.Fatal("GetTask returned nil")
			}
			if got.WorkerID != "worker-engineer" || got.Priority != models.PriorityHigh || got.OrderIndex != 2 {
				t.Errorf("got %+v", got)
			}

			got.Status = models.TaskStatusCompleted
			got.Result = "schema written"
			done := now.Add(time.Minute)
			got.CompletedAt = &done
			if err := s.UpdateTask(got); err != nil {
				t.Fatalf("UpdateTask: %v", err)
			}

			updated, err := s.GetTask("t-1")
			if err != nil {
				t.Fatalf("GetTask after update: %v", err)
			}
			if updated.Status != models.TaskStatusCompleted || updated.Result != "schema written" {
				t.Errorf("updated = %+v", updated)
			}
		})
	}
}

func TestListTasksByWorkflowOrdered(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()
			for i, id := range []string{"t-c", "t-a", "t-b"} {
				task := &models.WorkflowTask{
					ID:          id,
					WorkflowID:  "wf-1",
					Description: id,
					Status:      models.TaskStatusPending,
					Priority:    models.PriorityMedium,
					OrderIndex:  2 - i,
					CreatedAt:   now,
				}
				if err := s.CreateTask(task); err != nil {
					t.Fatalf("CreateTask: %v", err)
				}
			}
			// A task in another workflow must not leak in.
			other := &models.WorkflowTask{ID: "t-x", WorkflowID: "wf-2", Description: "x", Status: models.TaskStatusPending, Priority: models.PriorityMedium, CreatedAt: now}
			if err := s.CreateTask(other); err != nil {
				t.Fatalf("CreateTask: %v", err)
			}

			tasks, err := s.ListTasksByWorkflow("wf-1")
			if err != nil {
				t.Fatalf("ListTasksByWorkflow: %v", err)
			}
			if len(tasks) != 3 {
				t.Fatalf("got %d tasks", len(tasks))
			}
			if tasks[0].ID != "t-b" || tasks[1].ID != "t-a" || tasks[2].ID != "t-c" {
				t.Errorf("order = %s, %s, %s", tasks[0].ID, tasks[1].ID, tasks[2].ID)
			}
		})
	}
}

func TestDependencyPersistence(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := &models.TaskDependency{
				ID:              "d-1",
				WorkflowID:      "wf-1",
				TaskID:          "t-2",
				DependsOnTaskID: "t-1",
			}
			if err := s.CreateDependency(d); err != nil {
				t.Fatalf("CreateDependency: %v", err)
			}

			deps, err := s.ListDependenciesByWorkflow("wf-1")
			if err != nil {
				t.Fatalf("ListDependenciesByWorkflow: %v", err)
			}
			if len(deps) != 1 {
				t.Fatalf("got %d deps", len(deps))
			}
			if deps[0].TaskID != "t-2" || deps[0].DependsOnTaskID != "t-1" {
				t.Errorf("dep = %+v", deps[0])
			}

			empty, err := s.ListDependenciesByWorkflow("wf-other")
			if err != nil {
				t.Fatalf("ListDependenciesByWorkflow: %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("expected no deps, got %d", len(empty))
			}
		})
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
