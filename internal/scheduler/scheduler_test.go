package scheduler

import (
	"testing"

	"github.com/calebmorris/foreman/pkg/models"
)

func task(id string, status models.TaskStatus) models.WorkflowTask {
	return models.WorkflowTask{ID: id, WorkflowID: "wf-1", Status: status}
}

func edge(taskID, dependsOn string) models.TaskDependency {
	return models.TaskDependency{ID: taskID + "->" + dependsOn, WorkflowID: "wf-1", TaskID: taskID, DependsOnTaskID: dependsOn}
}

func readyIDs(tasks []models.WorkflowTask, deps []models.TaskDependency) map[string]bool {
	ids := make(map[string]bool)
	for _, t := range GetReadyTasks(tasks, deps) {
		ids[t.ID] = true
	}
	return ids
}

func TestGetReadyTasksNoDependencies(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusPending),
		task("b", models.TaskStatusPending),
	}

	ready := GetReadyTasks(tasks, nil)
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready tasks, got %d", len(ready))
	}
}

func TestGetReadyTasksBlockedByPendingDependency(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusPending),
		task("b", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("b", "a")}

	ready := readyIDs(tasks, deps)
	if !ready["a"] {
		t.Error("expected task a to be ready")
	}
	if ready["b"] {
		t.Error("task b should be blocked by pending a")
	}
}

func TestGetReadyTasksUnblockedByCompletion(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusCompleted),
		task("b", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("b", "a")}

	ready := readyIDs(tasks, deps)
	if !ready["b"] {
		t.Error("expected task b to become ready after a completed")
	}
	if ready["a"] {
		t.Error("completed task must never be ready")
	}
}

func TestGetReadyTasksFailedDependencyBlocksForever(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusFailed),
		task("b", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("b", "a")}

	if ready := readyIDs(tasks, deps); ready["b"] {
		t.Error("task b must not be ready behind a failed dependency")
	}
}

func TestGetReadyTasksIgnoresDanglingEdge(t *testing.T) {
	tasks := []models.WorkflowTask{task("a", models.TaskStatusPending)}
	deps := []models.TaskDependency{edge("a", "ghost")}

	if ready := readyIDs(tasks, deps); !ready["a"] {
		t.Error("edge to an unknown task should be ignored for readiness")
	}
}

func TestGetReadyTasksOnlyPendingEligible(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusRunning),
		task("b", models.TaskStatusFailed),
		task("c", models.TaskStatusSkipped),
	}

	if ready := GetReadyTasks(tasks, nil); len(ready) != 0 {
		t.Errorf("expected no ready tasks, got %d", len(ready))
	}
}

func TestAssignWorkerPrefersIdleRoleMatch(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Role: "writer", Status: models.WorkerIdle},
		{ID: "w2", Role: "researcher", Status: models.WorkerIdle},
	}

	if got := AssignWorker("researcher", workers); got != "w2" {
		t.Errorf("expected idle role match w2, got %q", got)
	}
}

func TestAssignWorkerFallsBackToAnyIdle(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Role: "writer", Status: models.WorkerBusy},
		{ID: "w2", Role: "coder", Status: models.WorkerIdle},
	}

	if got := AssignWorker("researcher", workers); got != "w2" {
		t.Errorf("expected any idle worker w2, got %q", got)
	}
}

func TestAssignWorkerBusyRoleMatchOverNonMatch(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Role: "writer", Status: models.WorkerBusy},
		{ID: "w2", Role: "researcher", Status: models.WorkerBusy},
	}

	if got := AssignWorker("researcher", workers); got != "w2" {
		t.Errorf("expected busy role match w2, got %q", got)
	}
}

func TestAssignWorkerLastResortFirstInRoster(t *testing.T) {
	workers := []models.Worker{
		{ID: "w1", Role: "writer", Status: models.WorkerOffline},
		{ID: "w2", Role: "coder", Status: models.WorkerBusy},
	}

	if got := AssignWorker("researcher", workers); got != "w1" {
		t.Errorf("expected first roster worker w1, got %q", got)
	}
}

func TestAssignWorkerEmptyRoster(t *testing.T) {
	if got := AssignWorker("researcher", nil); got != "" {
		t.Errorf("expected empty assignment, got %q", got)
	}
}

func TestDetectCycleAcyclic(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusPending),
		task("b", models.TaskStatusPending),
		task("c", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("b", "a"), edge("c", "b")}

	if DetectCycle(tasks, deps) {
		t.Error("linear chain should not report a cycle")
	}
}

func TestDetectCycleDirect(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusPending),
		task("b", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("a", "b"), edge("b", "a")}

	if !DetectCycle(tasks, deps) {
		t.Error("expected a->b->a to report a cycle")
	}
}

func TestDetectCycleThreeNodes(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusPending),
		task("b", models.TaskStatusPending),
		task("c", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("a", "b"), edge("b", "c"), edge("c", "a")}

	if !DetectCycle(tasks, deps) {
		t.Error("expected a->b->c->a to report a cycle")
	}
}

func TestDetectCycleDanglingDependency(t *testing.T) {
	// An edge to a non-existent task can never resolve; it is treated the
	// same as a cycle.
	tasks := []models.WorkflowTask{task("a", models.TaskStatusPending)}
	deps := []models.TaskDependency{edge("a", "ghost")}

	if !DetectCycle(tasks, deps) {
		t.Error("dangling dependency should count as a cycle")
	}
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("c", models.TaskStatusPending),
		task("a", models.TaskStatusPending),
		task("b", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("b", "a"), edge("c", "b")}

	order := TopologicalOrder(tasks, deps)
	if len(order) != 3 {
		t.Fatalf("expected 3 ids in order, got %d", len(order))
	}

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Errorf("order %v violates a before b before c", order)
	}
}

func TestTopologicalOrderPartialUnderCycle(t *testing.T) {
	tasks := []models.WorkflowTask{
		task("a", models.TaskStatusPending),
		task("b", models.TaskStatusPending),
		task("c", models.TaskStatusPending),
	}
	deps := []models.TaskDependency{edge("b", "c"), edge("c", "b")}

	order := TopologicalOrder(tasks, deps)
	if len(order) != 1 || order[0] != "a" {
		t.Errorf("expected partial order [a], got %v", order)
	}
}

func TestGetReadyTasksDoesNotMutateInput(t *testing.T) {
	tasks := []models.WorkflowTask{task("a", models.TaskStatusPending)}
	deps := []models.TaskDependency{edge("a", "ghost")}

	_ = GetReadyTasks(tasks, deps)
	if tasks[0].Status != models.TaskStatusPending {
		t.Error("input task mutated")
	}
}
