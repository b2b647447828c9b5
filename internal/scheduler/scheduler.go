// Package scheduler provides pure graph operations over workflow tasks and
// their dependency edges: readiness computation, worker assignment, cycle
// detection, and topological ordering. It performs no I/O and never mutates
// its inputs; the orchestrator re-reads state each tick and hands fresh
// snapshots in.
package scheduler

import "github.com/calebmorris/foreman/pkg/models"

// GetReadyTasks returns the tasks that can be dispatched right now: pending
// tasks whose every dependency edge points at a completed task. Edges that
// reference unknown task ids are ignored here. The order of the returned
// slice is unspecified; callers must not assume FIFO.
func GetReadyTasks(tasks []models.WorkflowTask, deps []models.TaskDependency) []models.WorkflowTask {
	byID := make(map[string]models.TaskStatus, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t.Status
	}

	var ready []models.WorkflowTask
	for _, t := range tasks {
		if t.Status != models.TaskStatusPending {
			continue
		}

		satisfied := true
		for _, d := range deps {
			if d.TaskID != t.ID {
				continue
			}
			status, known := byID[d.DependsOnTaskID]
			if !known {
				// Dangling edge: nothing to wait on.
				continue
			}
			if status != models.TaskStatusCompleted {
				satisfied = false
				break
			}
		}

		if satisfied {
			ready = append(ready, t)
		}
	}
	return ready
}

// AssignWorker picks a worker for a task by suggested role. Priority, first
// match wins:
//  1. idle worker with a matching role
//  2. any idle worker
//  3. matching-role worker regardless of status
//  4. the first worker in the roster
//
// Returns "" when the roster is empty. This is a greedy heuristic; it does
// not attempt load balancing across repeated calls within the same plan.
func AssignWorker(suggestedRole string, workers []models.Worker) string {
	for _, w := range workers {
		if w.Role == suggestedRole && w.Status == models.WorkerIdle {
			return w.ID
		}
	}
	for _, w := range workers {
		if w.Status == models.WorkerIdle {
			return w.ID
		}
	}
	for _, w := range workers {
		if w.Role == suggestedRole {
			return w.ID
		}
	}
	if len(workers) > 0 {
		return workers[0].ID
	}
	return ""
}

// DetectCycle reports whether the dependency graph contains a cycle, using
// Kahn's algorithm: repeatedly remove zero-in-degree nodes; if fewer nodes
// are processed than exist, a cycle remains. An edge referencing an unknown
// task id counts the same as a cycle, because the dependent can never
// resolve.
func DetectCycle(tasks []models.WorkflowTask, deps []models.TaskDependency) bool {
	order := kahnOrder(tasks, deps)
	return len(order) < len(tasks)
}

// TopologicalOrder returns task ids in dependency order via the same Kahn
// traversal as DetectCycle. If a cycle exists the order is partial; callers
// needing a guarantee must call DetectCycle separately.
func TopologicalOrder(tasks []models.WorkflowTask, deps []models.TaskDependency) []string {
	return kahnOrder(tasks, deps)
}

// kahnOrder runs in-degree counting over the task set. Edges whose TaskID is
// unknown are dropped; edges whose DependsOnTaskID is unknown keep the
// dependent's in-degree permanently positive, so it is never emitted.
func kahnOrder(tasks []models.WorkflowTask, deps []models.TaskDependency) []string {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}

	inDegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string)
	for _, t := range tasks {
		inDegree[t.ID] = 0
	}
	for _, d := range deps {
		if !known[d.TaskID] {
			continue
		}
		inDegree[d.TaskID]++
		if known[d.DependsOnTaskID] {
			dependents[d.DependsOnTaskID] = append(dependents[d.DependsOnTaskID], d.TaskID)
		}
	}

	var queue []string
	for _, t := range tasks {
		if inDegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	return order
}
