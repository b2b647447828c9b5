package planner

import (
	"fmt"

	"github.com/calebmorris/foreman/pkg/models"
)

// PlanningError indicates the model's plan failed structural validation.
// It is fatal for the planning phase: no partial workflow is ever persisted
// for a planning failure.
type PlanningError struct {
	Reason string
}

func (e *PlanningError) Error() string {
	return "planning failed: " + e.Reason
}

// validatePlan checks plan shape before any persistence: task count bounds,
// dependency index ranges, self-references, and acyclicity among plan-local
// indices. The cycle check is a three-color depth-first search, the same
// idea as the scheduler's Kahn check but operating on integer indices
// before ids exist.
func validatePlan(plan *models.TaskPlan) error {
	n := len(plan.Tasks)
	if n == 0 {
		return &PlanningError{Reason: "plan contains no tasks"}
	}
	if n > MaxPlanTasks {
		return &PlanningError{Reason: fmt.Sprintf("plan contains %d tasks, limit is %d", n, MaxPlanTasks)}
	}

	for i, t := range plan.Tasks {
		if t.Description == "" {
			return &PlanningError{Reason: fmt.Sprintf("task %d has no description", i)}
		}
		for _, dep := range t.DependsOn {
			if dep < 0 || dep >= n {
				return &PlanningError{Reason: fmt.Sprintf("task %d depends on out-of-range index %d", i, dep)}
			}
			if dep == i {
				return &PlanningError{Reason: fmt.Sprintf("task %d depends on itself", i)}
			}
		}
	}

	if hasIndexCycle(plan.Tasks) {
		return &PlanningError{Reason: "dependency indices form a cycle"}
	}
	return nil
}

// hasIndexCycle runs a three-color DFS (unvisited, in-stack, done) over the
// plan-local dependency indices.
func hasIndexCycle(tasks []models.PlannedTask) bool {
	const (
		white = 0 // unvisited
		gray  = 1 // in the current DFS stack
		black = 2 // fully explored
	)
	colors := make([]int, len(tasks))

	var visit func(i int) bool
	visit = func(i int) bool {
		colors[i] = gray
		for _, dep := range tasks[i].DependsOn {
			switch colors[dep] {
			case gray:
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		colors[i] = black
		return false
	}

	for i := range tasks {
		if colors[i] == white && visit(i) {
			return true
		}
	}
	return false
}
