// Package planner turns a free-text request into a validated task plan by
// asking the text-completion collaborator for a structured decomposition.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/calebmorris/foreman/pkg/models"
)

// MaxPlanTasks bounds the size of a plan. Keeping the fan-out small keeps
// the orchestration loop's concurrency and the eventual number of worker
// calls predictable.
const MaxPlanTasks = 8

// Completer is the text-completion capability the planner consumes.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Planner decomposes requests into task plans.
type Planner struct {
	completer Completer
}

// New creates a Planner backed by the given completer.
func New(completer Completer) *Planner {
	return &Planner{completer: completer}
}

// PlanTasks produces a validated TaskPlan for the request, given the roster
// of available workers. The response is parsed defensively: a malformed
// response degrades to a single-task plan rather than failing, but a plan
// that parses and then fails structural validation is a *PlanningError.
func (p *Planner) PlanTasks(ctx context.Context, request string, workers []models.Worker) (*models.TaskPlan, error) {
	user := buildPlanningRequest(request, workers)

	response, err := p.completer.Complete(ctx, planningSystemPrompt, user)
	if err != nil {
		return nil, &PlanningError{Reason: fmt.Sprintf("completion failed: %v", err)}
	}

	plan := parsePlan(response)
	normalizePlan(plan)

	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// buildPlanningRequest enumerates the roster so the model can suggest roles
// that actually exist.
func buildPlanningRequest(request string, workers []models.Worker) string {
	var b strings.Builder
	b.WriteString("Available workers:\n")
	if len(workers) == 0 {
		b.WriteString("(none)\n")
	}
	for _, w := range workers {
		fmt.Fprintf(&b, "- %s (role: %s, status: %s)\n", w.ID, w.Role, w.Status)
	}
	b.WriteString("\nRequest:\n")
	b.WriteString(request)
	return b.String()
}
