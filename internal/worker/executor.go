package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/calebmorris/foreman/pkg/models"
)

// Completer is the text-completion capability the executor consumes.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Executor runs workflow tasks by prompting the assigned worker's persona.
type Executor struct {
	completer Completer
}

// NewExecutor creates an Executor backed by the given completer.
func NewExecutor(completer Completer) *Executor {
	return &Executor{completer: completer}
}

// ExecuteTask runs one task as the given worker and returns the produced
// result text. Dependency results are provided as context so downstream
// tasks can build on upstream output.
func (e *Executor) ExecuteTask(ctx context.Context, wk models.Worker, task models.WorkflowTask, depResults []string) (string, error) {
	system := workerSystemPrompt(wk)

	var b strings.Builder
	fmt.Fprintf(&b, "Complete the following task:\n\n%s\n", task.Description)
	if len(depResults) > 0 {
		b.WriteString("\nResults from prerequisite tasks:\n")
		for i, r := range depResults {
			fmt.Fprintf(&b, "\n--- prerequisite %d ---\n%s\n", i+1, r)
		}
	}
	b.WriteString("\nRespond with the completed work only. Do not restate the task.")

	result, err := e.completer.Complete(ctx, system, b.String())
	if err != nil {
		return "", fmt.Errorf("worker %s: %w", wk.ID, err)
	}
	return result, nil
}

func workerSystemPrompt(wk models.Worker) string {
	persona := wk.Persona
	if persona == "" {
		persona = fmt.Sprintf("You are a diligent %s.", wk.Role)
	}
	return fmt.Sprintf("%s\n\nYou are completing one task inside a larger workflow. Produce the deliverable for your task directly.", persona)
}
