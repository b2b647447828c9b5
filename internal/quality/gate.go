// Package quality grades finished work against the original request by
// asking the text-completion collaborator for a structured verdict. The
// gate is read-only with respect to workflow state and fails open: an
// evaluator malfunction must never block a workflow that otherwise
// succeeded.
package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/calebmorris/foreman/pkg/models"
)

// Completer is the text-completion capability the gate consumes.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Gate evaluates task and workflow results.
type Gate struct {
	completer Completer
}

// New creates a Gate backed by the given completer.
func New(completer Completer) *Gate {
	return &Gate{completer: completer}
}

const gradingSystemPrompt = `You are a strict quality reviewer. Grade the submitted work against the original request.

Return ONLY a JSON object (no prose, no markdown):
{
  "passed": true,
  "score": 0,
  "feedback": "one or two sentences on overall quality",
  "suggestions": ["concrete improvement", "..."]
}

Scoring: 0-100. Pass when the work substantially satisfies the request; minor
style issues alone should not fail it. Use suggestions for anything that
would improve the result.`

// CheckTaskResult grades a single task's output against the request it came
// from.
func (g *Gate) CheckTaskResult(ctx context.Context, request, taskDescription, result string) (*models.QualityCheckResult, error) {
	user := fmt.Sprintf("Original request:\n%s\n\nTask:\n%s\n\nSubmitted result:\n%s",
		request, taskDescription, result)
	return g.grade(ctx, user)
}

// CheckWorkflowResult grades a finished workflow's aggregate output against
// the original request.
func (g *Gate) CheckWorkflowResult(ctx context.Context, request string, tasks []models.WorkflowTask) (*models.QualityCheckResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Original request:\n%s\n\nCompleted tasks and their results:\n", request)
	for i, t := range tasks {
		fmt.Fprintf(&b, "\n%d. %s\nStatus: %s\nResult: %s\n", i+1, t.Description, t.Status, t.Result)
	}
	return g.grade(ctx, b.String())
}

// grade runs one completion and parses the verdict, defaulting to a passing
// result when the response is unusable.
func (g *Gate) grade(ctx context.Context, user string) (*models.QualityCheckResult, error) {
	response, err := g.completer.Complete(ctx, gradingSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("quality completion: %w", err)
	}
	return parseVerdict(response), nil
}

// parseVerdict extracts a QualityCheckResult from the model's response,
// using the same defensive strategy as the planner: locate the first
// balanced object literal. A response that does not parse yields the
// fail-open default.
func parseVerdict(response string) *models.QualityCheckResult {
	candidate := extractObject(response)
	if candidate != "" {
		var verdict models.QualityCheckResult
		if err := json.Unmarshal([]byte(candidate), &verdict); err == nil {
			clampScore(&verdict)
			return &verdict
		}
	}
	return defaultVerdict()
}

// defaultVerdict is the fail-open result used when parsing fails.
func defaultVerdict() *models.QualityCheckResult {
	return &models.QualityCheckResult{
		Passed:   true,
		Score:    70,
		Feedback: "evaluation parse failed (defaulting to pass)",
	}
}

func clampScore(v *models.QualityCheckResult) {
	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 100 {
		v.Score = 100
	}
}

// extractObject returns the first balanced {...} literal in the text, or "".
func extractObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
