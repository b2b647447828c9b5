package planner

import (
	"encoding/json"
	"strings"

	"github.com/calebmorris/foreman/pkg/models"
)

// fallbackDescriptionLimit caps how much of a raw, unparseable response is
// carried into the single-task fallback plan.
const fallbackDescriptionLimit = 500

// parsePlan extracts a TaskPlan from the model's response. It strips a
// fenced code block if one is present, otherwise takes the first balanced
// object literal in the text. Only a response that yields no decodable
// object degrades to a single-task plan built from the raw text; an object
// that decodes keeps whatever task list it carries, so an empty one is
// rejected by validation rather than papered over.
func parsePlan(response string) *models.TaskPlan {
	candidate := extractObject(response)
	if candidate != "" {
		var plan models.TaskPlan
		if err := json.Unmarshal([]byte(candidate), &plan); err == nil {
			return &plan
		}
	}
	return fallbackPlan(response)
}

// fallbackPlan wraps the raw response in a one-task plan.
func fallbackPlan(response string) *models.TaskPlan {
	desc := strings.TrimSpace(response)
	if runes := []rune(desc); len(runes) > fallbackDescriptionLimit {
		desc = string(runes[:fallbackDescriptionLimit])
	}
	return &models.TaskPlan{
		Title: "Workflow",
		Tasks: []models.PlannedTask{
			{Description: desc},
		},
	}
}

// extractObject returns the first balanced {...} literal in the text,
// looking inside a fenced code block first. Returns "" if none is found.
func extractObject(text string) string {
	if inner := stripFence(text); inner != "" {
		text = inner
	}

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

// stripFence returns the contents of the first ```-fenced block, or "".
func stripFence(text string) string {
	open := strings.Index(text, "```")
	if open == -1 {
		return ""
	}
	rest := text[open+3:]
	// Drop an optional language tag on the fence line.
	if nl := strings.Index(rest, "\n"); nl != -1 {
		rest = rest[nl+1:]
	}
	close := strings.Index(rest, "```")
	if close == -1 {
		return ""
	}
	return rest[:close]
}

// normalizePlan fills in optional fields the model left out.
func normalizePlan(plan *models.TaskPlan) {
	if plan.Title == "" {
		plan.Title = "Workflow"
	}
	for i := range plan.Tasks {
		t := &plan.Tasks[i]
		if t.SuggestedRole == "" {
			t.SuggestedRole = "general"
		}
		if !t.Priority.Valid() {
			t.Priority = models.PriorityMedium
		}
		if t.DependsOn == nil {
			t.DependsOn = []int{}
		}
		switch t.EstimatedComplexity {
		case models.ComplexitySimple, models.ComplexityModerate, models.ComplexityComplex:
		default:
			t.EstimatedComplexity = models.ComplexityModerate
		}
	}
}
