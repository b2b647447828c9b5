package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/calebmorris/foreman/pkg/models"
)

// fakeCompleter returns a canned response or error.
type fakeCompleter struct {
	response string
	err      error
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.lastUser = user
	return f.response, f.err
}

var roster = []models.Worker{
	{ID: "w1", Role: "researcher", Status: models.WorkerIdle},
	{ID: "w2", Role: "writer", Status: models.WorkerBusy},
}

func TestPlanTasksParsesBareObject(t *testing.T) {
	fc := &fakeCompleter{response: `{
		"title": "Report",
		"tasks": [
			{"description": "Research topic", "suggested_role": "researcher", "priority": "high", "depends_on": [], "estimated_complexity": "moderate"},
			{"description": "Write summary", "suggested_role": "writer", "depends_on": [0]}
		]
	}`}

	plan, err := New(fc).PlanTasks(context.Background(), "write a report", roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Title != "Report" {
		t.Errorf("expected title Report, got %q", plan.Title)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(plan.Tasks))
	}
	if got := plan.Tasks[1].DependsOn; len(got) != 1 || got[0] != 0 {
		t.Errorf("expected task 1 to depend on [0], got %v", got)
	}
}

func TestPlanTasksStripsFencedBlock(t *testing.T) {
	fc := &fakeCompleter{response: "Here is the plan:\n```json\n" +
		`{"title":"T","tasks":[{"description":"only task"}]}` + "\n```\nDone."}

	plan, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].Description != "only task" {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestPlanTasksNormalizesDefaults(t *testing.T) {
	fc := &fakeCompleter{response: `{"title":"T","tasks":[{"description":"bare task"}]}`}

	plan, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task := plan.Tasks[0]
	if task.SuggestedRole != "general" {
		t.Errorf("expected default role general, got %q", task.SuggestedRole)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("expected default priority medium, got %q", task.Priority)
	}
	if task.DependsOn == nil || len(task.DependsOn) != 0 {
		t.Errorf("expected empty depends_on, got %v", task.DependsOn)
	}
	if task.EstimatedComplexity != models.ComplexityModerate {
		t.Errorf("expected default complexity moderate, got %q", task.EstimatedComplexity)
	}
}

func TestPlanTasksFallbackOnGarbage(t *testing.T) {
	raw := strings.Repeat("not json at all. ", 50)
	fc := &fakeCompleter{response: raw}

	plan, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	if err != nil {
		t.Fatalf("expected graceful fallback, got error: %v", err)
	}
	if len(plan.Tasks) != 1 {
		t.Fatalf("expected single-task fallback plan, got %d tasks", len(plan.Tasks))
	}
	if len(plan.Tasks[0].Description) > fallbackDescriptionLimit {
		t.Errorf("fallback description exceeds %d chars", fallbackDescriptionLimit)
	}
	if !strings.HasPrefix(raw, plan.Tasks[0].Description) {
		t.Error("fallback description should be a prefix of the raw response")
	}
}

func TestPlanTasksRejectsEmptyTaskList(t *testing.T) {
	fc := &fakeCompleter{response: `{"title":"Empty","tasks":[]}`}

	_, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlanningError for a plan with no tasks, got %v", err)
	}
}

func TestFallbackPlanTruncatesOnRuneBoundary(t *testing.T) {
	raw := strings.Repeat("日", fallbackDescriptionLimit+10)

	plan := fallbackPlan(raw)
	desc := plan.Tasks[0].Description
	if got := len([]rune(desc)); got != fallbackDescriptionLimit {
		t.Fatalf("expected %d runes, got %d", fallbackDescriptionLimit, got)
	}
	if !strings.HasSuffix(desc, "日") {
		t.Error("truncation split a multi-byte rune")
	}
}

func TestPlanTasksRejectsTooManyTasks(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"title":"T","tasks":[`)
	for i := 0; i < MaxPlanTasks+1; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"description":"task"}`)
	}
	b.WriteString(`]}`)
	fc := &fakeCompleter{response: b.String()}

	_, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlanningError, got %v", err)
	}
}

func TestPlanTasksRejectsOutOfRangeDependency(t *testing.T) {
	fc := &fakeCompleter{response: `{"title":"T","tasks":[{"description":"a","depends_on":[5]}]}`}

	_, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlanningError for out-of-range index, got %v", err)
	}
}

func TestPlanTasksRejectsSelfReference(t *testing.T) {
	fc := &fakeCompleter{response: `{"title":"T","tasks":[{"description":"a","depends_on":[0]}]}`}

	_, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlanningError for self-reference, got %v", err)
	}
}

func TestPlanTasksRejectsIndexCycle(t *testing.T) {
	fc := &fakeCompleter{response: `{"title":"T","tasks":[
		{"description":"a","depends_on":[1]},
		{"description":"b","depends_on":[2]},
		{"description":"c","depends_on":[0]}
	]}`}

	_, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlanningError for cyclic indices, got %v", err)
	}
}

func TestPlanTasksCompleterErrorIsPlanningError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("api down")}

	_, err := New(fc).PlanTasks(context.Background(), "do it", roster)
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlanningError wrapping completer failure, got %v", err)
	}
}

func TestPlanTasksPromptListsWorkers(t *testing.T) {
	fc := &fakeCompleter{response: `{"title":"T","tasks":[{"description":"a"}]}`}

	if _, err := New(fc).PlanTasks(context.Background(), "do it", roster); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(fc.lastUser, "researcher") || !strings.Contains(fc.lastUser, "w2") {
		t.Errorf("prompt should enumerate the roster, got: %s", fc.lastUser)
	}
}

func TestExtractObjectNestedBraces(t *testing.T) {
	text := `prefix {"a": {"b": "}"}, "c": 1} suffix`
	got := extractObject(text)
	if got != `{"a": {"b": "}"}, "c": 1}` {
		t.Errorf("unexpected extraction: %q", got)
	}
}
