package quality

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/calebmorris/foreman/pkg/models"
)

type fakeCompleter struct {
	response string
	err      error
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.lastUser = user
	return f.response, f.err
}

func TestCheckTaskResultParsesVerdict(t *testing.T) {
	fc := &fakeCompleter{response: `{"passed": false, "score": 42, "feedback": "missing error handling", "suggestions": ["handle nil input"]}`}
	gate := New(fc)

	verdict, err := gate.CheckTaskResult(context.Background(), "build a parser", "write the lexer", "done")
	if err != nil {
		t.Fatalf("CheckTaskResult: %v", err)
	}
	if verdict.Passed {
		t.Error("expected failing verdict")
	}
	if verdict.Score != 42 {
		t.Errorf("score = %d, want 42", verdict.Score)
	}
	if verdict.Feedback != "missing error handling" {
		t.Errorf("feedback = %q", verdict.Feedback)
	}
	if len(verdict.Suggestions) != 1 || verdict.Suggestions[0] != "handle nil input" {
		t.Errorf("suggestions = %v", verdict.Suggestions)
	}
}

func TestCheckTaskResultFencedResponse(t *testing.T) {
	fc := &fakeCompleter{response: "Here is my grade:\n```json\n{\"passed\": true, \"score\": 91, \"feedback\": \"solid work\"}\n```"}
	gate := New(fc)

	verdict, err := gate.CheckTaskResult(context.Background(), "r", "t", "result")
	if err != nil {
		t.Fatalf("CheckTaskResult: %v", err)
	}
	if !verdict.Passed || verdict.Score != 91 {
		t.Errorf("verdict = %+v", verdict)
	}
}

func TestUnparseableResponseFailsOpen(t *testing.T) {
	fc := &fakeCompleter{response: "I cannot evaluate this work."}
	gate := New(fc)

	verdict, err := gate.CheckTaskResult(context.Background(), "r", "t", "result")
	if err != nil {
		t.Fatalf("CheckTaskResult: %v", err)
	}
	if !verdict.Passed {
		t.Error("fail-open verdict should pass")
	}
	if verdict.Score != 70 {
		t.Errorf("score = %d, want 70", verdict.Score)
	}
	if verdict.Feedback != "evaluation parse failed (defaulting to pass)" {
		t.Errorf("feedback = %q", verdict.Feedback)
	}
}

func TestCompleterErrorPropagates(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("api unavailable")}
	gate := New(fc)

	if _, err := gate.CheckTaskResult(context.Background(), "r", "t", "result"); err == nil {
		t.Fatal("expected error from failed completion")
	}
}

func TestScoreClamped(t *testing.T) {
	fc := &fakeCompleter{response: `{"passed": true, "score": 250, "feedback": "over-enthusiastic"}`}
	gate := New(fc)

	verdict, err := gate.CheckTaskResult(context.Background(), "r", "t", "result")
	if err != nil {
		t.Fatalf("CheckTaskResult: %v", err)
	}
	if verdict.Score != 100 {
		t.Errorf("score = %d, want clamped to 100", verdict.Score)
	}
}

func TestCheckWorkflowResultIncludesAllTasks(t *testing.T) {
	fc := &fakeCompleter{response: `{"passed": true, "score": 88, "feedback": "good"}`}
	gate := New(fc)

	tasks := []models.WorkflowTask{
		{Description: "design the schema", Status: models.TaskStatusCompleted, Result: "schema.sql written"},
		{Description: "seed fixtures", Status: models.TaskStatusSkipped, Result: ""},
	}
	if _, err := gate.CheckWorkflowResult(context.Background(), "set up the database", tasks); err != nil {
		t.Fatalf("CheckWorkflowResult: %v", err)
	}
	for _, want := range []string{"set up the database", "design the schema", "seed fixtures", "schema.sql written"} {
		if !strings.Contains(fc.lastUser, want) {
			t.Errorf("grading prompt missing %q", want)
		}
	}
}
