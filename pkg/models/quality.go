package models

// QualityCheckResult is the grader's verdict on a task result or a whole
// workflow. It is attached to the final result handed back to the caller,
// never persisted as a first-class entity.
type QualityCheckResult struct {
	// Passed indicates the output satisfies the original request.
	Passed bool `json:"passed"`
	// Score is a 0-100 quality score.
	Score int `json:"score"`
	// Feedback is the grader's prose assessment.
	Feedback string `json:"feedback"`
	// Suggestions lists concrete improvements, if any.
	Suggestions []string `json:"suggestions,omitempty"`
}
