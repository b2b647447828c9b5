package models

// Complexity is the planner's rough effort estimate for a task.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// PlannedTask is the planner's pre-persistence representation of a task.
// DependsOn holds indices into the same plan's task slice; they are resolved
// to TaskDependency rows once real task ids exist.
type PlannedTask struct {
	Description         string       `json:"description"`
	SuggestedRole       string       `json:"suggested_role"`
	Priority            TaskPriority `json:"priority"`
	DependsOn           []int        `json:"depends_on"`
	EstimatedComplexity Complexity   `json:"estimated_complexity"`
}

// TaskPlan is a validated decomposition of a request, produced by the
// planner and never persisted as-is.
type TaskPlan struct {
	Title string        `json:"title"`
	Tasks []PlannedTask `json:"tasks"`
}
