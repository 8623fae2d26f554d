package assessment

type Category string

const (
	CategoryAcademic        Category = "academic"
	CategoryPsychological   Category = "psychological"
	CategoryPhysical        Category = "physical"
	CategoryCareer          Category = "career"
	CategoryStudyMethod     Category = "study_method"
	CategoryExtracurricular Category = "extracurricular"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities; higher is more pressing.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

type Recommendation struct {
	Category        Category `json:"category"`
	Priority        Priority `json:"priority"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ActionableSteps []string `json:"actionable_steps"`
	ExpectedOutcome string   `json:"expected_outcome"`
	Timeline        string   `json:"timeline"`
}
