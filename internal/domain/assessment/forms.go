package assessment

// FormKind tags an AssessmentForm variant; each kind is scored against the framework of the same kind.
type FormKind string

const (
	FormAcademic      FormKind = "academic"
	FormPhysical      FormKind = "physical"
	FormPsychological FormKind = "psychological"
	FormCareer        FormKind = "career"
)

func (k FormKind) Valid() bool {
	switch k {
	case FormAcademic, FormPhysical, FormPsychological, FormCareer:
		return true
	default:
		return false
	}
}

// AssessmentForm is a plain record of criterion responses.
type AssessmentForm struct {
	Kind      FormKind           `json:"kind" validate:"required,oneof=academic physical psychological career"`
	Responses map[string]float64 `json:"responses" validate:"required,min=1"`
}

type CriterionScore struct {
	Criterion  string  `json:"criterion"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
	Level      string  `json:"level"`
	Descriptor string  `json:"descriptor"`
}

type DomainScore struct {
	Domain   string           `json:"domain"`
	Weight   float64          `json:"weight"`
	Score    float64          `json:"score"`
	Criteria []CriterionScore `json:"criteria"`
}

// FormScore is the dispatcher's output for one form.
type FormScore struct {
	Kind      FormKind      `json:"kind"`
	Framework string        `json:"framework"`
	Score     float64       `json:"score"`
	Domains   []DomainScore `json:"domains"`
	Excluded  []string      `json:"excluded_domains"`
}

// Domain returns a scored domain by name.
func (f FormScore) Domain(name string) (DomainScore, bool) {
	for _, d := range f.Domains {
		if d.Domain == name {
			return d, true
		}
	}
	return DomainScore{}, false
}
