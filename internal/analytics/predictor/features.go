package predictor

import (
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// FeatureNames lists the model inputs in vector order.
var FeatureNames = []string{
	"academic", "psychological", "physical", "subject_variance", "trend_slope", "age", "gender", "grade",
}

// Features are the raw predictor inputs for one observation.
type Features struct {
	Academic        float64 `json:"academic"`
	Psychological   float64 `json:"psychological"`
	Physical        float64 `json:"physical"`
	SubjectVariance float64 `json:"subject_variance"`
	TrendSlope      float64 `json:"trend_slope"`
	Age             int     `json:"age"`
	Gender          int     `json:"gender"`
	Grade           int     `json:"grade"`
}

// Vector scales every feature to roughly [0, 1] so one ridge penalty fits all of them.
func (f Features) Vector() []float64 {
	return []float64{
		f.Academic / 100,
		f.Psychological / 100,
		f.Physical / 100,
		assessment.Clamp(f.SubjectVariance/400, 0, 1),
		assessment.Clamp(f.TrendSlope/20, -1, 1),
		float64(f.Age) / 18,
		float64(f.Gender) / 3,
		float64(f.Grade) / 12,
	}
}

// FeaturesFrom builds the inputs from a scored run.
func FeaturesFrom(res assessment.AssessmentResult, set assessment.SubjectScoreSet, student assessment.Student) Features {
	return Features{
		Academic:        res.AcademicScore,
		Psychological:   res.PsychologicalScore,
		Physical:        res.PhysicalScore,
		SubjectVariance: SubjectVarianceMean(res, set),
		TrendSlope:      res.PerformanceTrend.AverageSlope,
		Age:             student.Age,
		Gender:          student.GenderCode(),
		Grade:           student.Grade,
	}
}

// SubjectVarianceMean is the mean per-subject score variance; single-attempt subjects count as zero.
func SubjectVarianceMean(res assessment.AssessmentResult, set assessment.SubjectScoreSet) float64 {
	if set.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, name := range set.Names() {
		sum += res.SubjectPerformance[name].Stats.Variance
	}
	return sum / float64(set.Len())
}

// Sample is one complete historical observation: inputs plus the score that followed.
type Sample struct {
	Features     Features
	NextAcademic float64
}

// RiskLabel buckets the observed outcome the same way the rule-based classifier does.
func (s Sample) RiskLabel() string {
	return RuleRisk(s.NextAcademic, s.Features.Psychological)
}

// RuleRisk buckets the mean of academic and psychological scores.
func RuleRisk(academic, psychological float64) string {
	m := (academic + psychological) / 2
	switch {
	case m >= 75:
		return assessment.RiskLow
	case m >= 60:
		return assessment.RiskMedium
	default:
		return assessment.RiskHigh
	}
}
