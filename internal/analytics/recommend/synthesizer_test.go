package recommend

import (
	"strings"
	"testing"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func interests() assessment.RIASECScores {
	return assessment.RIASECScores{R: 50, I: 91, A: 82, S: 82, E: 50, C: 50}
}

func sortedByPriority(t *testing.T, recs []assessment.Recommendation) {
	t.Helper()
	for i := 1; i < len(recs); i++ {
		if recs[i].Priority.Rank() > recs[i-1].Priority.Rank() {
			t.Fatalf("not ordered by priority at %d: %s after %s", i, recs[i].Priority, recs[i-1].Priority)
		}
	}
}

func find(recs []assessment.Recommendation, category assessment.Category) []assessment.Recommendation {
	var out []assessment.Recommendation
	for _, r := range recs {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

func TestSynthesizeBalanced(t *testing.T) {
	s := New(testCatalog(t), Config{})
	recs := s.Synthesize(Input{
		Result: assessment.AssessmentResult{
			AcademicScore: 86.9, PsychologicalScore: 75.7, PhysicalScore: 74.2,
			StrengthAreas: []string{"Computer Science", "Science"}, ImprovementAreas: []string{"Hindi", "Social Studies"},
			GapAreas: []string{"Reading comprehension and written expression"},
		},
		Prediction: assessment.PredictionResult{LearningStyle: assessment.StyleVisual, NextPeriod: assessment.HorizonPrediction{RiskBucket: assessment.RiskLow}},
		Interests:  interests(),
	})
	sortedByPriority(t, recs)
	if len(recs) != 4 {
		t.Fatalf("count: want=4 got=%d %+v", len(recs), recs)
	}
	study := find(recs, assessment.CategoryStudyMethod)
	if len(study) != 1 || len(study[0].ActionableSteps) == 0 || len(study[0].ActionableSteps) > 6 {
		t.Fatalf("study method: got=%+v", study)
	}
	careers := find(recs, assessment.CategoryCareer)
	if len(careers) != 1 || !strings.Contains(careers[0].Title, "investigative") {
		t.Fatalf("career: got=%+v", careers)
	}
	if recs[len(recs)-1].Category != assessment.CategoryExtracurricular {
		t.Fatalf("last: want extracurricular got=%s", recs[len(recs)-1].Category)
	}
	for _, r := range find(recs, assessment.CategoryAcademic) {
		if r.Priority.Rank() >= assessment.PriorityHigh.Rank() {
			t.Fatalf("unexpected high academic recommendation: %+v", r)
		}
	}
}

func TestSynthesizeAllZero(t *testing.T) {
	s := New(testCatalog(t), Config{})
	recs := s.Synthesize(Input{
		Result: assessment.AssessmentResult{
			AcademicScore: 0, PsychologicalScore: 54, PhysicalScore: 52.5,
			ImprovementAreas: []string{}, StrengthAreas: []string{},
		},
		Prediction: assessment.PredictionResult{LearningStyle: assessment.StyleMultimodal, NextPeriod: assessment.HorizonPrediction{RiskBucket: assessment.RiskHigh}},
		Interests:  interests(),
	})
	sortedByPriority(t, recs)
	if recs[0].Priority != assessment.PriorityUrgent || recs[0].Category != assessment.CategoryAcademic {
		t.Fatalf("first: want urgent academic got=%+v", recs[0])
	}
	highAcademic := false
	for _, r := range find(recs, assessment.CategoryAcademic) {
		if r.Priority == assessment.PriorityHigh {
			highAcademic = true
		}
	}
	if !highAcademic {
		t.Fatalf("want a high-priority academic recommendation in %+v", recs)
	}
	if len(find(recs, assessment.CategoryPhysical)) != 1 || len(find(recs, assessment.CategoryPsychological)) != 1 {
		t.Fatalf("want physical and psychological recommendations: %+v", recs)
	}
}

func TestDecliningTrendRecommendation(t *testing.T) {
	recs := New(testCatalog(t), Config{}).Synthesize(Input{
		Result: assessment.AssessmentResult{
			AcademicScore: 80, PsychologicalScore: 75, PhysicalScore: 74,
			PerformanceTrend: assessment.PerformanceTrend{Declining: []string{"Mathematics"}},
		},
		Interests: interests(),
	})
	got := find(recs, assessment.CategoryAcademic)
	if len(got) != 1 || got[0].Priority != assessment.PriorityHigh || !strings.Contains(got[0].Description, "Mathematics") {
		t.Fatalf("declining: got=%+v", got)
	}
}

func TestUrgentDemotion(t *testing.T) {
	in := Input{
		Result:     assessment.AssessmentResult{AcademicScore: 30, PsychologicalScore: 30, PhysicalScore: 70},
		Prediction: assessment.PredictionResult{NextPeriod: assessment.HorizonPrediction{RiskBucket: assessment.RiskHigh}},
		Interests:  interests(),
	}
	count := func(recs []assessment.Recommendation) int {
		n := 0
		for _, r := range recs {
			if r.Priority == assessment.PriorityUrgent {
				n++
			}
		}
		return n
	}
	if got := count(New(testCatalog(t), Config{}).Synthesize(in)); got != 1 {
		t.Fatalf("single urgent: want=1 got=%d", got)
	}
	if got := count(New(testCatalog(t), Config{AllowMultipleUrgent: true}).Synthesize(in)); got != 2 {
		t.Fatalf("multiple urgent: want=2 got=%d", got)
	}
}

func TestMaxDropsLowestPriority(t *testing.T) {
	in := Input{
		Result: assessment.AssessmentResult{
			AcademicScore: 30, PsychologicalScore: 30, PhysicalScore: 30,
			StrengthAreas: []string{"Art"}, GapAreas: []string{"Numerical reasoning"},
			PerformanceTrend: assessment.PerformanceTrend{Declining: []string{"Mathematics"}},
		},
		Prediction: assessment.PredictionResult{LearningStyle: assessment.StyleAuditory, NextPeriod: assessment.HorizonPrediction{RiskBucket: assessment.RiskHigh}},
		Interests:  interests(),
	}
	all := New(testCatalog(t), Config{}).Synthesize(in)
	capped := New(testCatalog(t), Config{Max: 3}).Synthesize(in)
	if len(capped) != 3 {
		t.Fatalf("cap: want=3 got=%d", len(capped))
	}
	for i := range capped {
		if capped[i].Title != all[i].Title {
			t.Fatalf("cap should keep the highest priorities: got=%s want=%s", capped[i].Title, all[i].Title)
		}
	}
	if len(find(capped, assessment.CategoryExtracurricular)) != 0 {
		t.Fatalf("low priority should be dropped first")
	}
}
