package career

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/scoring"
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/stats"
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

func scoredBalanced(t *testing.T) (*catalog.Catalog, assessment.SubjectScoreSet, assessment.AssessmentResult) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	set := assessment.SubjectScoreSet{Subjects: []assessment.SubjectScores{
		assessment.NewSubjectScores("Mathematics", []float64{88, 92, 85}),
		assessment.NewSubjectScores("English", []float64{85, 88, 90}),
		assessment.NewSubjectScores("Science", []float64{90, 87, 93}),
		assessment.NewSubjectScores("Social Studies", []float64{82, 85, 80}),
		assessment.NewSubjectScores("Hindi", []float64{75, 78, 80}),
		assessment.NewSubjectScores("Computer Science", []float64{95, 98, 94}),
	}}
	analysis, err := stats.New(cat).Analyze(set, "CBSE")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	res, _ := scoring.New(cat, scoring.DefaultFallbackBlend).Score(scoring.Input{Set: set, Analysis: analysis, Curriculum: "CBSE"})
	return cat, set, res
}

func TestInterestsFromSubjects(t *testing.T) {
	cat, set, res := scoredBalanced(t)
	scores, source := Interests(cat, set, res)
	if source != SourceSubjects {
		t.Fatalf("source: want=subjects got=%s", source)
	}
	if math.Abs(scores.I-(88.3333+90+95.6667)/3) > 1e-3 {
		t.Fatalf("I: got=%v", scores.I)
	}
	if math.Abs(scores.R-0.6*res.AcademicScore) > 1e-9 {
		t.Fatalf("R: want no-evidence share got=%v", scores.R)
	}
	if code := scores.HollandCode(); code[0] != 'I' {
		t.Fatalf("holland: want I first got=%s", code)
	}
}

func TestInterestsPreferCareerForm(t *testing.T) {
	cat, set, res := scoredBalanced(t)
	res.FormScores = []assessment.FormScore{{
		Kind:    assessment.FormCareer,
		Domains: []assessment.DomainScore{{Domain: "R", Score: 100}, {Domain: "E", Score: 10}},
	}}
	scores, source := Interests(cat, set, res)
	if source != SourceForm || scores.R != 100 || scores.E != 10 {
		t.Fatalf("form: got=%+v source=%s", scores, source)
	}
	if scores.HollandCode()[0] != 'R' {
		t.Fatalf("holland: got=%s", scores.HollandCode())
	}
}

func TestMapRanksCareers(t *testing.T) {
	cat, set, res := scoredBalanced(t)
	scores, source := Interests(cat, set, res)
	m := NewMapper(cat)
	got := m.Map(set, res, scores, source)

	if len(got.Matches) != TopMatches {
		t.Fatalf("matches: want=%d got=%d", TopMatches, len(got.Matches))
	}
	for i := 1; i < len(got.Matches); i++ {
		if got.Matches[i].MatchScore > got.Matches[i-1].MatchScore {
			t.Fatalf("matches not descending at %d: %+v", i, got.Matches)
		}
	}
	for _, c := range got.Matches {
		if c.MatchScore < 0 || c.MatchScore > 100 {
			t.Fatalf("match out of range: %+v", c)
		}
	}
	code := got.HollandCode
	if len(code) != 3 || code[0] == code[1] || code[1] == code[2] || code[0] == code[2] || !strings.ContainsAny(code[:1], "RIASEC") {
		t.Fatalf("holland: got=%s", code)
	}
	if n := len(got.DevelopmentPath.Short); n < 2 || n > 3 {
		t.Fatalf("development path: got=%+v", got.DevelopmentPath)
	}
	if again := m.Map(set, res, scores, source); !reflect.DeepEqual(got, again) {
		t.Fatalf("map should be deterministic")
	}
}

func TestSkillGapsExcludeDemonstrated(t *testing.T) {
	cat, set, res := scoredBalanced(t)
	scores, source := Interests(cat, set, res)
	got := NewMapper(cat).Map(set, res, scores, source)
	shown := map[string]bool{}
	for _, s := range res.StrengthAreas {
		for _, sk := range cat.SkillsFor(s) {
			shown[sk] = true
		}
	}
	for _, g := range got.SkillGaps {
		if shown[g] {
			t.Fatalf("skill gap %q is already demonstrated", g)
		}
	}
}
