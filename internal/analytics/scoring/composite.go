package scoring

import (
	"fmt"
	"sort"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/stats"
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// DefaultFallbackBlend is the share of the academic score mixed into an estimated dimension.
const DefaultFallbackBlend = 0.25

// Input is everything the composite pass reads for one run.
type Input struct {
	Set        assessment.SubjectScoreSet
	Analysis   assessment.Analysis
	Forms      []assessment.AssessmentForm
	Student    assessment.Student
	Curriculum string
}

type Scorer struct {
	cat   *catalog.Catalog
	blend float64
}

// New builds a Scorer. blend outside [0, 1] uses DefaultFallbackBlend.
func New(cat *catalog.Catalog, blend float64) *Scorer {
	if blend < 0 || blend > 1 {
		blend = DefaultFallbackBlend
	}
	return &Scorer{cat: cat, blend: blend}
}

// AcademicFromSubjects is the equal-weight mean of subject means.
func AcademicFromSubjects(set assessment.SubjectScoreSet) float64 {
	if set.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range set.Means() {
		sum += m
	}
	return sum / float64(set.Len())
}

// Score derives the dimension scores, strength and improvement areas and gap areas.
func (s *Scorer) Score(in Input) (assessment.AssessmentResult, []string) {
	warnings := []string{}
	forms := map[assessment.FormKind]assessment.FormScore{}
	scored := []assessment.FormScore{}
	for _, f := range in.Forms {
		if _, dup := forms[f.Kind]; dup {
			warnings = append(warnings, fmt.Sprintf("ignoring extra %s form", f.Kind))
			continue
		}
		fs, w, err := ScoreFormFor(s.cat, f, in.Student.Age, in.Curriculum)
		warnings = append(warnings, w...)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		forms[f.Kind] = fs
		scored = append(scored, fs)
	}

	academic := AcademicFromSubjects(in.Set)
	out := assessment.AssessmentResult{
		AcademicSource:     assessment.ScoreFromSubjects,
		SubjectPerformance: in.Analysis.Subjects,
		PerformanceTrend:   in.Analysis.Trend,
		Overall:            in.Analysis.Overall,
		Distribution:       in.Analysis.Distribution,
		Correlations:       in.Analysis.Correlations,
		FormScores:         scored,
	}
	if fs, ok := forms[assessment.FormAcademic]; ok {
		w := s.cat.Scoring.AcademicFormWeight
		academic = (1-w)*academic + w*fs.Score
		out.AcademicSource = assessment.ScoreFromForm
	}
	out.AcademicScore = assessment.Clamp(academic, 0, 100)

	out.PsychologicalScore, out.PsychologicalSource = s.dimension(forms, assessment.FormPsychological, s.cat.Scoring.PsychologicalBaseline, out.AcademicScore)
	out.PhysicalScore, out.PhysicalSource = s.dimension(forms, assessment.FormPhysical, s.cat.Scoring.PhysicalBaseline, out.AcademicScore)
	if out.PsychologicalSource == assessment.ScoreEstimated {
		warnings = append(warnings, "psychological score estimated from the catalog baseline and academic score")
	}
	if out.PhysicalSource == assessment.ScoreEstimated {
		warnings = append(warnings, "physical score estimated from the catalog baseline and academic score")
	}
	out.OverallScore = assessment.OverallScore(out.AcademicScore, out.PsychologicalScore, out.PhysicalScore)

	out.StrengthAreas, out.ImprovementAreas = s.areas(in.Set, out.AcademicScore)
	out.GapAreas = s.gapAreas(in.Set, in.Analysis, out.ImprovementAreas)
	return out, warnings
}

func (s *Scorer) dimension(forms map[assessment.FormKind]assessment.FormScore, kind assessment.FormKind, baseline, academic float64) (float64, string) {
	if fs, ok := forms[kind]; ok {
		return fs.Score, assessment.ScoreFromForm
	}
	return assessment.Clamp((1-s.blend)*baseline+s.blend*academic, 0, 100), assessment.ScoreEstimated
}

// areas splits subjects whose mean clears the academic score by the strength margin.
// Strengths are ordered best first, improvements weakest first.
func (s *Scorer) areas(set assessment.SubjectScoreSet, academic float64) (strengths, improvements []string) {
	margin := s.cat.Scoring.StrengthMargin
	type entry struct {
		name string
		mean float64
	}
	var hi, lo []entry
	for _, ss := range set.Subjects {
		switch {
		case ss.Mean > academic+margin:
			hi = append(hi, entry{ss.Subject, ss.Mean})
		case ss.Mean < academic-margin:
			lo = append(lo, entry{ss.Subject, ss.Mean})
		}
	}
	sort.SliceStable(hi, func(i, j int) bool { return hi[i].mean > hi[j].mean })
	sort.SliceStable(lo, func(i, j int) bool { return lo[i].mean < lo[j].mean })
	strengths, improvements = []string{}, []string{}
	for _, e := range hi {
		strengths = append(strengths, e.name)
	}
	for _, e := range lo {
		improvements = append(improvements, e.name)
	}
	return strengths, improvements
}

// gapAreas names catalog skill areas for improvement subjects and below-benchmark subjects.
func (s *Scorer) gapAreas(set assessment.SubjectScoreSet, analysis assessment.Analysis, improvements []string) []string {
	out := []string{}
	seen := map[string]bool{}
	add := func(subject string) {
		g := s.cat.GapAreaFor(subject)
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	for _, subject := range improvements {
		add(subject)
	}
	for _, subject := range set.Names() {
		if analysis.Subjects[subject].Benchmark.Level == stats.LevelBelow {
			add(subject)
		}
	}
	return out
}
