package stats

import (
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// Analyzer runs the statistical pass over one score set. It holds only the read-only catalog.
type Analyzer struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Analyzer {
	return &Analyzer{cat: cat}
}

// Analyze computes descriptive statistics, trends, correlations, classification and benchmarks.
// curriculum selects the benchmark table; unknown names fall back to the catalog default.
func (a *Analyzer) Analyze(set assessment.SubjectScoreSet, curriculum string) (assessment.Analysis, error) {
	if set.Len() == 0 {
		return assessment.Analysis{}, assessment.AnalysisErr(assessment.ReasonEmptyInput, nil)
	}
	if err := set.Validate(); err != nil {
		return assessment.Analysis{}, assessment.AnalysisErr("invalid score set", err)
	}

	all := set.AllScores()
	out := assessment.Analysis{
		Overall:      Describe(all),
		Subjects:     make(map[string]assessment.SubjectPerformance, set.Len()),
		Correlations: Correlations(set),
		Distribution: Distribution(all),
	}
	trends := make(map[string]assessment.Trend, set.Len())
	for _, s := range set.Subjects {
		t := Trend(s.Scores)
		trends[s.Subject] = t
		out.Subjects[s.Subject] = assessment.SubjectPerformance{
			Stats:          Describe(s.Scores),
			Classification: Classify(s.Mean),
			Trend:          t,
			Benchmark:      Compare(a.cat, curriculum, s.Subject, s.Mean),
		}
	}
	out.Trend = Overall(set, trends)
	return out, nil
}
