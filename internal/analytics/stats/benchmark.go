package stats

import (
	"sort"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// MatchedCurriculumMean marks a comparison against the curriculum-wide benchmark mean.
const MatchedCurriculumMean = "curriculum_mean"

const (
	LevelAbove   = "above"
	LevelAverage = "average"
	LevelBelow   = "below"
)

// levelBand is how far from the benchmark, in points, still counts as average.
const levelBand = 5.0

// matchBenchmark finds the benchmark entry for subject: exact name, catalog group, then containment.
func matchBenchmark(cat *catalog.Catalog, table map[string]float64, subject string) (string, bool) {
	if _, ok := table[subject]; ok {
		return subject, true
	}
	lower := strings.ToLower(subject)
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.ToLower(k) == lower {
			return k, true
		}
	}
	if g, ok := cat.BenchmarkGroup(subject); ok {
		if _, ok := table[g]; ok {
			return g, true
		}
	}
	best := ""
	for _, k := range keys {
		lk := strings.ToLower(k)
		if strings.Contains(lower, lk) || strings.Contains(lk, lower) {
			if len(k) > len(best) {
				best = k
			}
		}
	}
	return best, best != ""
}

// Compare measures a subject mean against the curriculum benchmark table.
func Compare(cat *catalog.Catalog, curriculum, subject string, mean float64) assessment.BenchmarkComparison {
	table, resolved, _ := cat.BenchmarksFor(curriculum)
	out := assessment.BenchmarkComparison{}
	if key, ok := matchBenchmark(cat, table, subject); ok {
		out.Benchmark = table[key]
		out.MatchedSubject = key
	} else {
		out.Benchmark = cat.BenchmarkMean(resolved)
		out.MatchedSubject = MatchedCurriculumMean
	}
	out.Difference = mean - out.Benchmark
	out.Percentile = 50
	if out.Benchmark > 0 {
		out.Percentile = assessment.Clamp(mean/out.Benchmark*50+50, 1, 99)
	}
	switch {
	case out.Difference > levelBand:
		out.Level = LevelAbove
	case out.Difference < -levelBand:
		out.Level = LevelBelow
	default:
		out.Level = LevelAverage
	}
	return out
}
