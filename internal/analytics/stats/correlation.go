package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

func Strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.8:
		return "very_strong"
	case a >= 0.6:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.2:
		return "weak"
	default:
		return "very_weak"
	}
}

// Pearson correlates two series over their common index prefix. ok is false with fewer than two aligned points.
// A constant series has no defined r and reports zero.
func Pearson(a, b []float64) (r float64, points int, ok bool) {
	n := min(len(a), len(b))
	if n < 2 {
		return 0, n, false
	}
	return finite(stat.Correlation(a[:n], b[:n], nil)), n, true
}

// Correlations returns every subject pair, in set order, that has enough aligned attempts.
func Correlations(set assessment.SubjectScoreSet) []assessment.Correlation {
	out := []assessment.Correlation{}
	for i := 0; i < len(set.Subjects); i++ {
		for j := i + 1; j < len(set.Subjects); j++ {
			a, b := set.Subjects[i], set.Subjects[j]
			r, n, ok := Pearson(a.Scores, b.Scores)
			if !ok {
				continue
			}
			out = append(out, assessment.Correlation{
				SubjectA: a.Subject,
				SubjectB: b.Subject,
				R:        r,
				Strength: Strength(r),
				Points:   n,
			})
		}
	}
	return out
}

// Matrix is the symmetric subject-by-subject r matrix with a unit diagonal. Omitted pairs are zero.
func Matrix(set assessment.SubjectScoreSet, pairs []assessment.Correlation) [][]float64 {
	idx := make(map[string]int, set.Len())
	for i, name := range set.Names() {
		idx[name] = i
	}
	m := make([][]float64, set.Len())
	for i := range m {
		m[i] = make([]float64, set.Len())
		m[i][i] = 1
	}
	for _, c := range pairs {
		i, okA := idx[c.SubjectA]
		j, okB := idx[c.SubjectB]
		if !okA || !okB {
			continue
		}
		m[i][j], m[j][i] = c.R, c.R
	}
	return m
}
