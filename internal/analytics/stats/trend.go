package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// Slopes beyond these bounds, in points per attempt, count as a real trend.
const (
	ImprovingSlope = 0.5
	DecliningSlope = -0.5
)

// Direction classifies a regression slope.
func Direction(slope float64) assessment.TrendDirection {
	switch {
	case slope > ImprovingSlope:
		return assessment.TrendImproving
	case slope < DecliningSlope:
		return assessment.TrendDeclining
	default:
		return assessment.TrendStable
	}
}

// Trend regresses scores against their attempt index.
func Trend(scores []float64) assessment.Trend {
	n := len(scores)
	out := assessment.Trend{Points: n, Direction: assessment.TrendInsufficient}
	if n == 0 {
		return out
	}
	out.Consistency = consistency(scores)
	if n < 2 {
		out.Intercept = scores[0]
		return out
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(x, scores, nil, false)
	out.Intercept = finite(alpha)
	out.Slope = finite(beta)
	out.RSquared = assessment.Clamp(finite(stat.RSquared(x, scores, nil, alpha, beta)), 0, 1)
	out.Direction = Direction(out.Slope)
	return out
}

// consistency is 1 - stdev/mean, bounded to [0, 1]. A zero mean has no consistency.
func consistency(scores []float64) float64 {
	mean := stat.Mean(scores, nil)
	if mean == 0 {
		return 0
	}
	sd := 0.0
	if len(scores) >= 2 {
		sd = finite(stat.StdDev(scores, nil))
	}
	return assessment.Clamp(1-sd/mean, 0, 1)
}

// Overall rolls per-subject trends into one direction using the average slope.
func Overall(set assessment.SubjectScoreSet, trends map[string]assessment.Trend) assessment.PerformanceTrend {
	out := assessment.PerformanceTrend{
		Direction: assessment.TrendInsufficient,
		Improving: []string{},
		Declining: []string{},
		Stable:    []string{},
	}
	sum, n := 0.0, 0
	for _, name := range set.Names() {
		t := trends[name]
		switch t.Direction {
		case assessment.TrendImproving:
			out.Improving = append(out.Improving, name)
		case assessment.TrendDeclining:
			out.Declining = append(out.Declining, name)
		case assessment.TrendStable:
			out.Stable = append(out.Stable, name)
		default:
			continue
		}
		sum += t.Slope
		n++
	}
	if n > 0 {
		out.AverageSlope = sum / float64(n)
		out.Direction = Direction(out.AverageSlope)
	}
	return out
}
