package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// Describe summarizes values. Statistics that are undefined for the sample size are reported as zero.
func Describe(values []float64) assessment.DescriptiveStats {
	n := len(values)
	if n == 0 {
		return assessment.DescriptiveStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	out := assessment.DescriptiveStats{
		Count: n,
		Mean:  stat.Mean(values, nil),
		Min:   sorted[0],
		Max:   sorted[n-1],
	}
	out.Range = out.Max - out.Min
	out.Median = Quantile(sorted, 0.5)
	out.Q1 = Quantile(sorted, 0.25)
	out.Q2 = out.Median
	out.Q3 = Quantile(sorted, 0.75)
	out.P10 = Quantile(sorted, 0.10)
	out.P90 = Quantile(sorted, 0.90)
	out.P95 = Quantile(sorted, 0.95)

	if n >= 2 {
		out.Variance = finite(stat.Variance(values, nil))
		out.StdDev = math.Sqrt(out.Variance)
	}
	if out.StdDev > 0 {
		if n >= 3 {
			out.Skewness = finite(stat.Skew(values, nil))
		}
		if n >= 4 {
			out.Kurtosis = finite(stat.ExKurtosis(values, nil))
		}
	}
	return out
}

// Quantile interpolates linearly between closest ranks of an ascending slice.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Classify bins a score into one of the four classification buckets.
func Classify(score float64) string {
	switch {
	case score >= 90:
		return assessment.ClassExcellent
	case score >= 75:
		return assessment.ClassGood
	case score >= 60:
		return assessment.ClassAverage
	default:
		return assessment.ClassBelowAverage
	}
}

// Distribution reports the percentage of values in each bucket. Every bucket is present.
func Distribution(values []float64) map[string]float64 {
	out := make(map[string]float64, len(assessment.ClassBuckets))
	for _, b := range assessment.ClassBuckets {
		out[b] = 0
	}
	if len(values) == 0 {
		return out
	}
	for _, v := range values {
		out[Classify(v)]++
	}
	for k, c := range out {
		out[k] = c / float64(len(values)) * 100
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
