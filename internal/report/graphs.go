package report

import (
	"fmt"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/stats"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// MaxAreaSeries caps the subjects drawn on the prediction area chart.
const MaxAreaSeries = 6

var palette = []string{"#2563EB", "#16A34A", "#F59E0B", "#DC2626", "#7C3AED", "#0891B2", "#DB2777", "#65A30D"}

var bucketColors = map[string]string{
	assessment.ClassExcellent:    "#16A34A",
	assessment.ClassGood:         "#2563EB",
	assessment.ClassAverage:      "#F59E0B",
	assessment.ClassBelowAverage: "#DC2626",
}

const (
	studentColor   = "#2563EB"
	benchmarkColor = "#9CA3AF"
	predictedColor = "#7C3AED"
)

// Graphs builds the five chart descriptors from one run's outputs.
func Graphs(set assessment.SubjectScoreSet, res assessment.AssessmentResult, pred assessment.PredictionResult) assessment.GraphDescriptorSet {
	names := set.Names()
	means := set.Means()
	shift := pred.NextPeriod.Scores.Academic - res.AcademicScore

	benchmarks := make([]float64, 0, len(names))
	predicted := make([]float64, 0, len(names))
	for i, name := range names {
		benchmarks = append(benchmarks, res.SubjectPerformance[name].Benchmark.Benchmark)
		predicted = append(predicted, assessment.Clamp(means[i]+shift, 0, 100))
	}

	return assessment.GraphDescriptorSet{
		Radar: assessment.GraphDescriptor{
			Kind:   assessment.ChartRadar,
			Title:  "Subject performance vs benchmark",
			Labels: names,
			Datasets: []assessment.Dataset{
				{Label: "Student", Data: means, Color: studentColor},
				{Label: "Benchmark", Data: benchmarks, Color: benchmarkColor},
			},
			Colors: []string{studentColor, benchmarkColor},
		},
		TrendLine: assessment.GraphDescriptor{
			Kind:   assessment.ChartTrendLine,
			Title:  "Current and predicted subject means",
			Labels: append([]string{}, names...),
			Datasets: []assessment.Dataset{
				{Label: "Current", Data: append([]float64{}, means...), Color: studentColor},
				{Label: "Predicted", Data: predicted, Color: predictedColor},
			},
			Colors: []string{studentColor, predictedColor},
		},
		Distribution:   distribution(res.Distribution),
		Heatmap:        heatmap(set, res.Correlations),
		PredictionArea: predictionArea(set, predicted),
	}
}

func distribution(dist map[string]float64) assessment.GraphDescriptor {
	data := make([]float64, 0, len(assessment.ClassBuckets))
	colors := make([]string, 0, len(assessment.ClassBuckets))
	for _, b := range assessment.ClassBuckets {
		data = append(data, dist[b])
		colors = append(colors, bucketColors[b])
	}
	return assessment.GraphDescriptor{
		Kind:     assessment.ChartDistribution,
		Title:    "Score distribution",
		Labels:   append([]string{}, assessment.ClassBuckets...),
		Datasets: []assessment.Dataset{{Label: "Share of scores (%)", Data: data, Color: studentColor}},
		Colors:   colors,
	}
}

func heatmap(set assessment.SubjectScoreSet, pairs []assessment.Correlation) assessment.GraphDescriptor {
	return assessment.GraphDescriptor{
		Kind:     assessment.ChartHeatmap,
		Title:    "Subject correlations",
		Labels:   set.Names(),
		Datasets: []assessment.Dataset{},
		Matrix:   stats.Matrix(set, pairs),
		Colors:   []string{"#DC2626", "#F9FAFB", "#2563EB"},
	}
}

// predictionArea plots each attempt as a period and appends the predicted mean as the last point.
// Shorter series repeat their last score so every series spans the same periods.
func predictionArea(set assessment.SubjectScoreSet, predicted []float64) assessment.GraphDescriptor {
	periods := set.MaxAttempts()
	labels := make([]string, 0, periods+1)
	for i := 1; i <= periods; i++ {
		labels = append(labels, fmt.Sprintf("Period %d", i))
	}
	labels = append(labels, "Predicted")

	out := assessment.GraphDescriptor{
		Kind:     assessment.ChartPredictionArea,
		Title:    "Score history and forecast",
		Labels:   labels,
		Datasets: []assessment.Dataset{},
		Colors:   []string{},
	}
	for i, s := range set.Subjects {
		if i >= MaxAreaSeries {
			break
		}
		data := make([]float64, 0, periods+1)
		for p := 0; p < periods; p++ {
			if p < len(s.Scores) {
				data = append(data, s.Scores[p])
			} else {
				data = append(data, s.Scores[len(s.Scores)-1])
			}
		}
		data = append(data, predicted[i])
		color := palette[i%len(palette)]
		out.Datasets = append(out.Datasets, assessment.Dataset{Label: s.Subject, Data: data, Color: color})
		out.Colors = append(out.Colors, color)
	}
	return out
}
