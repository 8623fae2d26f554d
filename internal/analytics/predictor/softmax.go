package predictor

import (
	"math"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// Softmax is a multinomial logistic classifier over the risk buckets.
// Weights has one row per class in assessment.RiskBuckets order; the last column is the bias.
type Softmax struct {
	Weights [][]float64 `json:"weights"`
}

const (
	softmaxEpochs = 400
	softmaxRate   = 0.5
	softmaxL2     = 1e-3
)

// fitSoftmax runs batch gradient descent from zero weights, so the result depends only on the data.
func fitSoftmax(x [][]float64, labels []int) Softmax {
	classes := len(assessment.RiskBuckets)
	d := len(x[0]) + 1
	w := make([][]float64, classes)
	for c := range w {
		w[c] = make([]float64, d)
	}
	grad := make([][]float64, classes)
	for c := range grad {
		grad[c] = make([]float64, d)
	}
	n := float64(len(x))
	for epoch := 0; epoch < softmaxEpochs; epoch++ {
		for c := range grad {
			for j := range grad[c] {
				grad[c][j] = 0
			}
		}
		for i, row := range x {
			p := probabilities(w, row)
			for c := 0; c < classes; c++ {
				diff := p[c]
				if labels[i] == c {
					diff -= 1
				}
				for j, v := range row {
					grad[c][j] += diff * v
				}
				grad[c][d-1] += diff
			}
		}
		for c := 0; c < classes; c++ {
			for j := 0; j < d; j++ {
				g := grad[c][j] / n
				if j < d-1 {
					g += softmaxL2 * w[c][j]
				}
				w[c][j] -= softmaxRate * g
			}
		}
	}
	return Softmax{Weights: w}
}

// Probabilities returns one probability per risk bucket, summing to 1.
func (s Softmax) Probabilities(v []float64) []float64 {
	return probabilities(s.Weights, v)
}

func probabilities(w [][]float64, v []float64) []float64 {
	logits := make([]float64, len(w))
	maxLogit := math.Inf(-1)
	for c, row := range w {
		z := row[len(row)-1]
		for j := 0; j < len(row)-1 && j < len(v); j++ {
			z += row[j] * v[j]
		}
		logits[c] = z
		maxLogit = math.Max(maxLogit, z)
	}
	sum := 0.0
	for c := range logits {
		logits[c] = math.Exp(logits[c] - maxLogit)
		sum += logits[c]
	}
	for c := range logits {
		logits[c] /= sum
	}
	return logits
}

func riskIndex(bucket string) int {
	for i, b := range assessment.RiskBuckets {
		if b == bucket {
			return i
		}
	}
	return len(assessment.RiskBuckets) - 1
}
