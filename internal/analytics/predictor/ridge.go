package predictor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge is an L2-penalized linear regressor. The intercept is not penalized.
type Ridge struct {
	Lambda    float64   `json:"lambda"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// fitRidge solves on standardized columns and reports coefficients on the original scale.
func fitRidge(x [][]float64, y []float64, lambda float64) (Ridge, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return Ridge{}, fmt.Errorf("ridge: need matching non-empty inputs, got %d rows and %d targets", n, len(y))
	}
	d := len(x[0])
	means := make([]float64, d)
	scales := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		means[j], scales[j] = stat.PopMeanStdDev(col, nil)
		if scales[j] == 0 || math.IsNaN(scales[j]) {
			scales[j] = 1
		}
	}
	yMean := stat.Mean(y, nil)

	xs := mat.NewDense(n, d, nil)
	yc := mat.NewVecDense(n, nil)
	for i := range x {
		for j := 0; j < d; j++ {
			xs.Set(i, j, (x[i][j]-means[j])/scales[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.Dense
	gram.Mul(xs.T(), xs)
	for j := 0; j < d; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(xs.T(), yc)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		return Ridge{}, fmt.Errorf("ridge: solve normal equations: %w", err)
	}
	out := Ridge{Lambda: lambda, Coef: make([]float64, d), Intercept: yMean}
	for j := 0; j < d; j++ {
		out.Coef[j] = beta.AtVec(j) / scales[j]
		out.Intercept -= out.Coef[j] * means[j]
	}
	return out, nil
}

func (r Ridge) Predict(v []float64) float64 {
	out := r.Intercept
	for j, c := range r.Coef {
		if j < len(v) {
			out += c * v[j]
		}
	}
	return out
}
