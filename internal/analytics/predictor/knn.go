package predictor

import (
	"math"
	"sort"
)

// KNN averages the targets of the K nearest training points by Euclidean distance.
type KNN struct {
	K       int         `json:"k"`
	Points  [][]float64 `json:"points"`
	Targets []float64   `json:"targets"`
}

// Predict skips the point at index skip, which lets training score itself leave-one-out. Pass -1 to use every point.
func (k KNN) Predict(v []float64, skip int) float64 {
	type neighbour struct {
		dist float64
		idx  int
	}
	ns := make([]neighbour, 0, len(k.Points))
	for i, p := range k.Points {
		if i == skip {
			continue
		}
		ns = append(ns, neighbour{dist: euclidean(p, v), idx: i})
	}
	if len(ns) == 0 {
		return math.NaN()
	}
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].dist < ns[j].dist })
	n := min(k.K, len(ns))
	if n <= 0 {
		n = 1
	}
	sum := 0.0
	for _, nb := range ns[:n] {
		sum += k.Targets[nb.idx]
	}
	return sum / float64(n)
}

func euclidean(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		if i >= len(b) {
			break
		}
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
