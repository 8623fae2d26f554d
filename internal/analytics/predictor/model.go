package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultMinRecords is the fewest complete historical records that still train a model.
const DefaultMinRecords = 3

const (
	DefaultRidgeLambda = 1.0
	defaultK           = 5
	ridgeShare         = 0.7
)

var ErrInsufficientData = errors.New("not enough complete historical records to train")

type TrainConfig struct {
	MinRecords int
	Lambda     float64
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.MinRecords <= 0 {
		c.MinRecords = DefaultMinRecords
	}
	if c.Lambda <= 0 {
		c.Lambda = DefaultRidgeLambda
	}
	return c
}

// Metrics describe a training run. RMSE is leave-one-out for the nearest-neighbour half of the blend.
type Metrics struct {
	Samples  int     `json:"samples"`
	RMSE     float64 `json:"rmse"`
	Accuracy float64 `json:"risk_accuracy"`
}

// Snapshot is an immutable set of trained parameters. It is safe to share between runs.
type Snapshot struct {
	Features  []string  `json:"features"`
	TrainedAt time.Time `json:"trained_at"`
	Ridge     Ridge     `json:"ridge"`
	KNN       KNN       `json:"knn"`
	Risk      Softmax   `json:"risk"`
	Metrics   Metrics   `json:"metrics"`
}

// Train fits the ensemble. Fewer than cfg.MinRecords samples returns ErrInsufficientData.
func Train(samples []Sample, cfg TrainConfig, now time.Time) (*Snapshot, error) {
	cfg = cfg.withDefaults()
	if len(samples) < cfg.MinRecords {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(samples), cfg.MinRecords)
	}
	x := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		x[i] = s.Features.Vector()
		y[i] = s.NextAcademic
		labels[i] = riskIndex(s.RiskLabel())
	}

	ridge, err := fitRidge(x, y, cfg.Lambda)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Features:  append([]string{}, FeatureNames...),
		TrainedAt: now.UTC(),
		Ridge:     ridge,
		KNN:       KNN{K: min(defaultK, len(samples)-1), Points: x, Targets: y},
		Risk:      fitSoftmax(x, labels),
	}

	sq, hits := 0.0, 0
	for i := range x {
		pred := snap.blend(x[i], i)
		sq += (pred - y[i]) * (pred - y[i])
		if argmax(snap.Risk.Probabilities(x[i])) == labels[i] {
			hits++
		}
	}
	snap.Metrics = Metrics{
		Samples:  len(samples),
		RMSE:     math.Sqrt(sq / float64(len(x))),
		Accuracy: float64(hits) / float64(len(x)),
	}
	return snap, nil
}

// blend mixes the ridge and nearest-neighbour estimates.
func (s *Snapshot) blend(v []float64, skip int) float64 {
	r := s.Ridge.Predict(v)
	k := s.KNN.Predict(v, skip)
	if math.IsNaN(k) {
		return r
	}
	return ridgeShare*r + (1-ridgeShare)*k
}

// Validate checks that the parameters agree with the current feature layout.
func (s *Snapshot) Validate() error {
	d := len(FeatureNames)
	switch {
	case s == nil:
		return errors.New("snapshot is nil")
	case len(s.Features) != d:
		return fmt.Errorf("snapshot has %d features, want %d", len(s.Features), d)
	case len(s.Ridge.Coef) != d:
		return fmt.Errorf("ridge has %d coefficients, want %d", len(s.Ridge.Coef), d)
	case len(s.KNN.Points) == 0 || len(s.KNN.Points) != len(s.KNN.Targets):
		return errors.New("knn points and targets disagree")
	case len(s.Risk.Weights) != 3:
		return fmt.Errorf("risk classifier has %d classes, want 3", len(s.Risk.Weights))
	}
	for i, name := range FeatureNames {
		if s.Features[i] != name {
			return fmt.Errorf("feature %d is %q, want %q", i, s.Features[i], name)
		}
	}
	for _, row := range s.Risk.Weights {
		if len(row) != d+1 {
			return fmt.Errorf("risk classifier row has %d weights, want %d", len(row), d+1)
		}
	}
	return nil
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// DecodeSnapshot parses and validates persisted parameters.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
