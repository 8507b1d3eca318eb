package geom

import (
	"math"

	"github.com/teranos/cspace/errors"
)

// Metric is a weighted Minkowski metric: one weight per dimension, an
// exponent P and the context used to resolve contextual weights.
type Metric struct {
	Weights []Weight `json:"weights"`
	P       float64  `json:"p"`
	Context string   `json:"context,omitempty"`
}

// NewMetric validates p and the weights, then copies the weights.
func NewMetric(weights []Weight, p float64) (Metric, error) {
	if math.IsNaN(p) || p <= 0 {
		return Metric{}, errors.InvalidDimensionf("minkowski exponent must be > 0, got %v", p)
	}
	if err := ValidateWeights(weights); err != nil {
		return Metric{}, err
	}
	w := make([]Weight, len(weights))
	copy(w, weights)
	return Metric{Weights: w, P: p}, nil
}

// EuclideanMetric is the unweighted p=2 metric over n dimensions.
func EuclideanMetric(n int) Metric {
	return Metric{Weights: Constants(Uniform(n)), P: 2}
}

// Resolved returns the numeric weights under the metric's context.
func (m Metric) Resolved() []float64 {
	out := make([]float64, len(m.Weights))
	for i, w := range m.Weights {
		out[i] = w.Resolve(m.Context)
	}
	return out
}

// Distance implements Distancer.
func (m Metric) Distance(a, b Point) (float64, error) {
	return WeightedDistance(a, b, m.Resolved(), m.P)
}

// AxisBound implements AxisBounder: a gap g along one axis contributes at
// least w^(1/p)·|g| to the distance. With p = +Inf any positive weight
// contributes |g|.
func (m Metric) AxisBound(axis int, gap float64) float64 {
	if axis < 0 || axis >= len(m.Weights) {
		return 0
	}
	w := m.Weights[axis].Resolve(m.Context)
	if w <= 0 {
		return 0
	}
	if math.IsInf(m.P, 1) {
		return math.Abs(gap)
	}
	return math.Pow(w, 1/m.P) * math.Abs(gap)
}

// WithContext returns a copy of m resolving contextual weights under ctx.
func (m Metric) WithContext(ctx string) Metric {
	m.Context = ctx
	return m
}

// Clone returns a copy that shares no slices or maps with m.
func (m Metric) Clone() Metric {
	w := make([]Weight, len(m.Weights))
	for i, x := range m.Weights {
		if x.Modifiers != nil {
			mods := make(map[string]float64, len(x.Modifiers))
			for k, v := range x.Modifiers {
				mods[k] = v
			}
			x.Modifiers = mods
		}
		w[i] = x
	}
	m.Weights = w
	return m
}

// OpenBall is the set of points strictly closer than Radius to Center.
type OpenBall struct {
	Center Point
	Radius float64
	Metric Distancer
}

// Contains reports whether d(center, p) < radius.
func (b OpenBall) Contains(p Point) (bool, error) {
	d, err := b.Metric.Distance(b.Center, p)
	if err != nil {
		return false, err
	}
	return d < b.Radius, nil
}
