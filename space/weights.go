package space

import (
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
)

// Weights returns a copy of the metric's per-dimension weights.
func (s *Space) Weights() []geom.Weight {
	return s.metric.Clone().Weights
}

// ResolvedWeights returns the numeric weights under the active context.
func (s *Space) ResolvedWeights() []float64 {
	return s.metric.Resolved()
}

// ReplaceWeights swaps in a new weight vector. A vector whose length differs
// from the dimension count, or holding an invalid weight, is rejected and the
// old weights stay in place.
func (s *Space) ReplaceWeights(weights []geom.Weight) error {
	if len(weights) != len(s.dims) {
		return errors.WithHint(
			errors.InvalidDimensionf("%d weights for a %d-d space", len(weights), len(s.dims)),
			"weights must have one entry per dimension")
	}
	if err := geom.ValidateWeights(weights); err != nil {
		return errors.WithHint(err, "weights must be finite and non-negative")
	}
	m := geom.Metric{Weights: weights, P: s.metric.P, Context: s.metric.Context}
	s.metric = m.Clone()
	s.logger.Debugw("Weights replaced", logger.FieldDims, len(weights))
	return nil
}

// ReplaceWeightValues replaces the weights with constant ones.
func (s *Space) ReplaceWeightValues(values []float64) error {
	return s.ReplaceWeights(geom.Constants(values))
}

// SetContext selects the context used to resolve contextual weights.
func (s *Space) SetContext(ctx string) {
	s.metric.Context = ctx
}

// Context is the active weight context.
func (s *Space) Context() string { return s.metric.Context }

// UpdateAttention moves the attentional weight of dim to value, clamped to
// its bounds. The dimension must exist and carry an attentional weight.
func (s *Space) UpdateAttention(dim geom.DimensionID, value float64) error {
	for i, d := range s.dims {
		if d != dim {
			continue
		}
		w := s.metric.Weights[i]
		if w.Kind != geom.WeightAttentional {
			return errors.InvalidDimensionf("dimension %s has a %s weight, not attentional", dim, w.Kind)
		}
		s.metric.Weights[i] = w.Attend(value)
		return nil
	}
	return errors.NotFoundf("dimension %s in space %s", dim, s.name)
}
