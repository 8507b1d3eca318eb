package geom

import (
	"math"

	"github.com/teranos/cspace/errors"
)

// WeightKind distinguishes how a dimension weight is resolved.
type WeightKind int

const (
	WeightConstant WeightKind = iota
	WeightContextual
	WeightAttentional
)

func (k WeightKind) String() string {
	switch k {
	case WeightConstant:
		return "constant"
	case WeightContextual:
		return "contextual"
	case WeightAttentional:
		return "attentional"
	}
	return "unknown"
}

// ParseWeightKind is the inverse of WeightKind.String.
func ParseWeightKind(s string) (WeightKind, bool) {
	for _, k := range []WeightKind{WeightConstant, WeightContextual, WeightAttentional} {
		if k.String() == s {
			return k, true
		}
	}
	return WeightConstant, false
}

// Weight is the salience of one dimension in a metric.
//
// A constant weight is Base. A contextual weight is Base times the modifier
// registered for the active context, or Base when none matches. An
// attentional weight is Current, kept within [Min, Max].
type Weight struct {
	Kind      WeightKind         `json:"kind"`
	Base      float64            `json:"base"`
	Modifiers map[string]float64 `json:"modifiers,omitempty"`
	Current   float64            `json:"current,omitempty"`
	Min       float64            `json:"min,omitempty"`
	Max       float64            `json:"max,omitempty"`
}

// Constant returns a fixed weight.
func Constant(w float64) Weight {
	return Weight{Kind: WeightConstant, Base: w}
}

// Contextual returns a weight scaled by per-context modifiers.
func Contextual(base float64, modifiers map[string]float64) Weight {
	m := make(map[string]float64, len(modifiers))
	for k, v := range modifiers {
		m[k] = v
	}
	return Weight{Kind: WeightContextual, Base: base, Modifiers: m}
}

// Attentional returns a bounded weight starting at current (clamped).
func Attentional(current, min, max float64) Weight {
	w := Weight{Kind: WeightAttentional, Min: min, Max: max}
	w.Current = w.clamp(current)
	return w
}

// Resolve returns the effective weight under the active context.
func (w Weight) Resolve(context string) float64 {
	switch w.Kind {
	case WeightContextual:
		if m, ok := w.Modifiers[context]; ok && context != "" {
			return w.Base * m
		}
		return w.Base
	case WeightAttentional:
		return w.Current
	default:
		return w.Base
	}
}

// Attend moves an attentional weight to value, clamped to [Min, Max]. Other
// kinds are returned unchanged.
func (w Weight) Attend(value float64) Weight {
	if w.Kind != WeightAttentional {
		return w
	}
	w.Current = w.clamp(value)
	return w
}

func (w Weight) clamp(v float64) float64 {
	return math.Max(w.Min, math.Min(w.Max, v))
}

// Validate rejects weights that could make a distance negative or
// non-finite, and attention bounds with Min > Max.
func (w Weight) Validate() error {
	if err := checkWeightValue("weight", w.Base); err != nil {
		return err
	}
	for ctx, m := range w.Modifiers {
		if err := checkWeightValue("modifier "+ctx, m); err != nil {
			return err
		}
	}
	if w.Kind != WeightAttentional {
		return nil
	}
	for _, v := range []struct {
		name  string
		value float64
	}{{"attention min", w.Min}, {"attention max", w.Max}, {"attention", w.Current}} {
		if err := checkWeightValue(v.name, v.value); err != nil {
			return err
		}
	}
	if w.Min > w.Max {
		return errors.InvalidDimensionf("attention bounds [%v, %v] are inverted", w.Min, w.Max)
	}
	return nil
}

func checkWeightValue(name string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.InvalidDimensionf("%s %v must be finite and non-negative", name, v)
	}
	return nil
}

// ValidateWeights validates every weight of a vector.
func ValidateWeights(weights []Weight) error {
	for i, w := range weights {
		if err := w.Validate(); err != nil {
			return errors.Wrapf(err, "weight %d", i)
		}
	}
	return nil
}

// Constants converts plain values into constant weights.
func Constants(values []float64) []Weight {
	ws := make([]Weight, len(values))
	for i, v := range values {
		ws[i] = Constant(v)
	}
	return ws
}
