// Package dimension defines typed quality dimensions and a name-unique
// registry that validates and normalizes values before they become points.
package dimension

import (
	"math"
	"strings"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
)

// Kind is the measurement type of a dimension.
type Kind int

const (
	Continuous Kind = iota
	Categorical
	Ordinal
	Circular
)

var kindNames = map[Kind]string{
	Continuous:  "continuous",
	Categorical: "categorical",
	Ordinal:     "ordinal",
	Circular:    "circular",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind accepts the lower-case kind names.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, errors.InvalidDimensionf("unknown dimension kind %q", s)
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Width is End − Start.
func (r Range) Width() float64 { return r.End - r.Start }

// Dimension is one quality dimension of a conceptual space.
type Dimension struct {
	ID          geom.DimensionID `json:"id"`
	Name        string           `json:"name"`
	Kind        Kind             `json:"kind"`
	Range       Range            `json:"range"`
	Context     string           `json:"context,omitempty"`
	Description string           `json:"description,omitempty"`
}

// New returns a dimension with a fresh ID.
func New(name string, kind Kind, r Range) Dimension {
	return Dimension{ID: geom.NewDimensionID(), Name: name, Kind: kind, Range: r}
}

// NewContinuous returns a continuous dimension over [min, max).
func NewContinuous(name string, min, max float64) Dimension {
	return New(name, Continuous, Range{Start: min, End: max})
}

// NewCategorical returns a dimension whose values are category indices in [0, n).
func NewCategorical(name string, n int) Dimension {
	return New(name, Categorical, Range{Start: 0, End: float64(n)})
}

// NewOrdinal returns a dimension whose values are levels in [0, n).
func NewOrdinal(name string, n int) Dimension {
	return New(name, Ordinal, Range{Start: 0, End: float64(n)})
}

// NewCircular returns a circular dimension over degrees, [0, 360).
func NewCircular(name string) Dimension {
	return New(name, Circular, Range{Start: 0, End: 360})
}

// Validate checks v against the dimension's range. Circular dimensions accept
// any finite value. A zero-width range accepts only its boundary value.
func (d Dimension) Validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.InvalidDimensionf("value %v is not finite for dimension %q", v, d.Name)
	}
	if d.Kind == Circular {
		return nil
	}
	if d.Range.Start == d.Range.End {
		if v != d.Range.Start {
			return errors.InvalidDimensionf("value %v must equal %v for zero-range dimension %q", v, d.Range.Start, d.Name)
		}
		return nil
	}
	if v < d.Range.Start || v >= d.Range.End {
		return errors.InvalidDimensionf("value %v is outside [%v, %v) for dimension %q", v, d.Range.Start, d.Range.End, d.Name)
	}
	return nil
}

// Normalize maps a valid value into [0, 1). Circular values wrap modulo the
// range width first; a zero-width range normalizes to 0.
func (d Dimension) Normalize(v float64) (float64, error) {
	if err := d.Validate(v); err != nil {
		return 0, err
	}
	w := d.Range.Width()
	if w == 0 {
		return 0, nil
	}
	if d.Kind == Circular {
		off := math.Mod(v-d.Range.Start, w)
		if off < 0 {
			off += w
		}
		return off / w, nil
	}
	return (v - d.Range.Start) / w, nil
}

// Denormalize maps n in [0, 1] back into the range.
func (d Dimension) Denormalize(n float64) (float64, error) {
	if math.IsNaN(n) || n < 0 || n > 1 {
		return 0, errors.InvalidDimensionf("normalized value %v must be in [0, 1]", n)
	}
	return d.Range.Start + n*d.Range.Width(), nil
}
