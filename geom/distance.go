package geom

import (
	"math"

	"github.com/teranos/cspace/errors"
)

// WeightedDistance is the weighted Minkowski distance
// (Σ wᵢ|aᵢ−bᵢ|^p)^(1/p). p = +Inf gives the Chebyshev limit, the largest
// |aᵢ−bᵢ| over dimensions with positive weight. Length mismatches between
// a, b and weights are errors; nothing is truncated.
func WeightedDistance(a, b Point, weights []float64, p float64) (float64, error) {
	if a.Len() != b.Len() {
		return 0, errors.InvalidDimensionf("distance between %d-d and %d-d points", a.Len(), b.Len())
	}
	if len(weights) != a.Len() {
		return 0, errors.WithHint(
			errors.InvalidDimensionf("%d weights for %d-d points", len(weights), a.Len()),
			"pass one weight per dimension")
	}
	if math.IsNaN(p) || p <= 0 {
		return 0, errors.InvalidDimensionf("minkowski exponent must be > 0, got %v", p)
	}

	switch {
	case math.IsInf(p, 1):
		var m float64
		for i, w := range weights {
			if w <= 0 {
				continue
			}
			if d := math.Abs(a.coords[i] - b.coords[i]); d > m {
				m = d
			}
		}
		return m, nil
	case p == 1:
		var sum float64
		for i, w := range weights {
			sum += w * math.Abs(a.coords[i]-b.coords[i])
		}
		return sum, nil
	case p == 2:
		var sum float64
		for i, w := range weights {
			d := a.coords[i] - b.coords[i]
			sum += w * d * d
		}
		return math.Sqrt(sum), nil
	default:
		var sum float64
		for i, w := range weights {
			sum += w * math.Pow(math.Abs(a.coords[i]-b.coords[i]), p)
		}
		return math.Pow(sum, 1/p), nil
	}
}

// Dot is the inner product of two equal-length points.
func Dot(a, b Point) (float64, error) {
	if a.Len() != b.Len() {
		return 0, errors.InvalidDimensionf("dot product of %d-d and %d-d points", a.Len(), b.Len())
	}
	var s float64
	for i := range a.coords {
		s += a.coords[i] * b.coords[i]
	}
	return s, nil
}

// Norm is the Euclidean length of p's coordinate vector.
func Norm(p Point) float64 {
	var s float64
	for _, v := range p.coords {
		s += v * v
	}
	return math.Sqrt(s)
}

// Cosine is the cosine of the angle between a and b. A zero vector has no
// direction and is rejected.
func Cosine(a, b Point) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, errors.InvalidPointf("cosine with a zero vector")
	}
	c := dot / (na * nb)
	// clamp rounding noise
	return math.Max(-1, math.Min(1, c)), nil
}

// Distancer measures the distance between two points.
type Distancer interface {
	Distance(a, b Point) (float64, error)
}

// AxisBounder is implemented by distancers that can bound the full distance
// from below given only the gap along one coordinate. Spatial indexes use it
// to prune subtrees; without it they must descend both sides.
type AxisBounder interface {
	AxisBound(axis int, gap float64) float64
}

// Measure is a fixed distance function that needs no weights.
type Measure int

const (
	Euclidean Measure = iota
	Manhattan
	Chebyshev
	CosineDistance // 1 - cos; violates the triangle inequality
)

func (m Measure) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Manhattan:
		return "manhattan"
	case Chebyshev:
		return "chebyshev"
	case CosineDistance:
		return "cosine"
	}
	return "unknown"
}

// Distance implements Distancer.
func (m Measure) Distance(a, b Point) (float64, error) {
	switch m {
	case Euclidean:
		return WeightedDistance(a, b, Uniform(a.Len()), 2)
	case Manhattan:
		return WeightedDistance(a, b, Uniform(a.Len()), 1)
	case Chebyshev:
		return WeightedDistance(a, b, Uniform(a.Len()), math.Inf(1))
	case CosineDistance:
		c, err := Cosine(a, b)
		if err != nil {
			return 0, err
		}
		return 1 - c, nil
	}
	return 0, errors.Unsupportedf("measure %d", int(m))
}

// AxisBound implements AxisBounder for the Minkowski measures. Cosine
// distance has no per-axis bound, so it returns 0 and never prunes.
func (m Measure) AxisBound(_ int, gap float64) float64 {
	if m == CosineDistance {
		return 0
	}
	return math.Abs(gap)
}

// Uniform returns n weights of 1.
func Uniform(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
