package geom

import (
	"github.com/teranos/cspace/errors"
)

// Hyperplane is the set normal·x = offset. Points with normal·x − offset ≥ 0
// lie on its positive side.
type Hyperplane struct {
	Normal []float64 `json:"normal"`
	Offset float64   `json:"offset"`
}

// SignedDistance returns normal·p − offset. It is a true distance only when
// the normal has unit length.
func (h Hyperplane) SignedDistance(p Point) (float64, error) {
	if len(h.Normal) != p.Len() {
		return 0, errors.InvalidDimensionf("%d-d hyperplane against %d-d point", len(h.Normal), p.Len())
	}
	var s float64
	for i, n := range h.Normal {
		s += n * p.coords[i]
	}
	return s - h.Offset, nil
}

// ContainsPositive reports whether p lies on the positive side. A point of
// the wrong dimensionality is never contained.
func (h Hyperplane) ContainsPositive(p Point) bool {
	d, err := h.SignedDistance(p)
	return err == nil && d >= 0
}

// Bisector returns the hyperplane through the midpoint of a and b whose
// normal points from b toward a, so a lies on the positive side. Coincident
// points have no bisector.
func Bisector(a, b Point) (Hyperplane, error) {
	if a.Len() != b.Len() {
		return Hyperplane{}, errors.InvalidDimensionf("bisector of %d-d and %d-d points", a.Len(), b.Len())
	}
	normal := make([]float64, a.Len())
	var offset, norm float64
	for i := range normal {
		normal[i] = a.coords[i] - b.coords[i]
		norm += normal[i] * normal[i]
		offset += normal[i] * (a.coords[i] + b.coords[i]) / 2
	}
	if norm == 0 {
		return Hyperplane{}, errors.InvalidPointf("coincident points cannot be bisected")
	}
	return Hyperplane{Normal: normal, Offset: offset}, nil
}

// AxisBounds returns 2·n hyperplanes bounding the box [min, max] per axis:
// x_i ≥ min_i with normal +e_i and x_i ≤ max_i with normal −e_i.
func AxisBounds(min, max []float64) ([]Hyperplane, error) {
	if len(min) != len(max) {
		return nil, errors.InvalidDimensionf("box bounds of length %d and %d", len(min), len(max))
	}
	planes := make([]Hyperplane, 0, 2*len(min))
	for i := range min {
		if min[i] > max[i] {
			return nil, errors.InvalidDimensionf("axis %d has min %v above max %v", i, min[i], max[i])
		}
		lower := make([]float64, len(min))
		lower[i] = 1
		upper := make([]float64, len(min))
		upper[i] = -1
		planes = append(planes,
			Hyperplane{Normal: lower, Offset: min[i]},
			Hyperplane{Normal: upper, Offset: -max[i]},
		)
	}
	return planes, nil
}
