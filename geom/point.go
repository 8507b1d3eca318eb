// Package geom holds the geometric primitives of a conceptual space: points,
// hyperplanes, convex regions and weighted Minkowski metrics.
//
// Everything here is a pure function over immutable values. Points are only
// ever rebuilt, never mutated, so they can be shared freely between a space,
// a spatial index and query results.
package geom

import (
	"github.com/google/uuid"

	"github.com/teranos/cspace/errors"
)

// DimensionID identifies a quality dimension. Points map dimension IDs to
// coordinate positions, so points built over reordered or partial dimension
// lists can still be compared on the dimensions they share.
type DimensionID uuid.UUID

// NewDimensionID returns a fresh random dimension identifier.
func NewDimensionID() DimensionID {
	return DimensionID(uuid.New())
}

// ParseDimensionID parses the canonical UUID text form.
func ParseDimensionID(s string) (DimensionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DimensionID{}, errors.Wrapf(errors.ErrInvalidDimension, "parse dimension id %q: %v", s, err)
	}
	return DimensionID(u), nil
}

func (d DimensionID) String() string { return uuid.UUID(d).String() }

// MarshalText implements encoding.TextMarshaler so IDs work as JSON map keys.
func (d DimensionID) MarshalText() ([]byte, error) { return uuid.UUID(d).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DimensionID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*d = DimensionID(u)
	return nil
}

// NewDimensionIDs returns n fresh dimension identifiers.
func NewDimensionIDs(n int) []DimensionID {
	ids := make([]DimensionID, n)
	for i := range ids {
		ids[i] = NewDimensionID()
	}
	return ids
}

// Point is a coordinate vector plus the mapping from dimension to coordinate
// position. ID is uuid.Nil when the point has no stable identifier yet.
type Point struct {
	ID     uuid.UUID
	coords []float64
	dims   map[DimensionID]int
}

// NewPoint validates that dims has one entry per coordinate and that its
// values are distinct positions in [0, len(coords)). Both arguments are copied.
func NewPoint(coords []float64, dims map[DimensionID]int) (Point, error) {
	if len(coords) != len(dims) {
		return Point{}, errors.InvalidDimensionf("point has %d coordinates but %d mapped dimensions", len(coords), len(dims))
	}
	seen := make([]bool, len(coords))
	m := make(map[DimensionID]int, len(dims))
	for id, idx := range dims {
		if idx < 0 || idx >= len(coords) {
			return Point{}, errors.InvalidDimensionf("dimension %s maps to index %d outside [0, %d)", id, idx, len(coords))
		}
		if seen[idx] {
			return Point{}, errors.InvalidDimensionf("index %d is mapped by more than one dimension", idx)
		}
		seen[idx] = true
		m[id] = idx
	}
	c := make([]float64, len(coords))
	copy(c, coords)
	return Point{coords: c, dims: m}, nil
}

// PointOver builds a point whose i-th coordinate belongs to dims[i].
func PointOver(dims []DimensionID, coords []float64) (Point, error) {
	m := make(map[DimensionID]int, len(dims))
	for i, d := range dims {
		if _, dup := m[d]; dup {
			return Point{}, errors.InvalidDimensionf("dimension %s listed twice", d)
		}
		m[d] = i
	}
	return NewPoint(coords, m)
}

// WithID returns a copy of p carrying id.
func (p Point) WithID(id uuid.UUID) Point {
	p.ID = id
	return p
}

// HasID reports whether the point carries a stable identifier.
func (p Point) HasID() bool { return p.ID != uuid.Nil }

// Len is the number of coordinates.
func (p Point) Len() int { return len(p.coords) }

// Coord returns the coordinate at position i.
func (p Point) Coord(i int) float64 { return p.coords[i] }

// Coords returns a copy of the coordinate vector.
func (p Point) Coords() []float64 {
	c := make([]float64, len(p.coords))
	copy(c, p.coords)
	return c
}

// Value looks a coordinate up by dimension identity.
func (p Point) Value(dim DimensionID) (float64, bool) {
	idx, ok := p.dims[dim]
	if !ok {
		return 0, false
	}
	return p.coords[idx], true
}

// Dimensions returns a copy of the dimension map.
func (p Point) Dimensions() map[DimensionID]int {
	m := make(map[DimensionID]int, len(p.dims))
	for k, v := range p.dims {
		m[k] = v
	}
	return m
}

// Project reorders p onto dims. Every dimension must be mapped by p.
func (p Point) Project(dims []DimensionID) (Point, error) {
	coords := make([]float64, len(dims))
	for i, d := range dims {
		v, ok := p.Value(d)
		if !ok {
			return Point{}, errors.InvalidDimensionf("point has no coordinate for dimension %s", d)
		}
		coords[i] = v
	}
	out, err := PointOver(dims, coords)
	if err != nil {
		return Point{}, err
	}
	out.ID = p.ID
	return out, nil
}

// Rebuild returns a point with new coordinates over the same dimension map.
// The result carries no ID.
func (p Point) Rebuild(coords []float64) (Point, error) {
	return NewPoint(coords, p.dims)
}

// Interpolate returns (1-t)·a + t·b over a's dimension map.
func Interpolate(a, b Point, t float64) (Point, error) {
	if a.Len() != b.Len() {
		return Point{}, errors.InvalidDimensionf("cannot interpolate %d-d and %d-d points", a.Len(), b.Len())
	}
	c := make([]float64, a.Len())
	for i := range c {
		c[i] = (1-t)*a.coords[i] + t*b.coords[i]
	}
	return Point{coords: c, dims: a.dims}, nil
}

// Centroid returns the coordinate-wise mean over the first point's dimension map.
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, errors.InvalidPointf("centroid of no points")
	}
	n := points[0].Len()
	c := make([]float64, n)
	for _, p := range points {
		if p.Len() != n {
			return Point{}, errors.InvalidDimensionf("centroid over mixed dimensionality %d and %d", n, p.Len())
		}
		for i, v := range p.coords {
			c[i] += v
		}
	}
	for i := range c {
		c[i] /= float64(len(points))
	}
	return Point{coords: c, dims: points[0].dims}, nil
}

// Equal reports whether a and b have identical coordinates.
func Equal(a, b Point) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.coords {
		if a.coords[i] != b.coords[i] {
			return false
		}
	}
	return true
}
