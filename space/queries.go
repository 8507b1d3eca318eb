package space

import (
	"math"

	"github.com/google/uuid"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
)

// RecomputePrototype sets a region's prototype to the centroid of its
// members that are stored in the space.
func (s *Space) RecomputePrototype(regionID uuid.UUID) error {
	r, ok := s.regions[regionID]
	if !ok {
		return errors.NotFoundf("region %s in space %s", regionID, s.name)
	}
	var members []geom.Point
	for _, id := range r.Members() {
		if p, ok := s.points[id]; ok {
			members = append(members, p)
		}
	}
	if len(members) == 0 {
		return errors.InvalidPointf("region %s has no members in the space", regionID)
	}
	return r.UpdatePrototype(members)
}

// PrototypeCell returns the IDs of points whose nearest region prototype is
// the given region's, in insertion order. Equidistant points belong to every
// tied cell.
func (s *Space) PrototypeCell(regionID uuid.UUID) ([]uuid.UUID, error) {
	target, ok := s.regions[regionID]
	if !ok {
		return nil, errors.NotFoundf("region %s in space %s", regionID, s.name)
	}
	var cell []uuid.UUID
	for _, pid := range s.pointOrder {
		p := s.points[pid]
		own, err := s.metric.Distance(p, target.Prototype)
		if err != nil {
			return nil, err
		}
		nearest := true
		for _, rid := range s.regionOrder {
			if rid == regionID {
				continue
			}
			d, err := s.metric.Distance(p, s.regions[rid].Prototype)
			if err != nil {
				return nil, err
			}
			if d < own {
				nearest = false
				break
			}
		}
		if nearest {
			cell = append(cell, pid)
		}
	}
	return cell, nil
}

const machineEpsilon = 0x1p-52

// Criteria filters points by their values on individual dimensions.
type Criteria struct {
	Required map[geom.DimensionID]float64 // value must match within Tolerance
	Minimum  map[geom.DimensionID]float64 // value must be >=
	Maximum  map[geom.DimensionID]float64 // value must be <=
	MustHave []geom.DimensionID           // dimension must be mapped
	// Tolerance for Required; 0 means exact to within machine epsilon.
	Tolerance float64
}

// Matches reports whether p satisfies every criterion.
func (c Criteria) Matches(p geom.Point) bool {
	tol := c.Tolerance
	if tol <= 0 {
		tol = machineEpsilon
	}
	for dim, want := range c.Required {
		v, ok := p.Value(dim)
		if !ok || math.Abs(v-want) >= tol {
			return false
		}
	}
	for dim, min := range c.Minimum {
		v, ok := p.Value(dim)
		if !ok || v < min {
			return false
		}
	}
	for dim, max := range c.Maximum {
		v, ok := p.Value(dim)
		if !ok || v > max {
			return false
		}
	}
	for _, dim := range c.MustHave {
		if _, ok := p.Value(dim); !ok {
			return false
		}
	}
	return true
}

// FindByQualities returns the points matching c, in insertion order.
func (s *Space) FindByQualities(c Criteria) []geom.Point {
	var out []geom.Point
	for _, id := range s.pointOrder {
		if p := s.points[id]; c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
