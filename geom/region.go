package geom

import (
	"sort"

	"github.com/google/uuid"

	"github.com/teranos/cspace/errors"
)

// Region is a convex region: the intersection of the positive sides of its
// boundary hyperplanes. Prototype is its most typical point. The prototype is
// only recomputed on request, never as a side effect of membership changes.
type Region struct {
	ID          uuid.UUID
	Name        string
	Description string
	Prototype   Point
	Boundaries  []Hyperplane
	members     map[uuid.UUID]struct{}
}

// NewRegion returns a region with a fresh ID and no members.
func NewRegion(prototype Point, boundaries []Hyperplane) *Region {
	return &Region{
		ID:         uuid.New(),
		Prototype:  prototype,
		Boundaries: boundaries,
		members:    map[uuid.UUID]struct{}{},
	}
}

// Contains reports whether p is on the positive side of every boundary.
// A region without boundaries contains every point.
func (r *Region) Contains(p Point) bool {
	for _, h := range r.Boundaries {
		if !h.ContainsPositive(p) {
			return false
		}
	}
	return true
}

// AddMember records id as a member.
func (r *Region) AddMember(id uuid.UUID) {
	if r.members == nil {
		r.members = map[uuid.UUID]struct{}{}
	}
	r.members[id] = struct{}{}
}

// RemoveMember drops id and reports whether it was a member.
func (r *Region) RemoveMember(id uuid.UUID) bool {
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	return true
}

// HasMember reports whether id is a member.
func (r *Region) HasMember(id uuid.UUID) bool {
	_, ok := r.members[id]
	return ok
}

// MemberCount is the number of member identifiers.
func (r *Region) MemberCount() int { return len(r.members) }

// Members returns member identifiers in a stable order.
func (r *Region) Members() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// IsConvex samples `samples` interior points along the segment between every
// pair of points and reports whether all of them are contained. Samples sit
// at t = k/(samples+1), so 3 samples gives 0.25, 0.5 and 0.75.
func (r *Region) IsConvex(points []Point, samples int) (bool, error) {
	if samples < 1 {
		samples = 1
	}
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			for k := 1; k <= samples; k++ {
				t := float64(k) / float64(samples+1)
				q, err := Interpolate(points[i], points[j], t)
				if err != nil {
					return false, err
				}
				if !r.Contains(q) {
					return false, nil
				}
			}
		}
	}
	return true, nil
}

// UpdatePrototype sets the prototype to the centroid of points, keeping the
// prototype's ID.
func (r *Region) UpdatePrototype(points []Point) error {
	c, err := Centroid(points)
	if err != nil {
		return errors.Wrap(err, "update prototype")
	}
	r.Prototype = c.WithID(r.Prototype.ID)
	return nil
}

// Clone returns a deep copy sharing only immutable points.
func (r *Region) Clone() *Region {
	out := *r
	out.Boundaries = make([]Hyperplane, len(r.Boundaries))
	for i, h := range r.Boundaries {
		n := make([]float64, len(h.Normal))
		copy(n, h.Normal)
		out.Boundaries[i] = Hyperplane{Normal: n, Offset: h.Offset}
	}
	out.members = make(map[uuid.UUID]struct{}, len(r.members))
	for id := range r.members {
		out.members[id] = struct{}{}
	}
	return &out
}
