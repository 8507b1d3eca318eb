package index

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
)

// Linear answers every query by scanning all points. Insert is O(1)
// amortized; queries are O(n).
type Linear struct {
	metric geom.Distancer
	points []geom.Point
	logger *zap.SugaredLogger
}

// NewLinear returns an empty linear-scan index.
func NewLinear(metric geom.Distancer, opts ...Option) *Linear {
	o := buildOptions(opts)
	return &Linear{metric: metric, logger: o.logger}
}

// Insert appends p.
func (l *Linear) Insert(p geom.Point) error {
	l.points = append(l.points, p)
	return nil
}

// Remove deletes the point with the given ID.
func (l *Linear) Remove(id uuid.UUID) error {
	for i, p := range l.points {
		if p.HasID() && p.ID == id {
			l.points = append(l.points[:i], l.points[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("point %s not in index", id)
}

func (l *Linear) scan(query geom.Point, keep func(float64) bool) ([]candidate, error) {
	var out []candidate
	for i, p := range l.points {
		if !p.HasID() {
			continue
		}
		d, err := l.metric.Distance(query, p)
		if err != nil {
			return nil, errors.Wrapf(err, "distance to point %s", p.ID)
		}
		if keep(d) {
			out = append(out, candidate{id: p.ID, dist: d, seq: i})
		}
	}
	return out, nil
}

// KNearest implements Index.
func (l *Linear) KNearest(query geom.Point, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	cs, err := l.scan(query, func(float64) bool { return true })
	if err != nil {
		return nil, err
	}
	out := sortCandidates(cs)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// RangeSearch implements Index.
func (l *Linear) RangeSearch(center geom.Point, radius float64) ([]Neighbor, error) {
	cs, err := l.scan(center, func(d float64) bool { return d <= radius })
	if err != nil {
		return nil, err
	}
	return sortCandidates(cs), nil
}

// Len implements Index.
func (l *Linear) Len() int { return len(l.points) }

// Clear implements Index.
func (l *Linear) Clear() { l.points = nil }
