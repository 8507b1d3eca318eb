// Package index provides spatial indexes for k-nearest-neighbor and range
// queries over points. An index holds its own copies of points and is never
// synchronized with a space automatically: rebuild it when the point set
// changes.
package index

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
)

// Neighbor is one query result.
type Neighbor struct {
	ID       uuid.UUID `json:"id"`
	Distance float64   `json:"distance"`
}

// Index is implemented by every spatial index.
//
// KNearest returns at most k neighbors in ascending distance, ties broken by
// the order in which the index discovered them. RangeSearch returns every
// point within radius (inclusive), ascending. Points without an ID are stored
// but never returned. Any distance failure aborts the whole query.
type Index interface {
	Insert(p geom.Point) error
	Remove(id uuid.UUID) error
	KNearest(query geom.Point, k int) ([]Neighbor, error)
	RangeSearch(center geom.Point, radius float64) ([]Neighbor, error)
	Len() int
	Clear()
}

// Kind names an index implementation.
type Kind string

const (
	KindKDTree Kind = "kdtree"
	KindLinear Kind = "linear"
)

// Option configures an index.
type Option func(*options)

type options struct {
	logger *zap.SugaredLogger
}

// WithLogger sets the index logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: logger.ComponentLogger("index")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns an empty index of the given kind measuring with metric.
func New(kind Kind, metric geom.Distancer, opts ...Option) (Index, error) {
	switch kind {
	case KindKDTree:
		return NewKDTree(metric, opts...), nil
	case KindLinear:
		return NewLinear(metric, opts...), nil
	}
	return nil, errors.Unsupportedf("index kind %q", kind)
}

// Build inserts every point into idx after clearing it.
func Build(idx Index, points []geom.Point) error {
	idx.Clear()
	if t, ok := idx.(*KDTree); ok {
		return t.Build(points)
	}
	for _, p := range points {
		if err := idx.Insert(p); err != nil {
			return err
		}
	}
	return nil
}

// candidate is a scored point tagged with its discovery sequence.
type candidate struct {
	id   uuid.UUID
	dist float64
	seq  int
}

func less(a, b candidate) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.seq < b.seq
}

func sortCandidates(cs []candidate) []Neighbor {
	sort.Slice(cs, func(i, j int) bool { return less(cs[i], cs[j]) })
	out := make([]Neighbor, len(cs))
	for i, c := range cs {
		out[i] = Neighbor{ID: c.id, Distance: c.dist}
	}
	return out
}
