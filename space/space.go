// Package space implements the conceptual space aggregate: the point cloud,
// the convex regions and the metric of one named space, plus a Catalog that
// applies a single-writer/multi-reader discipline across many spaces.
//
// A Space itself has no internal locking. Use it from one goroutine, or go
// through Catalog.
package space

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/index"
	"github.com/teranos/cspace/logger"
)

// DefaultConvexitySamples is the number of interior points sampled per member
// pair when a region is added.
const DefaultConvexitySamples = 3

// axiomEpsilon is the tolerance for the symmetry and triangle checks.
const axiomEpsilon = 1e-9

// Space is one conceptual space. Its dimension count is fixed for its
// lifetime; weight values may be replaced wholesale.
type Space struct {
	id     uuid.UUID
	name   string
	dims   []geom.DimensionID
	metric geom.Metric

	points      map[uuid.UUID]geom.Point
	pointOrder  []uuid.UUID
	regions     map[uuid.UUID]*geom.Region
	regionOrder []uuid.UUID

	samples int
	logger  *zap.SugaredLogger
}

// Option configures a Space.
type Option func(*Space)

// WithID fixes the space identifier instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(s *Space) { s.id = id }
}

// WithConvexitySamples sets the interior samples per member pair used by AddRegion.
func WithConvexitySamples(n int) Option {
	return func(s *Space) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithLogger sets the space logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Space) { s.logger = l }
}

// New creates an empty space. The metric needs one weight per dimension and
// dimension IDs must be unique.
func New(name string, dims []geom.DimensionID, metric geom.Metric, opts ...Option) (*Space, error) {
	if len(metric.Weights) != len(dims) {
		return nil, errors.WithHint(
			errors.InvalidDimensionf("metric has %d weights for %d dimensions", len(metric.Weights), len(dims)),
			"weights must have one entry per dimension")
	}
	if math.IsNaN(metric.P) || metric.P <= 0 {
		return nil, errors.InvalidDimensionf("minkowski exponent must be > 0, got %v", metric.P)
	}
	if err := geom.ValidateWeights(metric.Weights); err != nil {
		return nil, err
	}
	seen := make(map[geom.DimensionID]struct{}, len(dims))
	for _, d := range dims {
		if _, dup := seen[d]; dup {
			return nil, errors.InvalidDimensionf("dimension %s listed twice", d)
		}
		seen[d] = struct{}{}
	}

	s := &Space{
		id:      uuid.New(),
		name:    name,
		dims:    append([]geom.DimensionID(nil), dims...),
		metric:  metric.Clone(),
		points:  map[uuid.UUID]geom.Point{},
		regions: map[uuid.UUID]*geom.Region{},
		samples: DefaultConvexitySamples,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.ComponentLogger("space")
	}
	s.logger = s.logger.With(logger.FieldSpaceID, s.id.String())
	return s, nil
}

// ID is the space identifier.
func (s *Space) ID() uuid.UUID { return s.id }

// Name is the display name.
func (s *Space) Name() string { return s.name }

// Dimensions returns the ordered dimension IDs.
func (s *Space) Dimensions() []geom.DimensionID {
	return append([]geom.DimensionID(nil), s.dims...)
}

// Metric returns a copy of the metric.
func (s *Space) Metric() geom.Metric { return s.metric.Clone() }

// ConvexitySamples is the sampling density used by AddRegion.
func (s *Space) ConvexitySamples() int { return s.samples }

// Distance measures a and b under the space's metric.
func (s *Space) Distance(a, b geom.Point) (float64, error) {
	return s.metric.Distance(a, b)
}

// AddPoint stores p and returns its ID, generating one if p has none. A
// point with an existing ID replaces the stored one in place. Geometric
// validation is the caller's job.
func (s *Space) AddPoint(p geom.Point) uuid.UUID {
	if !p.HasID() {
		p = p.WithID(uuid.New())
	}
	if _, exists := s.points[p.ID]; !exists {
		s.pointOrder = append(s.pointOrder, p.ID)
	}
	s.points[p.ID] = p
	return p.ID
}

// Point returns the stored point with the given ID.
func (s *Space) Point(id uuid.UUID) (geom.Point, error) {
	p, ok := s.points[id]
	if !ok {
		return geom.Point{}, errors.NotFoundf("point %s in space %s", id, s.name)
	}
	return p, nil
}

// Points returns every point in insertion order.
func (s *Space) Points() []geom.Point {
	out := make([]geom.Point, len(s.pointOrder))
	for i, id := range s.pointOrder {
		out[i] = s.points[id]
	}
	return out
}

// Len is the number of points.
func (s *Space) Len() int { return len(s.pointOrder) }

// AddRegion validates r and stores a copy. Boundaries and prototype must
// match the space's dimensionality, the ID must be new, and every pair of
// members that resolve to stored points must pass convexity sampling.
// Members not in the space are skipped. A region without an ID gets one.
func (s *Space) AddRegion(r *geom.Region) error {
	if r == nil {
		return errors.InvalidPointf("nil region")
	}
	r = r.Clone()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, exists := s.regions[r.ID]; exists {
		return errors.InvalidDimensionf("region %s already exists", r.ID)
	}
	if r.Prototype.Len() != len(s.dims) {
		return errors.InvalidDimensionf("region prototype is %d-d in a %d-d space", r.Prototype.Len(), len(s.dims))
	}
	for i, h := range r.Boundaries {
		if len(h.Normal) != len(s.dims) {
			return errors.InvalidDimensionf("boundary %d is %d-d in a %d-d space", i, len(h.Normal), len(s.dims))
		}
	}

	var members []geom.Point
	skipped := 0
	for _, id := range r.Members() {
		p, ok := s.points[id]
		if !ok {
			skipped++
			continue
		}
		members = append(members, p)
	}
	if skipped > 0 {
		s.logger.Debugw("Region members not in space skipped for convexity check",
			logger.FieldRegionID, r.ID.String(), "skipped", skipped)
	}

	convex, err := r.IsConvex(members, s.samples)
	if err != nil {
		return errors.Wrapf(err, "convexity check for region %s", r.ID)
	}
	if !convex {
		return errors.WithHint(
			errors.InvalidDimensionf("region %s is not convex over its %d known members", r.ID, len(members)),
			"every segment between two members must stay inside the region's boundaries")
	}

	s.regions[r.ID] = r
	s.regionOrder = append(s.regionOrder, r.ID)
	s.logger.Debugw("Region added", logger.FieldRegionID, r.ID.String(), "members", len(members))
	return nil
}

// Region returns a copy of the region with the given ID.
func (s *Space) Region(id uuid.UUID) (*geom.Region, error) {
	r, ok := s.regions[id]
	if !ok {
		return nil, errors.NotFoundf("region %s in space %s", id, s.name)
	}
	return r.Clone(), nil
}

// Regions returns copies of every region in insertion order.
func (s *Space) Regions() []*geom.Region {
	out := make([]*geom.Region, len(s.regionOrder))
	for i, id := range s.regionOrder {
		out[i] = s.regions[id].Clone()
	}
	return out
}

// RegionCount is the number of regions.
func (s *Space) RegionCount() int { return len(s.regionOrder) }

// FindContainingRegions returns copies of every region containing p, in
// insertion order.
func (s *Space) FindContainingRegions(p geom.Point) []*geom.Region {
	var out []*geom.Region
	for _, id := range s.regionOrder {
		if r := s.regions[id]; r.Contains(p) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// ContainingRegionIDs is FindContainingRegions without the copies.
func (s *Space) ContainingRegionIDs(p geom.Point) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range s.regionOrder {
		if s.regions[id].Contains(p) {
			out = append(out, id)
		}
	}
	return out
}

// KNearest measures p against every stored point and returns the k closest
// in ascending order, ties in insertion order. Any distance failure aborts.
func (s *Space) KNearest(p geom.Point, k int) ([]index.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	all, err := s.scan(p, func(float64) bool { return true })
	if err != nil {
		return nil, err
	}
	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}

// WithinRadius returns every stored point within radius of p (inclusive),
// ascending.
func (s *Space) WithinRadius(p geom.Point, radius float64) ([]index.Neighbor, error) {
	return s.scan(p, func(d float64) bool { return d <= radius })
}

func (s *Space) scan(p geom.Point, keep func(float64) bool) ([]index.Neighbor, error) {
	out := make([]index.Neighbor, 0, len(s.pointOrder))
	for _, id := range s.pointOrder {
		d, err := s.metric.Distance(p, s.points[id])
		if err != nil {
			return nil, errors.Wrapf(err, "distance to point %s", id)
		}
		if keep(d) {
			out = append(out, index.Neighbor{ID: id, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// AxiomViolation describes the first metric axiom found not to hold.
type AxiomViolation struct {
	Axiom   string      `json:"axiom"`
	Points  []uuid.UUID `json:"points"`
	Details string      `json:"details"`
}

// CheckMetricAxioms samples the first sampleSize points in insertion order
// and checks non-negativity, d(p,p) = 0, symmetry and the triangle
// inequality. Symmetry and the triangle inequality allow a small epsilon.
// It returns the first violation, or nil when all hold.
func (s *Space) CheckMetricAxioms(sampleSize int) (*AxiomViolation, error) {
	start := time.Now()
	ids := s.pointOrder
	if sampleSize < len(ids) {
		ids = ids[:max(sampleSize, 0)]
	}
	n := len(ids)

	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			v, err := s.metric.Distance(s.points[ids[i]], s.points[ids[j]])
			if err != nil {
				return nil, errors.Wrap(err, "metric axiom check")
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &AxiomViolation{Axiom: "finiteness", Points: []uuid.UUID{ids[i], ids[j]},
					Details: fmt.Sprintf("distance is %v", v)}, nil
			}
			d[i][j] = v
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if d[i][j] < 0 {
				return &AxiomViolation{Axiom: "non-negativity", Points: []uuid.UUID{ids[i], ids[j]},
					Details: "negative distance"}, nil
			}
			if i == j && d[i][j] != 0 {
				return &AxiomViolation{Axiom: "identity", Points: []uuid.UUID{ids[i]},
					Details: "non-zero self distance"}, nil
			}
			if math.Abs(d[i][j]-d[j][i]) > axiomEpsilon {
				return &AxiomViolation{Axiom: "symmetry", Points: []uuid.UUID{ids[i], ids[j]},
					Details: "d(p,q) != d(q,p)"}, nil
			}
			for k := 0; k < n; k++ {
				if d[i][j] > d[i][k]+d[k][j]+axiomEpsilon {
					return &AxiomViolation{Axiom: "triangle", Points: []uuid.UUID{ids[i], ids[j], ids[k]},
						Details: "d(p,q) > d(p,r) + d(r,q)"}, nil
				}
			}
		}
	}
	s.logger.Debugw("Metric axioms verified", logger.FieldPoints, n,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return nil, nil
}

// VerifyMetricAxioms reports whether every axiom holds over the sample.
func (s *Space) VerifyMetricAxioms(sampleSize int) (bool, error) {
	v, err := s.CheckMetricAxioms(sampleSize)
	if err != nil {
		return false, err
	}
	if v != nil {
		s.logger.Debugw("Metric axiom violated", "axiom", v.Axiom, "details", v.Details)
	}
	return v == nil, nil
}

// BuildIndex clears idx and loads every stored point into it. The index does
// not follow later changes to the space.
func (s *Space) BuildIndex(idx index.Index) error {
	return index.Build(idx, s.Points())
}
