// Package category forms categories from the point cloud of a space and
// detects the boundaries between them.
//
// Cells are built from pairwise bisecting hyperplanes: the cell of a seed is
// the intersection of the positive sides of its bisectors with every other
// seed. This is exact in any dimension and quadratic in the number of points,
// so above a configured size each seed is only bisected against its nearest
// neighbors, found through a KD-tree.
package category

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/index"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/space"
)

// denseFactor is how far above the mean density a cell must be to count as dense.
const denseFactor = 1.5

// boxPadding is the fraction of a group's extent added on each side of its bounding box.
const boxPadding = 0.1

// Params configures category formation.
type Params struct {
	MinPoints     int     // smallest group that becomes a category
	MaxRadius     float64 // seeds within this distance are connected; kernel bandwidth is half of it
	NeighborLimit int     // above this many points, bisect only against this many nearest neighbors
	Workers       int     // parallel density estimation
}

// DefaultParams returns the stock formation parameters.
func DefaultParams() Params {
	return Params{MinPoints: 3, MaxRadius: 2.0, NeighborLimit: 256, Workers: 4}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.MinPoints < 1 {
		return errors.Newf("min points must be >= 1, got %d", p.MinPoints)
	}
	if !(p.MaxRadius > 0) {
		return errors.Newf("max radius must be > 0, got %v", p.MaxRadius)
	}
	if p.NeighborLimit < 1 {
		return errors.Newf("neighbor limit must be >= 1, got %d", p.NeighborLimit)
	}
	return nil
}

// Cell is the tessellation cell of one seed point.
type Cell struct {
	Seed       geom.Point
	Index      int // position of the seed in the input
	Boundaries []geom.Hyperplane
	Density    float64
}

// Contains reports whether p is on the seed's side of every bisector.
func (c Cell) Contains(p geom.Point) bool {
	for _, h := range c.Boundaries {
		if !h.ContainsPositive(p) {
			return false
		}
	}
	return true
}

// Former groups dense cells into convex regions.
type Former struct {
	metric geom.Distancer
	params Params
	logger *zap.SugaredLogger
}

// Option configures a Former or Detector.
type Option func(*settings)

type settings struct {
	logger *zap.SugaredLogger
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *settings) { s.logger = l }
}

func applyOptions(opts []Option) settings {
	s := settings{logger: logger.ComponentLogger("category")}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewFormer returns a Former measuring with metric.
func NewFormer(metric geom.Distancer, params Params, opts ...Option) (*Former, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "category params")
	}
	if params.Workers < 1 {
		params.Workers = 1
	}
	s := applyOptions(opts)
	return &Former{metric: metric, params: params, logger: s.logger}, nil
}

// Detect forms categories over every point of sp under sp's metric. The
// regions are returned, not added.
func Detect(sp *space.Space, params Params, opts ...Option) ([]*geom.Region, error) {
	f, err := NewFormer(sp.Metric(), params, opts...)
	if err != nil {
		return nil, err
	}
	return f.Form(sp.Points())
}

// Tessellate builds one cell per point. Coincident points cannot be
// bisected and fail with ErrInvalidPoint.
func (f *Former) Tessellate(points []geom.Point) ([]Cell, error) {
	var neighbors func(i int) ([]int, error)
	if len(points) > f.params.NeighborLimit {
		var err error
		neighbors, err = f.nearestNeighbors(points)
		if err != nil {
			return nil, err
		}
	}

	cells := make([]Cell, len(points))
	for i, seed := range points {
		others, err := allOthers(len(points), i, neighbors)
		if err != nil {
			return nil, err
		}
		bounds := make([]geom.Hyperplane, 0, len(others))
		for _, j := range others {
			h, err := geom.Bisector(seed, points[j])
			if err != nil {
				return nil, errors.Wrapf(err, "cell %d against %d", i, j)
			}
			bounds = append(bounds, h)
		}
		cells[i] = Cell{Seed: seed, Index: i, Boundaries: bounds}
	}
	return cells, nil
}

func allOthers(n, i int, neighbors func(int) ([]int, error)) ([]int, error) {
	if neighbors != nil {
		return neighbors(i)
	}
	out := make([]int, 0, n-1)
	for j := 0; j < n; j++ {
		if j != i {
			out = append(out, j)
		}
	}
	return out, nil
}

// nearestNeighbors indexes points under temporary IDs so that points without
// an ID still take part.
func (f *Former) nearestNeighbors(points []geom.Point) (func(int) ([]int, error), error) {
	tree := index.NewKDTree(f.metric, index.WithLogger(f.logger))
	tags := make([]geom.Point, len(points))
	pos := make(map[uuid.UUID]int, len(points))
	for i, p := range points {
		id := uuid.New()
		tags[i] = p.WithID(id)
		pos[id] = i
	}
	if err := tree.Build(tags); err != nil {
		return nil, errors.Wrap(err, "neighbor index")
	}
	k := f.params.NeighborLimit
	return func(i int) ([]int, error) {
		ns, err := tree.KNearest(tags[i], k+1)
		if err != nil {
			return nil, err
		}
		out := make([]int, 0, k)
		for _, n := range ns {
			if j := pos[n.ID]; j != i && len(out) < k {
				out = append(out, j)
			}
		}
		return out, nil
	}, nil
}

// Densities fills in each cell's Gaussian kernel density over points,
// normalised by n times the bandwidth.
func (f *Former) Densities(cells []Cell, points []geom.Point) error {
	if len(points) == 0 {
		return nil
	}
	h := f.params.MaxRadius / 2
	norm := float64(len(points)) * h

	var g errgroup.Group
	g.SetLimit(f.params.Workers)
	for i := range cells {
		i := i
		g.Go(func() error {
			var sum float64
			for _, p := range points {
				d, err := f.metric.Distance(cells[i].Seed, p)
				if err != nil {
					return errors.Wrapf(err, "density of cell %d", i)
				}
				sum += math.Exp(-0.5 * (d / h) * (d / h))
			}
			cells[i].Density = sum / norm
			return nil
		})
	}
	return g.Wait()
}

// Form runs the full pipeline: tessellate, estimate densities, keep cells
// denser than 1.5 times the mean, connect dense seeds within MaxRadius and
// turn every connected group of at least MinPoints seeds into a region.
func (f *Former) Form(points []geom.Point) ([]*geom.Region, error) {
	if len(points) < f.params.MinPoints || len(points) == 0 {
		return nil, nil
	}
	start := time.Now()

	cells, err := f.Tessellate(points)
	if err != nil {
		return nil, err
	}
	if err := f.Densities(cells, points); err != nil {
		return nil, err
	}

	var mean float64
	for _, c := range cells {
		mean += c.Density
	}
	mean /= float64(len(cells))

	var dense []Cell
	for _, c := range cells {
		if c.Density > mean*denseFactor {
			dense = append(dense, c)
		}
	}

	groups, err := f.group(dense)
	if err != nil {
		return nil, err
	}

	var regions []*geom.Region
	for _, g := range groups {
		if len(g) < f.params.MinPoints {
			continue
		}
		r, err := regionFromGroup(g, len(regions)+1)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}

	f.logger.Debugw("Categories formed",
		logger.FieldPoints, len(points),
		"dense", len(dense),
		logger.FieldRegions, len(regions),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return regions, nil
}

// group flood-fills the proximity graph over dense seeds.
func (f *Former) group(cells []Cell) ([][]Cell, error) {
	visited := make([]bool, len(cells))
	var groups [][]Cell
	for i := range cells {
		if visited[i] {
			continue
		}
		var group []Cell
		stack := []int{i}
		visited[i] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			group = append(group, cells[cur])
			for j := range cells {
				if visited[j] {
					continue
				}
				d, err := f.metric.Distance(cells[cur].Seed, cells[j].Seed)
				if err != nil {
					return nil, err
				}
				if d <= f.params.MaxRadius {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// regionFromGroup builds a region whose prototype is the seed centroid and
// whose boundaries are the seeds' bounding box, padded by a tenth of the
// extent on each side. The box is a convex superset of the group.
func regionFromGroup(cells []Cell, n int) (*geom.Region, error) {
	seeds := make([]geom.Point, len(cells))
	for i, c := range cells {
		seeds[i] = c.Seed
	}
	proto, err := geom.Centroid(seeds)
	if err != nil {
		return nil, err
	}

	dims := proto.Len()
	min := make([]float64, dims)
	max := make([]float64, dims)
	for d := 0; d < dims; d++ {
		min[d], max[d] = math.Inf(1), math.Inf(-1)
		for _, s := range seeds {
			min[d] = math.Min(min[d], s.Coord(d))
			max[d] = math.Max(max[d], s.Coord(d))
		}
		pad := (max[d] - min[d]) * boxPadding
		min[d] -= pad
		max[d] += pad
	}
	planes, err := geom.AxisBounds(min, max)
	if err != nil {
		return nil, err
	}

	r := geom.NewRegion(proto, planes)
	r.Name = fmt.Sprintf("category %d", n)
	r.Description = "formed from dense tessellation cells"
	for _, s := range seeds {
		if s.HasID() {
			r.AddMember(s.ID)
		}
	}
	return r, nil
}
