package category

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/space"
)

// BoundaryKind says how a boundary was found.
type BoundaryKind int

// DensityGradient marks a boundary where smoothed density drops sharply
// between adjacent cells.
const DensityGradient BoundaryKind = iota

func (k BoundaryKind) String() string {
	if k == DensityGradient {
		return "density_gradient"
	}
	return "unknown"
}

// MarshalText renders the kind by name.
func (k BoundaryKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Boundary is a detected edge between two adjacent cells.
type Boundary struct {
	ID       uuid.UUID    `json:"id"`
	Position geom.Point   `json:"-"`
	Strength float64      `json:"strength"` // relative density difference in [0, 1]
	Kind     BoundaryKind `json:"kind"`
	Between  [2]int       `json:"between"` // input positions of the two seeds
}

// DetectorParams configures boundary detection.
type DetectorParams struct {
	GradientThreshold float64 // in [0, 1]
	SmoothingFactor   float64 // > 0
}

// DefaultDetectorParams returns the stock detection parameters.
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{GradientThreshold: 0.5, SmoothingFactor: 1.0}
}

// Validate checks the parameter ranges.
func (p DetectorParams) Validate() error {
	if p.GradientThreshold < 0 || p.GradientThreshold > 1 || math.IsNaN(p.GradientThreshold) {
		return errors.Newf("gradient threshold must be in [0,1], got %v", p.GradientThreshold)
	}
	if !(p.SmoothingFactor > 0) {
		return errors.Newf("smoothing factor must be > 0, got %v", p.SmoothingFactor)
	}
	return nil
}

// Detector finds boundaries where local density changes sharply between
// neighbouring cells. Neighbourhoods use plain euclidean distance: a cell
// sees every point closer than 3s, and two cells are adjacent when their
// seeds are within 2s, where s is the smoothing factor.
type Detector struct {
	params DetectorParams
	logger *zap.SugaredLogger
}

// NewDetector validates params and returns a Detector.
func NewDetector(params DetectorParams, opts ...Option) (*Detector, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "boundary params")
	}
	s := applyOptions(opts)
	return &Detector{params: params, logger: s.logger}, nil
}

// DetectBoundaries runs a Detector over every point of sp.
func DetectBoundaries(sp *space.Space, params DetectorParams, opts ...Option) ([]Boundary, error) {
	d, err := NewDetector(params, opts...)
	if err != nil {
		return nil, err
	}
	return d.Detect(sp.Points())
}

// Cells builds neighbourhood-restricted cells. Density is the neighbour count
// over s^dims.
func (d *Detector) Cells(points []geom.Point) ([]Cell, error) {
	s := d.params.SmoothingFactor
	reach := 3 * s
	cells := make([]Cell, len(points))
	for i, seed := range points {
		var bounds []geom.Hyperplane
		for j, other := range points {
			if i == j {
				continue
			}
			dist, err := geom.Euclidean.Distance(seed, other)
			if err != nil {
				return nil, errors.Wrapf(err, "cell %d against %d", i, j)
			}
			if dist >= reach {
				continue
			}
			h, err := geom.Bisector(seed, other)
			if err != nil {
				return nil, errors.Wrapf(err, "cell %d against %d", i, j)
			}
			bounds = append(bounds, h)
		}
		cells[i] = Cell{
			Seed:       seed,
			Index:      i,
			Boundaries: bounds,
			Density:    float64(len(bounds)) / math.Pow(s, float64(seed.Len())),
		}
	}
	return cells, nil
}

// Detect returns a boundary at the midpoint of every adjacent cell pair whose
// density gradient |Δ|/max exceeds the threshold, in input order.
func (d *Detector) Detect(points []geom.Point) ([]Boundary, error) {
	if len(points) == 0 {
		return nil, nil
	}
	cells, err := d.Cells(points)
	if err != nil {
		return nil, err
	}

	adjacent := 2 * d.params.SmoothingFactor
	var out []Boundary
	for i := range cells {
		for j := i + 1; j < len(cells); j++ {
			a, b := cells[i], cells[j]
			dist, err := geom.Euclidean.Distance(a.Seed, b.Seed)
			if err != nil {
				return nil, err
			}
			if dist > adjacent {
				continue
			}
			top := math.Max(a.Density, b.Density)
			if top <= 0 {
				continue
			}
			strength := math.Abs(a.Density-b.Density) / top
			if strength <= d.params.GradientThreshold {
				continue
			}
			mid, err := geom.Interpolate(a.Seed, b.Seed, 0.5)
			if err != nil {
				return nil, err
			}
			out = append(out, Boundary{
				ID:       uuid.New(),
				Position: mid,
				Strength: strength,
				Kind:     DensityGradient,
				Between:  [2]int{i, j},
			})
		}
	}
	d.logger.Debugw("Boundaries detected", logger.FieldPoints, len(points), logger.FieldCount, len(out))
	return out, nil
}
