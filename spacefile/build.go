package spacefile

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/dimension"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/space"
)

// Built is a constructed space with the name maps Build resolved.
type Built struct {
	Space      *space.Space
	Registry   *dimension.Registry
	Concepts   map[string]uuid.UUID
	Names      map[uuid.UUID]string
	Regions    map[string]uuid.UUID
	Definition *Definition
}

// ConceptName returns the name of a concept, or its ID when it has none.
func (b *Built) ConceptName(id uuid.UUID) string {
	if n, ok := b.Names[id]; ok {
		return n
	}
	return id.String()
}

// Concept returns the stored point named name.
func (b *Built) Concept(name string) (geom.Point, error) {
	id, ok := b.Concepts[name]
	if !ok {
		return geom.Point{}, errors.NotFoundf("concept %q", name)
	}
	return b.Space.Point(id)
}

// Values builds an unstored point from values keyed by dimension name,
// normalized when the definition is.
func (b *Built) Values(values map[string]float64) (geom.Point, error) {
	normalize := b.Definition != nil && b.Definition.Normalize
	return b.Registry.Point(values, normalize)
}

type buildSettings struct {
	p           float64
	context     string
	samples     int
	spaceOpts   []space.Option
	logger      *zap.SugaredLogger
	hasDefaultP bool
	weightKind  geom.WeightKind
}

// BuildOption configures Build.
type BuildOption func(*buildSettings)

// WithDefaultP sets the exponent used when the definition has none.
func WithDefaultP(p float64) BuildOption {
	return func(s *buildSettings) { s.p, s.hasDefaultP = p, true }
}

// WithDefaultContext sets the metric context used when the definition has none.
func WithDefaultContext(ctx string) BuildOption {
	return func(s *buildSettings) { s.context = ctx }
}

// WithDefaultConvexitySamples sets the sample count used when the
// definition has none.
func WithDefaultConvexitySamples(n int) BuildOption {
	return func(s *buildSettings) { s.samples = n }
}

// WithDefaultWeightKind sets how dimensions that declare neither modifiers
// nor attention bounds are weighted. A contextual default has no modifiers;
// an attentional default starts at the dimension weight within [0, max(weight, 1)].
func WithDefaultWeightKind(k geom.WeightKind) BuildOption {
	return func(s *buildSettings) { s.weightKind = k }
}

// WithSpaceOptions passes options through to space.New.
func WithSpaceOptions(opts ...space.Option) BuildOption {
	return func(s *buildSettings) { s.spaceOpts = append(s.spaceOpts, opts...) }
}

// WithLogger sets the logger handed to the built space.
func WithLogger(l *zap.SugaredLogger) BuildOption {
	return func(s *buildSettings) { s.logger = l }
}

// Build registers the dimensions, validates every value through the
// registry and constructs the space with its concepts and regions.
func (d *Definition) Build(opts ...BuildOption) (*Built, error) {
	set := buildSettings{p: 2}
	for _, o := range opts {
		o(&set)
	}

	reg := dimension.NewRegistry()
	weights := make([]geom.Weight, 0, len(d.Dimensions))
	for _, dd := range d.Dimensions {
		dim, w, err := dd.build(set.weightKind)
		if err != nil {
			return nil, errors.Wrapf(err, "dimension %q", dd.Name)
		}
		if err := reg.Register(dim); err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}

	p, ok, err := d.Metric.Exponent()
	if err != nil {
		return nil, err
	}
	if !ok {
		p = set.p
	}
	metric, err := geom.NewMetric(weights, p)
	if err != nil {
		return nil, err
	}
	metric.Context = d.Metric.Context
	if metric.Context == "" {
		metric.Context = set.context
	}

	samples := d.ConvexitySamples
	if samples == 0 {
		samples = set.samples
	}
	spaceOpts := set.spaceOpts
	if samples > 0 {
		spaceOpts = append([]space.Option{space.WithConvexitySamples(samples)}, spaceOpts...)
	}
	if set.logger != nil {
		spaceOpts = append(spaceOpts, space.WithLogger(set.logger))
	}
	sp, err := space.New(d.Name, reg.IDs(), metric, spaceOpts...)
	if err != nil {
		return nil, err
	}

	b := &Built{
		Space:      sp,
		Registry:   reg,
		Concepts:   make(map[string]uuid.UUID, len(d.Concepts)),
		Names:      make(map[uuid.UUID]string, len(d.Concepts)),
		Regions:    make(map[string]uuid.UUID, len(d.Regions)),
		Definition: d,
	}
	for _, c := range d.Concepts {
		pt, err := reg.Point(c.Values, d.Normalize)
		if err != nil {
			return nil, errors.Wrapf(err, "concept %q", c.Name)
		}
		id := sp.AddPoint(pt)
		b.Concepts[c.Name] = id
		b.Names[id] = c.Name
	}
	for _, rd := range d.Regions {
		r, err := b.region(rd)
		if err != nil {
			return nil, errors.Wrapf(err, "region %q", rd.Name)
		}
		if err := sp.AddRegion(r); err != nil {
			return nil, errors.Wrapf(err, "region %q", rd.Name)
		}
		b.Regions[rd.Name] = r.ID
	}
	return b, nil
}

func (dd DimensionDef) build(fallback geom.WeightKind) (dimension.Dimension, geom.Weight, error) {
	kind := dimension.Continuous
	if dd.Kind != "" {
		k, err := dimension.ParseKind(dd.Kind)
		if err != nil {
			return dimension.Dimension{}, geom.Weight{}, err
		}
		kind = k
	}

	var dim dimension.Dimension
	switch kind {
	case dimension.Categorical, dimension.Ordinal:
		if dd.Levels <= 0 {
			return dimension.Dimension{}, geom.Weight{}, errors.InvalidDimensionf("%s dimension needs levels > 0", kind)
		}
		dim = dimension.New(dd.Name, kind, dimension.Range{Start: 0, End: float64(dd.Levels)})
	case dimension.Circular:
		dim = dimension.NewCircular(dd.Name)
		if dd.Min != 0 || dd.Max != 0 {
			dim.Range = dimension.Range{Start: dd.Min, End: dd.Max}
		}
	default:
		dim = dimension.NewContinuous(dd.Name, dd.Min, dd.Max)
	}
	dim.Context = dd.Context
	dim.Description = dd.Description

	base := 1.0
	if dd.Weight != nil {
		base = *dd.Weight
	}
	if base < 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return dimension.Dimension{}, geom.Weight{}, errors.InvalidDimensionf("weight %v must be finite and non-negative", base)
	}
	switch {
	case dd.Attention != nil && len(dd.Modifiers) > 0:
		return dimension.Dimension{}, geom.Weight{}, errors.InvalidDimensionf("weight cannot be both contextual and attentional")
	case dd.Attention != nil:
		a := dd.Attention
		if a.Min < 0 || a.Min > a.Max {
			return dimension.Dimension{}, geom.Weight{}, errors.InvalidDimensionf("attention bounds [%v, %v] are invalid", a.Min, a.Max)
		}
		return dim, geom.Attentional(a.Current, a.Min, a.Max), nil
	case len(dd.Modifiers) > 0:
		return dim, geom.Contextual(base, dd.Modifiers), nil
	}
	switch fallback {
	case geom.WeightContextual:
		return dim, geom.Contextual(base, nil), nil
	case geom.WeightAttentional:
		return dim, geom.Attentional(base, 0, math.Max(base, 1)), nil
	}
	return dim, geom.Constant(base), nil
}

// coordinate maps a value in definition units to point coordinates. Bounds
// may sit on a range end, so this is the linear map without range checks.
func (b *Built) coordinate(dim dimension.Dimension, v float64) float64 {
	if !b.Definition.Normalize || dim.Range.Width() == 0 {
		return v
	}
	return (v - dim.Range.Start) / dim.Range.Width()
}

func (b *Built) region(rd RegionDef) (*geom.Region, error) {
	dims := b.Registry.All()
	n := len(dims)
	index := make(map[string]int, n)
	for i, dim := range dims {
		index[dim.Name] = i
	}

	for name := range rd.Bounds {
		if _, ok := index[name]; !ok {
			return nil, errors.InvalidDimensionf("bounds on unknown dimension %q", name)
		}
	}
	var planes []geom.Hyperplane
	for i, dim := range dims {
		bound, ok := rd.Bounds[dim.Name]
		if !ok {
			continue
		}
		if bound.Min != nil && bound.Max != nil && *bound.Min > *bound.Max {
			return nil, errors.InvalidDimensionf("bounds on %q have min %v above max %v", dim.Name, *bound.Min, *bound.Max)
		}
		if bound.Min != nil {
			normal := make([]float64, n)
			normal[i] = 1
			planes = append(planes, geom.Hyperplane{Normal: normal, Offset: b.coordinate(dim, *bound.Min)})
		}
		if bound.Max != nil {
			normal := make([]float64, n)
			normal[i] = -1
			planes = append(planes, geom.Hyperplane{Normal: normal, Offset: -b.coordinate(dim, *bound.Max)})
		}
	}
	for _, hd := range rd.Hyperplanes {
		normal := make([]float64, n)
		for name, v := range hd.Normal {
			i, ok := index[name]
			if !ok {
				return nil, errors.InvalidDimensionf("hyperplane on unknown dimension %q", name)
			}
			normal[i] = v
		}
		planes = append(planes, geom.Hyperplane{Normal: normal, Offset: hd.Offset})
	}

	members := make([]geom.Point, 0, len(rd.Members))
	for _, name := range rd.Members {
		p, err := b.Concept(name)
		if err != nil {
			return nil, errors.Wrap(err, "member")
		}
		members = append(members, p)
	}

	var proto geom.Point
	var err error
	switch {
	case len(rd.Prototype) > 0:
		proto, err = b.Values(rd.Prototype)
	case len(members) > 0:
		proto, err = geom.Centroid(members)
	default:
		err = errors.InvalidPointf("region needs a prototype or members")
	}
	if err != nil {
		return nil, errors.Wrap(err, "prototype")
	}

	r := geom.NewRegion(proto, planes)
	r.Name = rd.Name
	r.Description = rd.Description
	for i, m := range members {
		if !r.Contains(m) {
			return nil, errors.InvalidDimensionf("member %q lies outside the region", rd.Members[i])
		}
		r.AddMember(m.ID)
	}
	return r, nil
}
