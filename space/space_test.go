package space

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/index"
)

type fixture struct {
	t    *testing.T
	dims []geom.DimensionID
	sp   *Space
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	dims := geom.NewDimensionIDs(n)
	sp, err := New("test", dims, geom.EuclideanMetric(n), WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)
	return &fixture{t: t, dims: dims, sp: sp}
}

func (f *fixture) point(coords ...float64) geom.Point {
	f.t.Helper()
	p, err := geom.PointOver(f.dims, coords)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) add(coords ...float64) uuid.UUID {
	return f.sp.AddPoint(f.point(coords...))
}

func (f *fixture) box(min, max []float64, members ...uuid.UUID) *geom.Region {
	f.t.Helper()
	planes, err := geom.AxisBounds(min, max)
	require.NoError(f.t, err)
	center := make([]float64, len(min))
	for i := range min {
		center[i] = (min[i] + max[i]) / 2
	}
	r := geom.NewRegion(f.point(center...), planes)
	for _, m := range members {
		r.AddMember(m)
	}
	return r
}

func TestNewValidates(t *testing.T) {
	dims := geom.NewDimensionIDs(3)

	_, err := New("bad", dims, geom.EuclideanMetric(2))
	assert.True(t, errors.IsInvalidDimension(err))

	_, err = New("dup", []geom.DimensionID{dims[0], dims[0]}, geom.EuclideanMetric(2))
	assert.True(t, errors.IsInvalidDimension(err))

	m := geom.EuclideanMetric(3)
	m.P = 0
	_, err = New("p", dims, m)
	assert.True(t, errors.IsInvalidDimension(err))

	fixed := uuid.New()
	sp, err := New("ok", dims, geom.EuclideanMetric(3), WithID(fixed), WithConvexitySamples(9))
	require.NoError(t, err)
	assert.Equal(t, fixed, sp.ID())
	assert.Equal(t, 9, sp.ConvexitySamples())
	assert.Equal(t, dims, sp.Dimensions())
}

func TestAddPointAssignsIDs(t *testing.T) {
	f := newFixture(t, 2)
	id := f.add(1, 2)
	assert.NotEqual(t, uuid.Nil, id)

	fixed := uuid.New()
	assert.Equal(t, fixed, f.sp.AddPoint(f.point(3, 4).WithID(fixed)))

	// re-adding an ID replaces the point in place
	f.sp.AddPoint(f.point(5, 6).WithID(id))
	assert.Equal(t, 2, f.sp.Len())
	p, err := f.sp.Point(id)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, p.Coords())
	assert.Equal(t, id, f.sp.Points()[0].ID)

	_, err = f.sp.Point(uuid.New())
	assert.True(t, errors.IsNotFoundError(err))
}

func TestAddRegionConvexity(t *testing.T) {
	f := newFixture(t, 2)
	a := f.add(0.1, 0.1)
	b := f.add(0.9, 0.9)

	require.NoError(t, f.sp.AddRegion(f.box([]float64{0, 0}, []float64{1, 1}, a, b)))
	assert.Equal(t, 1, f.sp.RegionCount())

	// the midpoint of the two members falls outside [0.6, 1] x [0, 1]
	left := f.add(0, 0.5)
	right := f.add(1, 0.5)
	err := f.sp.AddRegion(f.box([]float64{0.6, 0}, []float64{1, 1}, left, right))
	assert.True(t, errors.IsInvalidDimension(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
	assert.Equal(t, 1, f.sp.RegionCount(), "rejected region is not stored")
}

func TestAddRegionSkipsUnknownMembers(t *testing.T) {
	f := newFixture(t, 2)
	inside := f.add(0.5, 0.5)
	require.NoError(t, f.sp.AddRegion(f.box([]float64{0, 0}, []float64{1, 1}, inside, uuid.New(), uuid.New())))
}

func TestAddRegionRejectsMalformed(t *testing.T) {
	f := newFixture(t, 2)

	r := f.box([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, f.sp.AddRegion(r))
	assert.True(t, errors.IsInvalidDimension(f.sp.AddRegion(r)), "duplicate id")

	wrong := f.box([]float64{0, 0}, []float64{1, 1})
	wrong.Boundaries = append(wrong.Boundaries, geom.Hyperplane{Normal: []float64{1, 0, 0}})
	assert.True(t, errors.IsInvalidDimension(f.sp.AddRegion(wrong)))

	noProto := geom.NewRegion(geom.Point{}, nil)
	assert.True(t, errors.IsInvalidDimension(f.sp.AddRegion(noProto)))

	assert.True(t, errors.IsInvalidPoint(f.sp.AddRegion(nil)))
}

func TestRegionsAreCopies(t *testing.T) {
	f := newFixture(t, 2)
	r := f.box([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, f.sp.AddRegion(r))

	got, err := f.sp.Region(r.ID)
	require.NoError(t, err)
	got.AddMember(uuid.New())
	got.Boundaries[0].Offset = 100

	again, err := f.sp.Region(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.MemberCount())
	assert.Equal(t, 0.0, again.Boundaries[0].Offset)

	_, err = f.sp.Region(uuid.New())
	assert.True(t, errors.IsNotFoundError(err))
}

func TestFindContainingRegions(t *testing.T) {
	f := newFixture(t, 2)
	unit := f.box([]float64{0, 0}, []float64{1, 1})
	big := f.box([]float64{-5, -5}, []float64{5, 5})
	require.NoError(t, f.sp.AddRegion(unit))
	require.NoError(t, f.sp.AddRegion(big))

	got := f.sp.FindContainingRegions(f.point(0.3, 0.7))
	require.Len(t, got, 2)
	assert.Equal(t, unit.ID, got[0].ID)

	got = f.sp.FindContainingRegions(f.point(1.5, 0.5))
	require.Len(t, got, 1)
	assert.Equal(t, big.ID, got[0].ID)

	assert.Empty(t, f.sp.ContainingRegionIDs(f.point(10, 10)))
}

func TestKNearest(t *testing.T) {
	f := newFixture(t, 2)
	a := f.add(0, 0)
	b := f.add(1, 1)
	f.add(2, 2)

	got, err := f.sp.KNearest(f.point(0.1, 0.1), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].ID)
	assert.Equal(t, b, got[1].ID)
	assert.Less(t, got[0].Distance, got[1].Distance)

	got, err = f.sp.KNearest(f.point(0, 0), 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = f.sp.KNearest(geom.Point{}, 1)
	assert.True(t, errors.IsInvalidDimension(err), "a bad query aborts")
}

func TestWithinRadius(t *testing.T) {
	f := newFixture(t, 2)
	a := f.add(0, 0)
	b := f.add(3, 4)
	f.add(10, 10)

	got, err := f.sp.WithinRadius(f.point(0, 0), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].ID)
	assert.Equal(t, b, got[1].ID)
}

func TestVerifyMetricAxioms(t *testing.T) {
	f := newFixture(t, 2)
	f.add(0, 0)
	f.add(1, 0)
	f.add(1, 1)
	f.add(0.3, 0.9)

	ok, err := f.sp.VerifyMetricAxioms(10)
	require.NoError(t, err)
	assert.True(t, ok)

	// p < 1 is not a metric: d((0,0),(1,1)) = 4 > 1 + 1
	broken, err := New("p-half", f.dims, geom.Metric{Weights: geom.Constants([]float64{1, 1}), P: 0.5})
	require.NoError(t, err)
	for _, p := range f.sp.Points() {
		broken.AddPoint(p)
	}
	v, err := broken.CheckMetricAxioms(10)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "triangle", v.Axiom)

	ok, err = broken.VerifyMetricAxioms(10)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = broken.VerifyMetricAxioms(2)
	require.NoError(t, err)
	assert.True(t, ok, "two points cannot violate the triangle inequality")
}

func TestReplaceWeightsRoundTrip(t *testing.T) {
	f := newFixture(t, 3)

	require.NoError(t, f.sp.ReplaceWeightValues([]float64{2, 1, 0.5}))
	assert.Equal(t, []float64{2, 1, 0.5}, f.sp.ResolvedWeights())

	err := f.sp.ReplaceWeightValues([]float64{1, 1})
	assert.True(t, errors.IsInvalidDimension(err))
	assert.Equal(t, []float64{2, 1, 0.5}, f.sp.ResolvedWeights(), "old weights kept")

	a := f.sp.AddPoint(f.point(1, 2, 3))
	b := f.sp.AddPoint(f.point(4, 6, 8))
	pa, _ := f.sp.Point(a)
	pb, _ := f.sp.Point(b)
	d, err := f.sp.Distance(pa, pb)
	require.NoError(t, err)
	assert.InDelta(t, 6.819, d, 1e-3)

	ws := f.sp.Weights()
	ws[0] = geom.Constant(100)
	assert.Equal(t, 2.0, f.sp.ResolvedWeights()[0], "Weights returns a copy")
}

func TestReplaceWeightsRejectsInvalidValues(t *testing.T) {
	f := newFixture(t, 2)
	f.add(0, 0)
	f.add(1, 2)
	f.add(4, 4)

	for name, values := range map[string][]float64{
		"negative": {-4, 1},
		"nan":      {math.NaN(), 1},
		"infinite": {1, math.Inf(1)},
	} {
		t.Run(name, func(t *testing.T) {
			err := f.sp.ReplaceWeightValues(values)
			assert.True(t, errors.IsInvalidDimension(err))
			assert.Equal(t, []float64{1, 1}, f.sp.ResolvedWeights(), "old weights kept")
		})
	}

	err := f.sp.ReplaceWeights([]geom.Weight{{Kind: geom.WeightAttentional, Current: 1, Min: 2, Max: 0.5}, geom.Constant(1)})
	assert.True(t, errors.IsInvalidDimension(err))

	ns, err := f.sp.KNearest(f.point(0, 0), 3)
	require.NoError(t, err)
	for _, n := range ns {
		assert.False(t, math.IsNaN(n.Distance))
	}
	ok, err := f.sp.VerifyMetricAxioms(3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRejectsInvalidWeights(t *testing.T) {
	dims := geom.NewDimensionIDs(2)
	_, err := New("neg", dims, geom.Metric{Weights: geom.Constants([]float64{-1, 1}), P: 2})
	assert.True(t, errors.IsInvalidDimension(err))

	_, err = New("modifier", dims, geom.Metric{
		Weights: []geom.Weight{geom.Contextual(1, map[string]float64{"visual": math.NaN()}), geom.Constant(1)},
		P:       2,
	})
	assert.True(t, errors.IsInvalidDimension(err))
}

func TestMetricAxiomsReportNonFiniteDistance(t *testing.T) {
	f := newFixture(t, 2)
	a := f.add(0, 0)
	b := f.add(1e200, 0) // the squared gap overflows to +Inf

	v, err := f.sp.CheckMetricAxioms(2)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "finiteness", v.Axiom)
	assert.Equal(t, []uuid.UUID{a, b}, v.Points)

	ok, err := f.sp.VerifyMetricAxioms(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContextualWeights(t *testing.T) {
	dims := geom.NewDimensionIDs(2)
	m := geom.Metric{
		Weights: []geom.Weight{
			geom.Contextual(1, map[string]float64{"visual": 2, "semantic": 0.5}),
			geom.Constant(1),
		},
		P: 2,
	}
	sp, err := New("ctx", dims, m)
	require.NoError(t, err)

	sp.SetContext("visual")
	assert.Equal(t, []float64{2, 1}, sp.ResolvedWeights())
	assert.Equal(t, "visual", sp.Context())
	sp.SetContext("semantic")
	assert.Equal(t, []float64{0.5, 1}, sp.ResolvedWeights())
	sp.SetContext("unknown")
	assert.Equal(t, []float64{1, 1}, sp.ResolvedWeights())
}

func TestUpdateAttention(t *testing.T) {
	dims := geom.NewDimensionIDs(2)
	sp, err := New("att", dims, geom.Metric{
		Weights: []geom.Weight{geom.Attentional(1, 0.5, 2), geom.Constant(1)},
		P:       2,
	})
	require.NoError(t, err)

	require.NoError(t, sp.UpdateAttention(dims[0], 5))
	assert.Equal(t, 2.0, sp.ResolvedWeights()[0])
	assert.True(t, errors.IsInvalidDimension(sp.UpdateAttention(dims[1], 1)))
	assert.True(t, errors.IsNotFoundError(sp.UpdateAttention(geom.NewDimensionID(), 1)))
}

func TestRecomputePrototype(t *testing.T) {
	f := newFixture(t, 2)
	a := f.add(0, 0)
	b := f.add(1, 0.5)
	r := f.box([]float64{-1, -1}, []float64{2, 2}, a, b)
	require.NoError(t, f.sp.AddRegion(r))

	require.NoError(t, f.sp.RecomputePrototype(r.ID))
	got, err := f.sp.Region(r.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25}, got.Prototype.Coords())

	empty := f.box([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, f.sp.AddRegion(empty))
	assert.True(t, errors.IsInvalidPoint(f.sp.RecomputePrototype(empty.ID)))
	assert.True(t, errors.IsNotFoundError(f.sp.RecomputePrototype(uuid.New())))
}

func TestPrototypeCell(t *testing.T) {
	f := newFixture(t, 1)
	near := f.add(0.1)
	far := f.add(0.9)

	left := geom.NewRegion(f.point(0), nil)
	right := geom.NewRegion(f.point(1), nil)
	require.NoError(t, f.sp.AddRegion(left))
	require.NoError(t, f.sp.AddRegion(right))

	cell, err := f.sp.PrototypeCell(left.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{near}, cell)

	cell, err = f.sp.PrototypeCell(right.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{far}, cell)
}

func TestFindByQualities(t *testing.T) {
	f := newFixture(t, 2)
	f.add(0.2, 0.8)
	mid := f.add(0.5, 0.5)
	f.add(0.9, 0.1)

	got := f.sp.FindByQualities(Criteria{
		Minimum: map[geom.DimensionID]float64{f.dims[0]: 0.3},
		Maximum: map[geom.DimensionID]float64{f.dims[1]: 0.6, f.dims[0]: 0.6},
	})
	require.Len(t, got, 1)
	assert.Equal(t, mid, got[0].ID)

	got = f.sp.FindByQualities(Criteria{Required: map[geom.DimensionID]float64{f.dims[1]: 0.5}})
	require.Len(t, got, 1)

	assert.Empty(t, f.sp.FindByQualities(Criteria{MustHave: []geom.DimensionID{geom.NewDimensionID()}}))
	assert.Len(t, f.sp.FindByQualities(Criteria{}), 3)
}

func TestBuildIndexIsIndependent(t *testing.T) {
	f := newFixture(t, 2)
	a := f.add(0, 0)
	f.add(1, 1)

	idx := index.NewKDTree(f.sp.Metric())
	require.NoError(t, f.sp.BuildIndex(idx))
	assert.Equal(t, 2, idx.Len())

	f.add(0.01, 0.01)
	assert.Equal(t, 2, idx.Len(), "index does not follow the space")

	got, err := idx.KNearest(f.point(0, 0), 1)
	require.NoError(t, err)
	assert.Equal(t, a, got[0].ID)
}

func TestInfiniteP(t *testing.T) {
	dims := geom.NewDimensionIDs(2)
	sp, err := New("cheb", dims, geom.Metric{Weights: geom.Constants([]float64{1, 1}), P: math.Inf(1)})
	require.NoError(t, err)
	a, _ := geom.PointOver(dims, []float64{0, 0})
	b, _ := geom.PointOver(dims, []float64{3, 4})
	d, err := sp.Distance(a, b)
	require.NoError(t, err)
	assert.Equal(t, 4.0, d)
}
