package geom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cspace/errors"
)

func mustPoint(t *testing.T, dims []DimensionID, coords ...float64) Point {
	t.Helper()
	p, err := PointOver(dims, coords)
	require.NoError(t, err)
	return p
}

func TestNewPointValidatesDimensionMap(t *testing.T) {
	a, b := NewDimensionID(), NewDimensionID()

	tests := []struct {
		name   string
		coords []float64
		dims   map[DimensionID]int
		ok     bool
	}{
		{"matching", []float64{1, 2}, map[DimensionID]int{a: 0, b: 1}, true},
		{"length mismatch", []float64{1, 2, 3}, map[DimensionID]int{a: 0, b: 1}, false},
		{"index out of range", []float64{1, 2}, map[DimensionID]int{a: 0, b: 2}, false},
		{"negative index", []float64{1, 2}, map[DimensionID]int{a: -1, b: 1}, false},
		{"duplicate index", []float64{1, 2}, map[DimensionID]int{a: 1, b: 1}, false},
		{"empty", nil, map[DimensionID]int{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoint(tt.coords, tt.dims)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsInvalidDimension(err), "got %v", err)
			}
		})
	}
}

func TestPointIsImmutable(t *testing.T) {
	dims := NewDimensionIDs(2)
	coords := []float64{1, 2}
	p := mustPoint(t, dims, coords...)
	coords[0] = 99

	got := p.Coords()
	got[1] = 42
	assert.Equal(t, []float64{1, 2}, p.Coords())
}

func TestPointValueByDimension(t *testing.T) {
	dims := NewDimensionIDs(3)
	p := mustPoint(t, dims, 0.1, 0.2, 0.3)

	v, ok := p.Value(dims[2])
	assert.True(t, ok)
	assert.Equal(t, 0.3, v)

	_, ok = p.Value(NewDimensionID())
	assert.False(t, ok)
}

func TestProjectReordersSharedDimensions(t *testing.T) {
	dims := NewDimensionIDs(3)
	p := mustPoint(t, dims, 1, 2, 3).WithID(uuid.New())

	q, err := p.Project([]DimensionID{dims[2], dims[0]})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, q.Coords())
	assert.Equal(t, p.ID, q.ID)

	_, err = p.Project([]DimensionID{NewDimensionID()})
	assert.True(t, errors.IsInvalidDimension(err))
}

func TestDimensionIDText(t *testing.T) {
	id := NewDimensionID()
	text, err := id.MarshalText()
	require.NoError(t, err)

	var back DimensionID
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, id, back)

	parsed, err := ParseDimensionID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseDimensionID("not-a-uuid")
	assert.True(t, errors.IsInvalidDimension(err))
}

func TestWeightedDistance(t *testing.T) {
	dims := NewDimensionIDs(3)
	a := mustPoint(t, dims, 1, 2, 3)
	b := mustPoint(t, dims, 4, 6, 8)

	d, err := WeightedDistance(a, b, []float64{1, 1, 1}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 7.071, d, 1e-3)

	d, err = WeightedDistance(a, b, []float64{2, 1, 0.5}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 6.819, d, 1e-3)

	d, err = WeightedDistance(a, b, []float64{1, 1, 1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 12, d, 1e-12)

	d, err = WeightedDistance(a, b, []float64{1, 1, 1}, math.Inf(1))
	require.NoError(t, err)
	assert.InDelta(t, 5, d, 1e-12)

	d, err = WeightedDistance(a, b, []float64{1, 1, 0}, math.Inf(1))
	require.NoError(t, err)
	assert.InDelta(t, 4, d, 1e-12, "zero-weight dimensions are ignored in the limit")

	d, err = WeightedDistance(a, b, []float64{1, 1, 1}, 3)
	require.NoError(t, err)
	assert.InDelta(t, math.Cbrt(27+64+125), d, 1e-9)
}

func TestWeightedDistanceRejectsMismatches(t *testing.T) {
	a := mustPoint(t, NewDimensionIDs(3), 1, 2, 3)
	b := mustPoint(t, NewDimensionIDs(2), 1, 2)

	_, err := WeightedDistance(a, b, []float64{1, 1, 1}, 2)
	assert.True(t, errors.IsInvalidDimension(err))

	_, err = WeightedDistance(a, a, []float64{1, 1}, 2)
	assert.True(t, errors.IsInvalidDimension(err))
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, err = WeightedDistance(a, a, []float64{1, 1, 1}, 0)
	assert.True(t, errors.IsInvalidDimension(err))
}

func TestMeasures(t *testing.T) {
	dims := NewDimensionIDs(2)
	a := mustPoint(t, dims, 0, 0)
	b := mustPoint(t, dims, 3, 4)
	c := mustPoint(t, dims, 1, 0)
	d := mustPoint(t, dims, 0, 2)

	e, err := Euclidean.Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 5, e, 1e-12)

	m, err := Manhattan.Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 7, m, 1e-12)

	ch, err := Chebyshev.Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 4, ch, 1e-12)

	cos, err := CosineDistance.Distance(c, d)
	require.NoError(t, err)
	assert.InDelta(t, 1, cos, 1e-12)

	_, err = CosineDistance.Distance(a, b)
	assert.True(t, errors.IsInvalidPoint(err))

	assert.Equal(t, 0.0, CosineDistance.AxisBound(0, 5))
	assert.Equal(t, 5.0, Euclidean.AxisBound(0, -5))
}

func TestHyperplaneContainment(t *testing.T) {
	dims := NewDimensionIDs(2)
	h := Hyperplane{Normal: []float64{1, 0}, Offset: 0.5}

	d, err := h.SignedDistance(mustPoint(t, dims, 2, 7))
	require.NoError(t, err)
	assert.Equal(t, 1.5, d)

	assert.True(t, h.ContainsPositive(mustPoint(t, dims, 0.5, 0)), "boundary is on the positive side")
	assert.False(t, h.ContainsPositive(mustPoint(t, dims, 0.4, 0)))

	_, err = h.SignedDistance(mustPoint(t, NewDimensionIDs(3), 1, 1, 1))
	assert.True(t, errors.IsInvalidDimension(err))
	assert.False(t, h.ContainsPositive(mustPoint(t, NewDimensionIDs(3), 1, 1, 1)))
}

func unitSquare(t *testing.T) *Region {
	t.Helper()
	planes, err := AxisBounds([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	return NewRegion(Point{}, planes)
}

func TestUnitSquareRegion(t *testing.T) {
	dims := NewDimensionIDs(2)
	sq := unitSquare(t)

	assert.True(t, sq.Contains(mustPoint(t, dims, 0.3, 0.7)))
	assert.False(t, sq.Contains(mustPoint(t, dims, 1.5, 0.5)))
	assert.True(t, sq.Contains(mustPoint(t, dims, 1, 0)), "box is closed")
	assert.Len(t, sq.Boundaries, 4)
}

func TestAxisBoundsRejectsInvertedBox(t *testing.T) {
	_, err := AxisBounds([]float64{1}, []float64{0})
	assert.True(t, errors.IsInvalidDimension(err))
	_, err = AxisBounds([]float64{0, 0}, []float64{1})
	assert.True(t, errors.IsInvalidDimension(err))
}

func TestBisector(t *testing.T) {
	dims := NewDimensionIDs(2)
	a := mustPoint(t, dims, 0, 0)
	b := mustPoint(t, dims, 2, 0)

	h, err := Bisector(a, b)
	require.NoError(t, err)
	assert.True(t, h.ContainsPositive(a))
	assert.False(t, h.ContainsPositive(b))
	mid, err := h.SignedDistance(mustPoint(t, dims, 1, 5))
	require.NoError(t, err)
	assert.InDelta(t, 0, mid, 1e-12)

	_, err = Bisector(a, a)
	assert.True(t, errors.IsInvalidPoint(err))
}

func TestRegionConvexitySampling(t *testing.T) {
	dims := NewDimensionIDs(2)
	sq := unitSquare(t)

	ok, err := sq.IsConvex([]Point{mustPoint(t, dims, 0, 0), mustPoint(t, dims, 1, 1), mustPoint(t, dims, 0.2, 0.9)}, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// members on either side of the box: the t=0.75 sample falls outside
	ok, err = sq.IsConvex([]Point{mustPoint(t, dims, -1, 0.5), mustPoint(t, dims, 3, 0.5)}, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegionMembership(t *testing.T) {
	r := NewRegion(Point{}, nil)
	id := uuid.New()

	r.AddMember(id)
	r.AddMember(id)
	assert.Equal(t, 1, r.MemberCount())
	assert.True(t, r.HasMember(id))

	clone := r.Clone()
	assert.True(t, r.RemoveMember(id))
	assert.False(t, r.RemoveMember(id))
	assert.Equal(t, 0, r.MemberCount())
	assert.Equal(t, 1, clone.MemberCount(), "clone does not share members")
}

func TestUpdatePrototype(t *testing.T) {
	dims := NewDimensionIDs(2)
	protoID := uuid.New()
	r := NewRegion(mustPoint(t, dims, 9, 9).WithID(protoID), nil)

	require.NoError(t, r.UpdatePrototype([]Point{mustPoint(t, dims, 0, 0), mustPoint(t, dims, 2, 4)}))
	if diff := cmp.Diff([]float64{1, 2}, r.Prototype.Coords()); diff != "" {
		t.Errorf("prototype mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, protoID, r.Prototype.ID)

	assert.True(t, errors.IsInvalidPoint(r.UpdatePrototype(nil)))
}

func TestWeights(t *testing.T) {
	ctx := Contextual(1.0, map[string]float64{"visual": 2.0, "semantic": 0.5})
	assert.Equal(t, 2.0, ctx.Resolve("visual"))
	assert.Equal(t, 0.5, ctx.Resolve("semantic"))
	assert.Equal(t, 1.0, ctx.Resolve("unknown"))
	assert.Equal(t, 1.0, ctx.Resolve(""))

	att := Attentional(5, 0, 2)
	assert.Equal(t, 2.0, att.Resolve(""))
	att = att.Attend(-1)
	assert.Equal(t, 0.0, att.Resolve(""))
	att = att.Attend(1.5)
	assert.Equal(t, 1.5, att.Resolve(""))

	c := Constant(3)
	assert.Equal(t, c, c.Attend(10))
}

func TestWeightValidate(t *testing.T) {
	tests := []struct {
		name string
		w    Weight
		ok   bool
	}{
		{"constant", Constant(2), true},
		{"zero", Constant(0), true},
		{"negative", Constant(-1), false},
		{"nan", Constant(math.NaN()), false},
		{"infinite", Constant(math.Inf(1)), false},
		{"negative modifier", Contextual(1, map[string]float64{"visual": -2}), false},
		{"attentional", Attentional(1, 0, 2), true},
		{"inverted bounds", Weight{Kind: WeightAttentional, Current: 1, Min: 2, Max: 1}, false},
		{"infinite bound", Weight{Kind: WeightAttentional, Current: 1, Min: 0, Max: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.IsInvalidDimension(err))
		})
	}

	_, err := NewMetric(Constants([]float64{1, -4}), 2)
	assert.True(t, errors.IsInvalidDimension(err))
}

func TestMetricResolvesContext(t *testing.T) {
	dims := NewDimensionIDs(2)
	m, err := NewMetric([]Weight{Contextual(1, map[string]float64{"visual": 4}), Constant(1)}, 2)
	require.NoError(t, err)

	a := mustPoint(t, dims, 0, 0)
	b := mustPoint(t, dims, 1, 0)

	d, err := m.Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-12)

	d, err = m.WithContext("visual").Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2, d, 1e-12)

	assert.InDelta(t, 2, m.WithContext("visual").AxisBound(0, 1), 1e-12)
	assert.Equal(t, 0.0, m.AxisBound(7, 1))

	_, err = NewMetric(nil, -2)
	assert.True(t, errors.IsInvalidDimension(err))
}

func TestMetricCloneIsDeep(t *testing.T) {
	m := Metric{Weights: []Weight{Contextual(1, map[string]float64{"a": 2})}, P: 2}
	c := m.Clone()
	c.Weights[0].Modifiers["a"] = 9
	c.Weights[0].Base = 7
	assert.Equal(t, 2.0, m.Weights[0].Modifiers["a"])
	assert.Equal(t, 1.0, m.Weights[0].Base)
	assert.Equal(t, WeightContextual, c.Weights[0].Kind)
}

func TestOpenBall(t *testing.T) {
	dims := NewDimensionIDs(2)
	ball := OpenBall{Center: mustPoint(t, dims, 0, 0), Radius: 1, Metric: Euclidean}

	in, err := ball.Contains(mustPoint(t, dims, 0.5, 0.5))
	require.NoError(t, err)
	assert.True(t, in)

	in, err = ball.Contains(mustPoint(t, dims, 1, 0))
	require.NoError(t, err)
	assert.False(t, in, "ball is open")
}

func TestInterpolateAndCentroid(t *testing.T) {
	dims := NewDimensionIDs(2)
	a := mustPoint(t, dims, 0, 0)
	b := mustPoint(t, dims, 4, 8)

	mid, err := Interpolate(a, b, 0.25)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, mid.Coords())
	v, ok := mid.Value(dims[1])
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, err = Interpolate(a, mustPoint(t, NewDimensionIDs(1), 1), 0.5)
	assert.True(t, errors.IsInvalidDimension(err))

	c, err := Centroid([]Point{a, b})
	require.NoError(t, err)
	assert.True(t, Equal(c, mustPoint(t, dims, 2, 4)))
}

func TestCosine(t *testing.T) {
	dims := NewDimensionIDs(2)
	c, err := Cosine(mustPoint(t, dims, 1, 0), mustPoint(t, dims, -2, 0))
	require.NoError(t, err)
	assert.InDelta(t, -1, c, 1e-12)
}
