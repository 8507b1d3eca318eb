package index

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
)

var dims2 = geom.NewDimensionIDs(2)

func pt(t testing.TB, coords ...float64) geom.Point {
	t.Helper()
	p, err := geom.PointOver(dims2[:len(coords)], coords)
	require.NoError(t, err)
	return p.WithID(uuid.New())
}

func implementations(t *testing.T) map[string]Index {
	l := zaptest.NewLogger(t).Sugar()
	return map[string]Index{
		"linear": NewLinear(geom.Euclidean, WithLogger(l)),
		"kdtree": NewKDTree(geom.Euclidean, WithLogger(l)),
	}
}

func TestKNearestOrdersByDistance(t *testing.T) {
	for name, idx := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			a, b, c := pt(t, 0, 0), pt(t, 1, 1), pt(t, 2, 2)
			for _, p := range []geom.Point{a, b, c} {
				require.NoError(t, idx.Insert(p))
			}

			got, err := idx.KNearest(pt(t, 0.1, 0.1), 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, a.ID, got[0].ID)
			assert.Equal(t, b.ID, got[1].ID)
			assert.Less(t, got[0].Distance, got[1].Distance)
			assert.Equal(t, 3, idx.Len())
		})
	}
}

func TestRangeSearchIsInclusive(t *testing.T) {
	for name, idx := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			origin, edge, out := pt(t, 0, 0), pt(t, 3, 4), pt(t, 3, 4.1)
			for _, p := range []geom.Point{origin, edge, out} {
				require.NoError(t, idx.Insert(p))
			}

			got, err := idx.RangeSearch(pt(t, 0, 0), 5)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, origin.ID, got[0].ID)
			assert.Equal(t, edge.ID, got[1].ID)
		})
	}
}

func TestTiesFollowDiscoveryOrder(t *testing.T) {
	idx := NewLinear(geom.Euclidean)
	first, second := pt(t, 1, 0), pt(t, -1, 0)
	require.NoError(t, idx.Insert(first))
	require.NoError(t, idx.Insert(second))

	got, err := idx.KNearest(pt(t, 0, 0), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)
}

func TestPointsWithoutIDAreSkipped(t *testing.T) {
	for name, idx := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			anon, err := geom.PointOver(dims2, []float64{0, 0})
			require.NoError(t, err)
			named := pt(t, 5, 5)
			require.NoError(t, idx.Insert(anon))
			require.NoError(t, idx.Insert(named))

			got, err := idx.KNearest(pt(t, 0, 0), 5)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, named.ID, got[0].ID)
		})
	}
}

func TestRemove(t *testing.T) {
	for name, idx := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			a, b := pt(t, 0, 0), pt(t, 1, 1)
			require.NoError(t, idx.Insert(a))
			require.NoError(t, idx.Insert(b))

			require.NoError(t, idx.Remove(a.ID))
			assert.Equal(t, 1, idx.Len())
			assert.True(t, errors.IsNotFoundError(idx.Remove(a.ID)))

			got, err := idx.KNearest(pt(t, 0, 0), 2)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, b.ID, got[0].ID)

			idx.Clear()
			assert.Equal(t, 0, idx.Len())
		})
	}
}

func TestDimensionMismatchAbortsQuery(t *testing.T) {
	for name, idx := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Insert(pt(t, 0, 0)))

			_, err := idx.KNearest(pt(t, 0), 1)
			assert.True(t, errors.IsInvalidDimension(err))
			_, err = idx.RangeSearch(pt(t, 0), 1)
			assert.True(t, errors.IsInvalidDimension(err))
		})
	}
}

func TestKDTreeRejectsMixedDimensionality(t *testing.T) {
	tree := NewKDTree(geom.Euclidean)
	require.NoError(t, tree.Insert(pt(t, 0, 0)))
	assert.True(t, errors.IsInvalidDimension(tree.Insert(pt(t, 1))))
	assert.True(t, errors.IsInvalidDimension(tree.Build([]geom.Point{pt(t, 0, 0), pt(t, 1)})))
}

func TestKDTreeBuildIsBalanced(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := make([]geom.Point, 1000)
	for i := range points {
		points[i] = pt(t, rng.Float64(), rng.Float64())
	}
	tree := NewKDTree(geom.Euclidean)
	require.NoError(t, tree.Build(points))
	assert.Equal(t, 1000, tree.Len())
	assert.LessOrEqual(t, tree.Depth(), int(math.Ceil(math.Log2(1001))))
}

// opaque hides the AxisBounder implementation so the tree cannot prune.
type opaque struct{ geom.Distancer }

func TestKDTreeMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	metric, err := geom.NewMetric([]geom.Weight{geom.Constant(2), geom.Constant(0.5)}, 2)
	require.NoError(t, err)

	metrics := map[string]geom.Distancer{
		"weighted":  metric,
		"manhattan": geom.Manhattan,
		"chebyshev": geom.Chebyshev,
		"opaque":    opaque{geom.Euclidean},
	}

	for name, m := range metrics {
		t.Run(name, func(t *testing.T) {
			linear := NewLinear(m)
			tree := NewKDTree(m)
			for i := 0; i < 300; i++ {
				p := pt(t, rng.Float64()*10, rng.Float64()*10)
				require.NoError(t, linear.Insert(p))
				require.NoError(t, tree.Insert(p))
			}

			for q := 0; q < 20; q++ {
				query := pt(t, rng.Float64()*10, rng.Float64()*10)

				want, err := linear.KNearest(query, 7)
				require.NoError(t, err)
				got, err := tree.KNearest(query, 7)
				require.NoError(t, err)
				require.Len(t, got, len(want))
				for i := range want {
					assert.InDelta(t, want[i].Distance, got[i].Distance, 1e-12)
				}

				wantR, err := linear.RangeSearch(query, 1.5)
				require.NoError(t, err)
				gotR, err := tree.RangeSearch(query, 1.5)
				require.NoError(t, err)
				assert.ElementsMatch(t, ids(wantR), ids(gotR))
			}
		})
	}
}

func ids(ns []Neighbor) []uuid.UUID {
	out := make([]uuid.UUID, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestNewAndBuild(t *testing.T) {
	for _, kind := range []Kind{KindKDTree, KindLinear} {
		idx, err := New(kind, geom.Euclidean)
		require.NoError(t, err)
		require.NoError(t, Build(idx, []geom.Point{pt(t, 0, 0), pt(t, 1, 0)}))
		assert.Equal(t, 2, idx.Len())
	}
	_, err := New("rtree", geom.Euclidean)
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
}

func TestEmptyAndDegenerateQueries(t *testing.T) {
	for name, idx := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			got, err := idx.KNearest(pt(t, 0, 0), 3)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, idx.Insert(pt(t, 0, 0)))
			got, err = idx.KNearest(pt(t, 0, 0), 0)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func BenchmarkKDTreeKNearest(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	points := make([]geom.Point, 10000)
	for i := range points {
		points[i] = pt(b, rng.Float64(), rng.Float64())
	}
	tree := NewKDTree(geom.Euclidean)
	require.NoError(b, tree.Build(points))
	query := pt(b, 0.5, 0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tree.KNearest(query, 10)
	}
}
