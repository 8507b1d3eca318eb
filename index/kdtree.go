package index

import (
	"container/heap"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
)

// KDTree is a balanced binary space partition. Build splits at the median
// along an axis that cycles with depth. Insert descends to a leaf and the
// tree is rebuilt from median splits whenever its size has doubled since the
// last build, keeping expected depth logarithmic.
//
// Subtrees are pruned when the metric implements geom.AxisBounder; with any
// other distancer every subtree is visited and results stay exact.
type KDTree struct {
	metric  geom.Distancer
	bounder geom.AxisBounder
	root    *kdNode
	dims    int
	size    int
	built   int
	logger  *zap.SugaredLogger
}

type kdNode struct {
	point       geom.Point
	axis        int
	left, right *kdNode
}

// NewKDTree returns an empty tree measuring with metric.
func NewKDTree(metric geom.Distancer, opts ...Option) *KDTree {
	o := buildOptions(opts)
	t := &KDTree{metric: metric, dims: -1, logger: o.logger}
	if b, ok := metric.(geom.AxisBounder); ok {
		t.bounder = b
	}
	return t
}

// Build replaces the tree's contents with points, split at medians.
func (t *KDTree) Build(points []geom.Point) error {
	t.Clear()
	if len(points) == 0 {
		return nil
	}
	dims := points[0].Len()
	for _, p := range points {
		if p.Len() != dims {
			return errors.InvalidDimensionf("kd-tree over %d-d points cannot hold a %d-d point", dims, p.Len())
		}
	}
	ps := make([]geom.Point, len(points))
	copy(ps, points)
	t.dims = dims
	t.root = buildNode(ps, 0, dims)
	t.size = len(ps)
	t.built = t.size
	t.logger.Debugw("kd-tree built", "points", t.size, "dims", dims)
	return nil
}

func buildNode(ps []geom.Point, depth, dims int) *kdNode {
	if len(ps) == 0 {
		return nil
	}
	axis := 0
	if dims > 0 {
		axis = depth % dims
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Coord(axis) < ps[j].Coord(axis) })
	mid := len(ps) / 2
	return &kdNode{
		point: ps[mid],
		axis:  axis,
		left:  buildNode(ps[:mid], depth+1, dims),
		right: buildNode(ps[mid+1:], depth+1, dims),
	}
}

// Insert adds p. All points in a tree share one dimensionality.
func (t *KDTree) Insert(p geom.Point) error {
	if t.dims >= 0 && p.Len() != t.dims {
		return errors.InvalidDimensionf("kd-tree over %d-d points cannot hold a %d-d point", t.dims, p.Len())
	}
	if t.root == nil {
		return t.Build([]geom.Point{p})
	}
	n := t.root
	for {
		next := &n.right
		if p.Len() > 0 && p.Coord(n.axis) < n.point.Coord(n.axis) {
			next = &n.left
		}
		if *next == nil {
			axis := 0
			if t.dims > 0 {
				axis = (n.axis + 1) % t.dims
			}
			*next = &kdNode{point: p, axis: axis}
			break
		}
		n = *next
	}
	t.size++
	if t.size >= 2*t.built {
		return t.Build(t.points())
	}
	return nil
}

// Remove deletes the point with the given ID by rebuilding from the rest.
func (t *KDTree) Remove(id uuid.UUID) error {
	all := t.points()
	for i, p := range all {
		if p.HasID() && p.ID == id {
			return t.Build(append(all[:i], all[i+1:]...))
		}
	}
	return errors.NotFoundf("point %s not in index", id)
}

// points lists stored points in pre-order.
func (t *KDTree) points() []geom.Point {
	out := make([]geom.Point, 0, t.size)
	var walk func(*kdNode)
	walk = func(n *kdNode) {
		if n == nil {
			return
		}
		out = append(out, n.point)
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func (t *KDTree) checkQuery(q geom.Point) error {
	if t.dims >= 0 && q.Len() != t.dims {
		return errors.InvalidDimensionf("%d-d query against %d-d kd-tree", q.Len(), t.dims)
	}
	return nil
}

// axisBound is the least distance any point across the split can have.
func (t *KDTree) axisBound(axis int, gap float64) float64 {
	if t.bounder == nil {
		return 0
	}
	return t.bounder.AxisBound(axis, gap)
}

// KNearest implements Index with branch-and-bound: the far subtree is visited
// only while the heap has room or its axis bound beats the current worst.
func (t *KDTree) KNearest(query geom.Point, k int) ([]Neighbor, error) {
	if k <= 0 || t.root == nil {
		return nil, nil
	}
	if err := t.checkQuery(query); err != nil {
		return nil, err
	}

	h := &maxHeap{}
	seq := 0
	var visit func(*kdNode) error
	visit = func(n *kdNode) error {
		if n == nil {
			return nil
		}
		if n.point.HasID() {
			d, err := t.metric.Distance(query, n.point)
			if err != nil {
				return errors.Wrapf(err, "distance to point %s", n.point.ID)
			}
			c := candidate{id: n.point.ID, dist: d, seq: seq}
			seq++
			if h.Len() < k {
				heap.Push(h, c)
			} else if less(c, (*h)[0]) {
				(*h)[0] = c
				heap.Fix(h, 0)
			}
		}

		if t.dims == 0 {
			if err := visit(n.left); err != nil {
				return err
			}
			return visit(n.right)
		}
		gap := query.Coord(n.axis) - n.point.Coord(n.axis)
		near, far := n.left, n.right
		if gap >= 0 {
			near, far = n.right, n.left
		}
		if err := visit(near); err != nil {
			return err
		}
		if h.Len() < k || t.axisBound(n.axis, gap) < (*h)[0].dist {
			return visit(far)
		}
		return nil
	}
	if err := visit(t.root); err != nil {
		return nil, err
	}
	return sortCandidates(*h), nil
}

// RangeSearch implements Index. A child is descended only if its side of the
// split could hold a point within radius.
func (t *KDTree) RangeSearch(center geom.Point, radius float64) ([]Neighbor, error) {
	if t.root == nil || radius < 0 || math.IsNaN(radius) {
		return nil, nil
	}
	if err := t.checkQuery(center); err != nil {
		return nil, err
	}

	var out []candidate
	seq := 0
	var visit func(*kdNode) error
	visit = func(n *kdNode) error {
		if n == nil {
			return nil
		}
		if n.point.HasID() {
			d, err := t.metric.Distance(center, n.point)
			if err != nil {
				return errors.Wrapf(err, "distance to point %s", n.point.ID)
			}
			if d <= radius {
				out = append(out, candidate{id: n.point.ID, dist: d, seq: seq})
			}
			seq++
		}
		if t.dims == 0 {
			if err := visit(n.left); err != nil {
				return err
			}
			return visit(n.right)
		}
		gap := center.Coord(n.axis) - n.point.Coord(n.axis)
		bound := t.axisBound(n.axis, gap)
		// left holds coords <= split, right holds coords >= split
		if gap < 0 || bound <= radius {
			if err := visit(n.left); err != nil {
				return err
			}
		}
		if gap >= 0 || bound <= radius {
			return visit(n.right)
		}
		return nil
	}
	if err := visit(t.root); err != nil {
		return nil, err
	}
	return sortCandidates(out), nil
}

// Depth is the length of the longest root-to-leaf path.
func (t *KDTree) Depth() int {
	var depth func(*kdNode) int
	depth = func(n *kdNode) int {
		if n == nil {
			return 0
		}
		return 1 + max(depth(n.left), depth(n.right))
	}
	return depth(t.root)
}

// Len implements Index.
func (t *KDTree) Len() int { return t.size }

// Clear implements Index.
func (t *KDTree) Clear() {
	t.root = nil
	t.size = 0
	t.built = 0
	t.dims = -1
}

// maxHeap keeps the worst of the current k candidates at the root.
type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}
