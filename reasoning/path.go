package reasoning

import (
	"container/heap"

	"github.com/google/uuid"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/space"
)

// Constraints bound a semantic path search.
type Constraints struct {
	MaxLength     int     // most waypoints in a path, start included
	MaxStep       float64 // largest hop between waypoints
	GoalThreshold float64 // basic similarity to the goal that ends the search
	BeamWidth     int     // successors kept per expansion, nearest first
}

// DefaultConstraints returns the stock path constraints.
func DefaultConstraints() Constraints {
	return Constraints{MaxLength: 10, MaxStep: 2.0, GoalThreshold: 0.9, BeamWidth: 5}
}

// Validate checks the constraint ranges.
func (c Constraints) Validate() error {
	switch {
	case c.MaxLength < 1:
		return errors.Newf("max path length must be >= 1, got %d", c.MaxLength)
	case !(c.MaxStep > 0):
		return errors.Newf("max step size must be > 0, got %v", c.MaxStep)
	case c.GoalThreshold < 0 || c.GoalThreshold >= 1:
		return errors.Newf("goal threshold must be in [0,1), got %v", c.GoalThreshold)
	case c.BeamWidth < 1:
		return errors.Newf("beam width must be >= 1, got %d", c.BeamWidth)
	}
	return nil
}

// Path is a chain of stored concepts leading toward a goal.
type Path struct {
	Waypoints []geom.Point `json:"-"`
	Distance  float64      `json:"distance"` // summed euclidean hop length
	Coherence float64      `json:"coherence"`
}

type frontierItem struct {
	f    float64
	seq  int
	node geom.Point
	path []geom.Point
	g    float64
}

type frontier []*frontierItem

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q frontier) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *frontier) Push(x interface{}) { *q = append(*q, x.(*frontierItem)) }
func (q *frontier) Pop() interface{} {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// Path runs a best-first search from start over the stored points. A node's
// score is the euclidean length travelled so far plus its metric distance to
// goal. Successors are stored points within MaxStep (excluding the node
// itself), nearest BeamWidth first. The search ends at the first node whose
// basic similarity to goal exceeds GoalThreshold and fails with ErrExhausted
// when the frontier empties, paths at MaxLength included.
func (e *Engine) Path(sp *space.Space, start, goal geom.Point, c Constraints) (Path, error) {
	if err := c.Validate(); err != nil {
		return Path{}, err
	}
	h0, err := sp.Distance(start, goal)
	if err != nil {
		return Path{}, errors.Wrap(err, "path endpoints")
	}

	q := &frontier{{f: h0, node: start, path: []geom.Point{start}}}
	closed := map[uuid.UUID]bool{}
	seq, expanded := 1, 0

	for q.Len() > 0 {
		cur := heap.Pop(q).(*frontierItem)
		if cur.node.HasID() && closed[cur.node.ID] {
			continue
		}

		s, err := e.sim.Basic(cur.node, goal)
		if err != nil {
			return Path{}, err
		}
		if s > c.GoalThreshold {
			coherence, err := e.pathCoherence(sp, cur.path)
			if err != nil {
				return Path{}, err
			}
			e.logger.Debugw("Semantic path found", "waypoints", len(cur.path), "expanded", expanded)
			return Path{Waypoints: cur.path, Distance: cur.g, Coherence: coherence}, nil
		}
		if len(cur.path) >= c.MaxLength {
			continue
		}
		if cur.node.HasID() {
			closed[cur.node.ID] = true
		}
		expanded++

		near, err := sp.WithinRadius(cur.node, c.MaxStep)
		if err != nil {
			return Path{}, err
		}
		kept := 0
		for _, n := range near {
			if kept == c.BeamWidth {
				break
			}
			if n.Distance <= 0 {
				continue
			}
			kept++
			if closed[n.ID] {
				continue
			}
			next, err := sp.Point(n.ID)
			if err != nil {
				return Path{}, err
			}
			hop, err := geom.Euclidean.Distance(cur.node, next)
			if err != nil {
				return Path{}, err
			}
			h, err := sp.Distance(next, goal)
			if err != nil {
				return Path{}, err
			}
			path := make([]geom.Point, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			g := cur.g + hop
			heap.Push(q, &frontierItem{f: g + h, seq: seq, node: next, path: append(path, next), g: g})
			seq++
		}
	}
	e.logger.Debugw("Semantic path search exhausted", "expanded", expanded, logger.FieldCount, len(closed))
	return Path{}, errors.Exhaustedf("no path within %d waypoints and step %v", c.MaxLength, c.MaxStep)
}

// pathCoherence is the mean hop similarity scaled down by 0.3 times the
// fraction of hops that change region membership.
func (e *Engine) pathCoherence(sp *space.Space, path []geom.Point) (float64, error) {
	if len(path) < 2 {
		return 1, nil
	}
	var simSum float64
	transitions := 0
	for i := 1; i < len(path); i++ {
		s, err := e.sim.Basic(path[i-1], path[i])
		if err != nil {
			return 0, err
		}
		simSum += s
		from := sp.ContainingRegionIDs(path[i-1])
		to := idSet(sp.ContainingRegionIDs(path[i]))
		switch {
		case (len(from) == 0) != (len(to) == 0):
			transitions++
		case len(from) > 0:
			shared := false
			for _, id := range from {
				if to[id] {
					shared = true
					break
				}
			}
			if !shared {
				transitions++
			}
		}
	}
	hops := float64(len(path) - 1)
	return simSum / hops * (1 - 0.3*float64(transitions)/hops), nil
}
