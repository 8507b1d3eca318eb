package similarity

import (
	"math"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/space"
)

// CategoryBased boosts the score of points that share a containing region of
// sp to 0.9 + 0.1/(1+d). Points with no shared region score 1/(1+d).
func CategoryBased(sp *space.Space, a, b geom.Point) (float64, error) {
	d, err := sp.Distance(a, b)
	if err != nil {
		return 0, err
	}
	if shareRegion(sp, a, b) {
		return 0.9 + 0.1*inverse(d), nil
	}
	return inverse(d), nil
}

func shareRegion(sp *space.Space, a, b geom.Point) bool {
	in := map[string]struct{}{}
	for _, id := range sp.ContainingRegionIDs(a) {
		in[id.String()] = struct{}{}
	}
	for _, id := range sp.ContainingRegionIDs(b) {
		if _, ok := in[id.String()]; ok {
			return true
		}
	}
	return false
}

// MultiLevel blends up to three levels: geometric (basic), category-based
// and a cosine proxy, weighted by levels[0..2]. Extra levels are ignored.
// Zero total weight scores 0.
func MultiLevel(sp *space.Space, a, b geom.Point, levels []float64) (float64, error) {
	var total, weight float64
	if len(levels) > 0 {
		d, err := sp.Distance(a, b)
		if err != nil {
			return 0, err
		}
		total += levels[0] * inverse(d)
		weight += levels[0]
	}
	if len(levels) > 1 {
		s, err := CategoryBased(sp, a, b)
		if err != nil {
			return 0, err
		}
		total += levels[1] * s
		weight += levels[1]
	}
	if len(levels) > 2 {
		var proxy float64
		if c, err := geom.Cosine(a, b); err == nil {
			proxy = (c + 1) / 2
		} else if !errors.IsInvalidPoint(err) {
			return 0, err
		}
		total += levels[2] * proxy
		weight += levels[2]
	}
	if weight <= 0 {
		return 0, nil
	}
	return total / weight, nil
}

// Prototype is exp(−d) between p and a category prototype.
func Prototype(sp *space.Space, p, prototype geom.Point) (float64, error) {
	d, err := sp.Distance(p, prototype)
	if err != nil {
		return 0, err
	}
	return math.Exp(-d), nil
}

// SalienceWeighted is 1/(1+d) where d is the salience-normalised euclidean
// distance sqrt(Σ wᵢΔᵢ² / Σ wᵢ). All-zero salience scores 0.
func SalienceWeighted(a, b geom.Point, salience []float64) (float64, error) {
	if a.Len() != b.Len() {
		return 0, errors.InvalidDimensionf("salience between %d-d and %d-d points", a.Len(), b.Len())
	}
	if len(salience) != a.Len() {
		return 0, errors.InvalidDimensionf("%d salience weights for %d-d points", len(salience), a.Len())
	}
	var sum, total float64
	for i, w := range salience {
		diff := a.Coord(i) - b.Coord(i)
		sum += w * diff * diff
		total += w
	}
	if total == 0 {
		return 0, nil
	}
	return inverse(math.Sqrt(sum / total)), nil
}

// Feature compares named feature strengths: the mean over all features of
// min/max, a missing feature counting as 0.
func Feature(a, b map[string]float64) float64 {
	names := map[string]struct{}{}
	for k := range a {
		names[k] = struct{}{}
	}
	for k := range b {
		names[k] = struct{}{}
	}
	if len(names) == 0 {
		return 0
	}
	var sum float64
	for k := range names {
		va, vb := a[k], b[k]
		if hi := math.Max(va, vb); hi > 0 {
			sum += math.Min(va, vb) / hi
		}
	}
	return sum / float64(len(names))
}

// Temporal compares two trajectories by dynamic time warping: 1/(1+DTW).
// An empty trajectory scores 0.
func Temporal(a, b []geom.Point, metric geom.Distancer) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	prev := make([]float64, len(b))
	cur := make([]float64, len(b))
	for i := range a {
		for j := range b {
			cost, err := metric.Distance(a[i], b[j])
			if err != nil {
				return 0, errors.Wrapf(err, "trajectory step %d,%d", i, j)
			}
			switch {
			case i == 0 && j == 0:
				cur[j] = cost
			case i == 0:
				cur[j] = cost + cur[j-1]
			case j == 0:
				cur[j] = cost + prev[j]
			default:
				cur[j] = cost + math.Min(prev[j], math.Min(cur[j-1], prev[j-1]))
			}
		}
		prev, cur = cur, prev
	}
	return inverse(prev[len(b)-1]), nil
}
