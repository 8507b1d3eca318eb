// Package reasoning answers questions over a conceptual space: analogies,
// category inference, conceptual blends, semantic paths and similarity
// retrieval. All methods are read-only with respect to the space.
package reasoning

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/similarity"
	"github.com/teranos/cspace/space"
)

// DefaultSnapDistance is how close an analogy result must be to a stored
// point to be recognised as that point.
const DefaultSnapDistance = 0.1

// Engine runs reasoning queries using a similarity engine.
type Engine struct {
	sim    *similarity.Engine
	snap   float64
	logger *zap.SugaredLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSnapDistance sets the analogy snap distance.
func WithSnapDistance(d float64) Option {
	return func(e *Engine) { e.snap = d }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine scoring with sim.
func New(sim *similarity.Engine, opts ...Option) *Engine {
	e := &Engine{sim: sim, snap: DefaultSnapDistance}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.ComponentLogger("reasoning")
	}
	return e
}

// Analogy is the answer to "A is to B as C is to ?".
type Analogy struct {
	Point    geom.Point `json:"-"`
	Snapped  bool       `json:"snapped"`
	Distance float64    `json:"distance"` // from the raw offset point to the snapped one
}

// Analogy computes D = C + (B − A). When a stored point lies closer than the
// snap distance to D, that point is returned instead.
func (e *Engine) Analogy(sp *space.Space, a, b, c geom.Point) (Analogy, error) {
	if a.Len() != b.Len() || b.Len() != c.Len() {
		return Analogy{}, errors.InvalidDimensionf("analogy over %d-d, %d-d and %d-d points", a.Len(), b.Len(), c.Len())
	}
	coords := make([]float64, c.Len())
	for i := range coords {
		coords[i] = c.Coord(i) + b.Coord(i) - a.Coord(i)
	}
	d, err := c.Rebuild(coords)
	if err != nil {
		return Analogy{}, err
	}

	nearest, err := sp.KNearest(d, 1)
	if err != nil {
		return Analogy{}, errors.Wrap(err, "analogy snap")
	}
	if len(nearest) == 1 && nearest[0].Distance < e.snap {
		known, err := sp.Point(nearest[0].ID)
		if err != nil {
			return Analogy{}, err
		}
		e.logger.Debugw("Analogy snapped to known concept",
			logger.FieldPointID, known.ID.String(), "distance", nearest[0].Distance)
		return Analogy{Point: known, Snapped: true, Distance: nearest[0].Distance}, nil
	}
	return Analogy{Point: d}, nil
}

// Membership is the strength with which a point belongs to a region.
type Membership struct {
	RegionID          uuid.UUID `json:"region_id"`
	RegionName        string    `json:"region_name,omitempty"`
	Strength          float64   `json:"strength"` // exp(−d) to the prototype
	PrototypeDistance float64   `json:"prototype_distance"`
}

// Inference is the result of categorical inference.
type Inference struct {
	Memberships []Membership                 `json:"memberships"`
	Properties  map[geom.DimensionID]float64 `json:"properties"`
	Confidence  float64                      `json:"confidence"`
}

// Infer ranks every region containing p by exp(−d(p, prototype)), strongest
// first. Confidence is min(s₁·(s₁−s₂), 1) over the top two strengths, and the
// strongest region's prototype coordinates become the inferred properties.
func (e *Engine) Infer(sp *space.Space, p geom.Point) (Inference, error) {
	regions := sp.FindContainingRegions(p)
	ms := make([]Membership, 0, len(regions))
	for _, r := range regions {
		d, err := sp.Distance(p, r.Prototype)
		if err != nil {
			return Inference{}, errors.Wrapf(err, "region %s", r.ID)
		}
		ms = append(ms, Membership{RegionID: r.ID, RegionName: r.Name, Strength: math.Exp(-d), PrototypeDistance: d})
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Strength > ms[j].Strength })

	out := Inference{Memberships: ms, Properties: map[geom.DimensionID]float64{}}
	if len(ms) == 0 {
		return out, nil
	}
	for _, r := range regions {
		if r.ID != ms[0].RegionID {
			continue
		}
		for dim, i := range r.Prototype.Dimensions() {
			out.Properties[dim] = r.Prototype.Coord(i)
		}
	}
	top, second := ms[0].Strength, 0.0
	if len(ms) > 1 {
		second = ms[1].Strength
	}
	out.Confidence = math.Min(top*(top-second), 1)
	return out, nil
}

// EmergentKind classifies an emergent property of a blend.
type EmergentKind string

const (
	NovelCategory EmergentKind = "novel_category"
	CrossDomain   EmergentKind = "cross_domain"
)

// Emergent is a property of a blend none of its sources has on its own.
type Emergent struct {
	Kind        EmergentKind `json:"kind"`
	Description string       `json:"description"`
	Strength    float64      `json:"strength"`
	RegionID    uuid.UUID    `json:"region_id,omitempty"`
}

// Blend is the result of conceptual blending.
type Blend struct {
	Point     geom.Point `json:"-"`
	Weights   []float64  `json:"weights"`
	Emergent  []Emergent `json:"emergent"`
	Coherence float64    `json:"coherence"`
}

// Blend returns the weighted centroid of sources. nil weights blend equally.
// A region containing the blend but none of the sources is a novel
// category; two or more sources that each sit in some region, no two sharing
// one, make the blend cross-domain. Coherence is 0.7 times the mean basic
// similarity to the sources plus 0.3 times the fraction of sources sharing a
// region with the blend.
func (e *Engine) Blend(sp *space.Space, sources []geom.Point, weights []float64) (Blend, error) {
	if len(sources) == 0 {
		return Blend{}, errors.InvalidPointf("cannot blend no concepts")
	}
	if weights == nil {
		weights = make([]float64, len(sources))
		for i := range weights {
			weights[i] = 1 / float64(len(sources))
		}
	}
	if len(weights) != len(sources) {
		return Blend{}, errors.InvalidDimensionf("%d blend weights for %d concepts", len(weights), len(sources))
	}
	n := sources[0].Len()
	coords := make([]float64, n)
	for k, s := range sources {
		if s.Len() != n {
			return Blend{}, errors.InvalidDimensionf("blend of %d-d and %d-d concepts", n, s.Len())
		}
		for i := range coords {
			coords[i] += weights[k] * s.Coord(i)
		}
	}
	blended, err := sources[0].Rebuild(coords)
	if err != nil {
		return Blend{}, err
	}

	blendRegions := sp.ContainingRegionIDs(blended)
	sourceRegions := make([]map[uuid.UUID]bool, len(sources))
	for i, s := range sources {
		sourceRegions[i] = idSet(sp.ContainingRegionIDs(s))
	}

	var emergent []Emergent
	for _, rid := range blendRegions {
		novel := true
		for _, set := range sourceRegions {
			if set[rid] {
				novel = false
				break
			}
		}
		if novel {
			r, _ := sp.Region(rid)
			emergent = append(emergent, Emergent{
				Kind:        NovelCategory,
				Description: "blend falls in " + regionLabel(r),
				Strength:    1,
				RegionID:    rid,
			})
		}
	}
	if crossDomain(sourceRegions) {
		emergent = append(emergent, Emergent{
			Kind:        CrossDomain,
			Description: "blend bridges disjoint regions",
			Strength:    0.8,
		})
	}

	var simSum float64
	for _, s := range sources {
		v, err := e.sim.Basic(blended, s)
		if err != nil {
			return Blend{}, err
		}
		simSum += v
	}
	var shared float64
	if len(blendRegions) > 0 {
		for _, set := range sourceRegions {
			for _, rid := range blendRegions {
				if set[rid] {
					shared++
					break
				}
			}
		}
	}
	total := float64(len(sources))
	return Blend{
		Point:     blended,
		Weights:   append([]float64(nil), weights...),
		Emergent:  emergent,
		Coherence: 0.7*simSum/total + 0.3*shared/total,
	}, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func crossDomain(sets []map[uuid.UUID]bool) bool {
	if len(sets) < 2 {
		return false
	}
	for _, s := range sets {
		if len(s) == 0 {
			return false
		}
	}
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			for id := range sets[i] {
				if sets[j][id] {
					return false
				}
			}
		}
	}
	return true
}

func regionLabel(r *geom.Region) string {
	if r == nil {
		return "an unknown region"
	}
	if r.Name != "" {
		return r.Name
	}
	return r.ID.String()
}

// MatchType buckets a similarity score.
type MatchType string

const (
	Exact   MatchType = "exact"   // > 0.9
	Close   MatchType = "close"   // > 0.7
	Related MatchType = "related" // > 0.5
	Distant MatchType = "distant"
)

// Classify buckets a similarity score.
func Classify(s float64) MatchType {
	switch {
	case s > 0.9:
		return Exact
	case s > 0.7:
		return Close
	case s > 0.5:
		return Related
	}
	return Distant
}

// Match is one retrieval result.
type Match struct {
	Point geom.Point `json:"-"`
	Score float64    `json:"score"`
	Type  MatchType  `json:"type"`
}

// Retrieve scores every stored point against query with contextual
// similarity under ctx and returns the k best, highest first.
func (e *Engine) Retrieve(sp *space.Space, query geom.Point, k int, ctx string) ([]Match, error) {
	points := sp.Points()
	out := make([]Match, 0, len(points))
	for _, p := range points {
		s, err := e.sim.Contextual(query, p, ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "point %s", p.ID)
		}
		out = append(out, Match{Point: p, Score: s, Type: Classify(s)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// FeedbackKind says what a piece of feedback carries.
type FeedbackKind int

const (
	FeedbackPositive FeedbackKind = iota
	FeedbackNegative
	FeedbackSimilarity // Score is the similarity the pair should have had
)

// Feedback on a similarity judgement.
type Feedback struct {
	Kind  FeedbackKind
	Score float64
}

// LearnFromFeedback routes similarity feedback on the pair (a, b) into the
// similarity engine's adaptive cache. Other feedback is only logged.
func (e *Engine) LearnFromFeedback(a, b geom.Point, fb Feedback) error {
	switch fb.Kind {
	case FeedbackSimilarity:
		score := fb.Score
		_, err := e.sim.Adaptive(a, b, &score)
		return err
	case FeedbackPositive:
		e.logger.Debugw("Positive reasoning feedback")
	case FeedbackNegative:
		e.logger.Debugw("Negative reasoning feedback")
	}
	return nil
}
