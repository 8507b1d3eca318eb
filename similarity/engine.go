// Package similarity scores how alike two concepts are. Every score lies in
// [0, 1], higher meaning more similar.
package similarity

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
)

const (
	DefaultCacheSize    = 4096
	DefaultLearningRate = 0.1
)

// Engine computes similarities under a base metric. It owns a bounded cache
// of semantic scores keyed by unordered point-ID pair; engines never share
// cache state.
type Engine struct {
	metric geom.Metric

	mu       sync.RWMutex
	contexts map[string][]float64

	cache *lru.Cache
	rate  float64

	cacheSize int
	logger    *zap.SugaredLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheSize bounds the semantic cache.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cacheSize = n
		}
	}
}

// WithLearningRate sets the rate at which feedback moves cached scores.
func WithLearningRate(r float64) Option {
	return func(e *Engine) { e.rate = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine measuring with metric.
func New(metric geom.Metric, opts ...Option) (*Engine, error) {
	e := &Engine{
		metric:    metric.Clone(),
		contexts:  map[string][]float64{},
		rate:      DefaultLearningRate,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rate < 0 || e.rate > 1 {
		return nil, errors.Newf("learning rate must be in [0,1], got %v", e.rate)
	}
	cache, err := lru.New(e.cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "similarity cache")
	}
	e.cache = cache
	if e.logger == nil {
		e.logger = logger.ComponentLogger("similarity")
	}
	return e, nil
}

// pairKey orders two IDs so (a, b) and (b, a) share an entry.
type pairKey struct{ lo, hi uuid.UUID }

func keyOf(a, b geom.Point) (pairKey, bool) {
	if !a.HasID() || !b.HasID() {
		return pairKey{}, false
	}
	if a.ID.String() < b.ID.String() {
		return pairKey{a.ID, b.ID}, true
	}
	return pairKey{b.ID, a.ID}, true
}

// Basic is 1/(1+d) under the base metric.
func (e *Engine) Basic(a, b geom.Point) (float64, error) {
	d, err := e.metric.Distance(a, b)
	if err != nil {
		return 0, err
	}
	return inverse(d), nil
}

func inverse(d float64) float64 { return 1 / (1 + d) }

// AddContextWeights registers euclidean weights used by Contextual under ctx.
func (e *Engine) AddContextWeights(ctx string, weights []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contexts[ctx] = append([]float64(nil), weights...)
}

// Contextual is Basic computed with the weights registered for ctx (p = 2),
// or plain Basic when ctx has none.
func (e *Engine) Contextual(a, b geom.Point, ctx string) (float64, error) {
	e.mu.RLock()
	w, ok := e.contexts[ctx]
	e.mu.RUnlock()
	if !ok {
		return e.Basic(a, b)
	}
	d, err := geom.WeightedDistance(a, b, w, 2)
	if err != nil {
		return 0, errors.Wrapf(err, "context %q", ctx)
	}
	return inverse(d), nil
}

// Semantic is cosine similarity rescaled to (cos+1)/2. Scores for points with
// IDs are cached; a cached score, possibly adjusted by feedback, wins over
// recomputation. Zero vectors fail with ErrInvalidPoint.
func (e *Engine) Semantic(a, b geom.Point) (float64, error) {
	key, keyed := keyOf(a, b)
	if keyed {
		if v, ok := e.cache.Get(key); ok {
			return v.(float64), nil
		}
	}
	c, err := geom.Cosine(a, b)
	if err != nil {
		return 0, err
	}
	s := (c + 1) / 2
	if keyed {
		e.cache.Add(key, s)
	}
	return s, nil
}

// Adaptive returns the semantic score, first moving it toward feedback when
// feedback is given: s' = s·(1−r) + feedback·r. Without feedback it only
// reads. Points without IDs cannot learn.
func (e *Engine) Adaptive(a, b geom.Point, feedback *float64) (float64, error) {
	s, err := e.Semantic(a, b)
	if err != nil || feedback == nil {
		return s, err
	}
	key, keyed := keyOf(a, b)
	if !keyed {
		return s, nil
	}
	updated := s*(1-e.rate) + *feedback*e.rate
	e.cache.Add(key, updated)
	e.logger.Debugw("Similarity adapted", "from", s, "to", updated)
	return updated, nil
}

// ClearCache drops every cached score.
func (e *Engine) ClearCache() { e.cache.Purge() }

// CacheLen is the number of cached scores.
func (e *Engine) CacheLen() int { return e.cache.Len() }

// CacheStats reports the cache's occupancy and capacity.
func (e *Engine) CacheStats() (size, capacity int) { return e.cache.Len(), e.cacheSize }
