package space

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
)

// Catalog manages many independent spaces. Each space has its own RWMutex:
// mutations take it exclusively, reads share it, and different spaces never
// contend with each other.
type Catalog struct {
	mu     sync.RWMutex
	spaces map[uuid.UUID]*guarded
	logger *zap.SugaredLogger
}

type guarded struct {
	mu    sync.RWMutex
	space *Space
}

// Summary describes a space without exposing it.
type Summary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Dims    int       `json:"dims"`
	Points  int       `json:"points"`
	Regions int       `json:"regions"`
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		spaces: make(map[uuid.UUID]*guarded),
		logger: logger.ComponentLogger("space.catalog"),
	}
}

// Create builds a new space and registers it.
func (c *Catalog) Create(name string, dims []geom.DimensionID, metric geom.Metric, opts ...Option) (uuid.UUID, error) {
	s, err := New(name, dims, metric, opts...)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "create space %q", name)
	}
	if err := c.Adopt(s); err != nil {
		return uuid.Nil, err
	}
	return s.ID(), nil
}

// Adopt registers an existing space, such as one loaded from a snapshot. The
// caller must not use s directly afterwards.
func (c *Catalog) Adopt(s *Space) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.spaces[s.ID()]; exists {
		return errors.InvalidDimensionf("space %s already registered", s.ID())
	}
	c.spaces[s.ID()] = &guarded{space: s}
	c.logger.Infow("Space registered", logger.FieldSpaceID, s.ID().String(), logger.FieldSpaceName, s.Name())
	return nil
}

func (c *Catalog) get(id uuid.UUID) (*guarded, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.spaces[id]
	if !ok {
		return nil, errors.NotFoundf("space %s", id)
	}
	return g, nil
}

// Read runs fn under the space's shared lock. fn must not mutate the space.
func (c *Catalog) Read(id uuid.UUID, fn func(*Space) error) error {
	g, err := c.get(id)
	if err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(g.space)
}

// Write runs fn under the space's exclusive lock.
func (c *Catalog) Write(id uuid.UUID, fn func(*Space) error) error {
	g, err := c.get(id)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.space)
}

// AddConcept adds a point to a space and returns its ID.
func (c *Catalog) AddConcept(spaceID uuid.UUID, p geom.Point) (uuid.UUID, error) {
	var id uuid.UUID
	err := c.Write(spaceID, func(s *Space) error {
		if p.Len() != len(s.dims) {
			return errors.InvalidDimensionf("%d-d concept for a %d-d space", p.Len(), len(s.dims))
		}
		id = s.AddPoint(p)
		return nil
	})
	return id, err
}

// AddRegion adds a region to a space.
func (c *Catalog) AddRegion(spaceID uuid.UUID, r *geom.Region) error {
	return c.Write(spaceID, func(s *Space) error {
		return s.AddRegion(r)
	})
}

// ReplaceWeights replaces a space's metric weights. reason is logged.
func (c *Catalog) ReplaceWeights(spaceID uuid.UUID, weights []geom.Weight, reason string) error {
	return c.Write(spaceID, func(s *Space) error {
		if err := s.ReplaceWeights(weights); err != nil {
			return err
		}
		c.logger.Infow("Weights replaced", logger.FieldSpaceID, spaceID.String(), "reason", reason)
		return nil
	})
}

// Remove unregisters a space.
func (c *Catalog) Remove(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.spaces[id]; !ok {
		return errors.NotFoundf("space %s", id)
	}
	delete(c.spaces, id)
	return nil
}

// List returns summaries of every space sorted by name, then ID.
func (c *Catalog) List() []Summary {
	c.mu.RLock()
	gs := make([]*guarded, 0, len(c.spaces))
	for _, g := range c.spaces {
		gs = append(gs, g)
	}
	c.mu.RUnlock()

	out := make([]Summary, 0, len(gs))
	for _, g := range gs {
		g.mu.RLock()
		s := g.space
		out = append(out, Summary{ID: s.ID(), Name: s.Name(), Dims: len(s.dims), Points: s.Len(), Regions: s.RegionCount()})
		g.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Ack is the accept/reject outcome of a catalog command.
type Ack struct {
	Accepted bool   `json:"accepted"`
	Kind     string `json:"kind,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Acknowledge translates a command error into an Ack.
func Acknowledge(err error) Ack {
	if err == nil {
		return Ack{Accepted: true}
	}
	kind := "internal"
	switch {
	case errors.Is(err, errors.ErrInvalidDimension):
		kind = "invalid_dimension"
	case errors.Is(err, errors.ErrInvalidPoint):
		kind = "invalid_point"
	case errors.Is(err, errors.ErrNotFound):
		kind = "not_found"
	case errors.Is(err, errors.ErrExhausted):
		kind = "exhausted"
	}
	return Ack{Accepted: false, Kind: kind, Reason: err.Error()}
}
