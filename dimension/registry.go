package dimension

import (
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
)

// Registry is a name-unique, insertion-ordered collection of dimensions.
// It is not safe for concurrent mutation.
type Registry struct {
	order  []geom.DimensionID
	byID   map[geom.DimensionID]Dimension
	byName map[string]geom.DimensionID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   map[geom.DimensionID]Dimension{},
		byName: map[string]geom.DimensionID{},
	}
}

// Register adds d. Names and IDs must be unique.
func (r *Registry) Register(d Dimension) error {
	if d.Name == "" {
		return errors.InvalidDimensionf("dimension name is empty")
	}
	if _, ok := r.byName[d.Name]; ok {
		return errors.InvalidDimensionf("dimension %q already registered", d.Name)
	}
	if _, ok := r.byID[d.ID]; ok {
		return errors.InvalidDimensionf("dimension id %s already registered", d.ID)
	}
	if d.Kind != Circular && d.Range.End < d.Range.Start {
		return errors.InvalidDimensionf("dimension %q has inverted range [%v, %v)", d.Name, d.Range.Start, d.Range.End)
	}
	r.order = append(r.order, d.ID)
	r.byID[d.ID] = d
	r.byName[d.Name] = d.ID
	return nil
}

// Get looks a dimension up by ID.
func (r *Registry) Get(id geom.DimensionID) (Dimension, error) {
	d, ok := r.byID[id]
	if !ok {
		return Dimension{}, errors.NotFoundf("dimension %s", id)
	}
	return d, nil
}

// ByName looks a dimension up by name.
func (r *Registry) ByName(name string) (Dimension, error) {
	id, ok := r.byName[name]
	if !ok {
		return Dimension{}, errors.NotFoundf("dimension %q", name)
	}
	return r.byID[id], nil
}

// InContext returns the dimensions tagged with context, in registration order.
func (r *Registry) InContext(context string) []Dimension {
	var out []Dimension
	for _, id := range r.order {
		if d := r.byID[id]; d.Context == context {
			out = append(out, d)
		}
	}
	return out
}

// All returns every dimension in registration order.
func (r *Registry) All() []Dimension {
	out := make([]Dimension, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

// IDs returns dimension IDs in registration order.
func (r *Registry) IDs() []geom.DimensionID {
	out := make([]geom.DimensionID, len(r.order))
	copy(out, r.order)
	return out
}

// Len is the number of registered dimensions.
func (r *Registry) Len() int { return len(r.order) }

// Validate checks v against the dimension with the given ID.
func (r *Registry) Validate(id geom.DimensionID, v float64) error {
	d, err := r.Get(id)
	if err != nil {
		return err
	}
	return d.Validate(v)
}

// Normalize maps v into [0, 1) under the dimension with the given ID.
func (r *Registry) Normalize(id geom.DimensionID, v float64) (float64, error) {
	d, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return d.Normalize(v)
}

// Denormalize maps n in [0, 1] back into the dimension's range.
func (r *Registry) Denormalize(id geom.DimensionID, n float64) (float64, error) {
	d, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return d.Denormalize(n)
}

// Point builds a point over every registered dimension, in registration
// order, from values keyed by dimension name. Every dimension needs a value
// and unknown names are rejected. With normalize set, coordinates are the
// normalized values; otherwise raw values are validated and kept.
func (r *Registry) Point(values map[string]float64, normalize bool) (geom.Point, error) {
	for name := range values {
		if _, ok := r.byName[name]; !ok {
			return geom.Point{}, errors.InvalidDimensionf("unknown dimension %q", name)
		}
	}
	coords := make([]float64, len(r.order))
	for i, id := range r.order {
		d := r.byID[id]
		v, ok := values[d.Name]
		if !ok {
			return geom.Point{}, errors.InvalidDimensionf("missing value for dimension %q", d.Name)
		}
		if normalize {
			n, err := d.Normalize(v)
			if err != nil {
				return geom.Point{}, err
			}
			coords[i] = n
			continue
		}
		if err := d.Validate(v); err != nil {
			return geom.Point{}, err
		}
		coords[i] = v
	}
	return geom.PointOver(r.order, coords)
}
