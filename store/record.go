// Package store persists conceptual spaces as content-addressed snapshots in
// SQLite. A snapshot is an opaque JSON record; its CID is the base58-encoded
// SHA-256 of the record bytes, so saving an unchanged space is a no-op.
//
// Decoding rebuilds spaces through the space package's constructors, so a
// record that would violate a space invariant fails to load.
package store

import (
	"crypto/sha256"
	"encoding/json"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/space"
)

// FormatVersion is written into every record.
const FormatVersion = "1.0.0"

// SupportedFormats is the constraint a record's format must satisfy to load.
const SupportedFormats = "^1.0.0"

// CID is a snapshot content address.
type CID string

func (c CID) String() string { return string(c) }

// ComputeCID returns base58(sha256(record)).
func ComputeCID(record []byte) CID {
	sum := sha256.Sum256(record)
	return CID(base58.Encode(sum[:]))
}

// ParseCID checks that s decodes to a SHA-256 digest.
func ParseCID(s string) (CID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return "", errors.Wrapf(err, "cid %q", s)
	}
	if len(b) != sha256.Size {
		return "", errors.Newf("cid %q decodes to %d bytes, want %d", s, len(b), sha256.Size)
	}
	return CID(s), nil
}

// Record is the serialised form of a space.
type Record struct {
	Format           string             `json:"format"`
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Dimensions       []geom.DimensionID `json:"dimensions"`
	Metric           MetricRecord       `json:"metric"`
	ConvexitySamples int                `json:"convexity_samples"`
	Points           []PointRecord      `json:"points"`
	Regions          []RegionRecord     `json:"regions"`
}

// MetricRecord stores P as text so that +Inf survives JSON.
type MetricRecord struct {
	Weights []geom.Weight `json:"weights"`
	P       string        `json:"p"`
	Context string        `json:"context,omitempty"`
}

// PointRecord holds coordinates in the space's dimension order.
type PointRecord struct {
	ID     uuid.UUID `json:"id"`
	Coords []float64 `json:"coords"`
}

// RegionRecord holds a region with its prototype in dimension order.
type RegionRecord struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Prototype   []float64         `json:"prototype"`
	Boundaries  []geom.Hyperplane `json:"boundaries"`
	Members     []uuid.UUID       `json:"members"`
}

// Encode serialises sp. Points and prototypes are projected onto the space's
// dimension order.
func Encode(sp *space.Space) ([]byte, error) {
	dims := sp.Dimensions()
	m := sp.Metric()
	rec := Record{
		Format:           FormatVersion,
		ID:               sp.ID(),
		Name:             sp.Name(),
		Dimensions:       dims,
		Metric:           MetricRecord{Weights: m.Weights, P: strconv.FormatFloat(m.P, 'g', -1, 64), Context: m.Context},
		ConvexitySamples: sp.ConvexitySamples(),
		Points:           []PointRecord{},
		Regions:          []RegionRecord{},
	}
	for _, p := range sp.Points() {
		proj, err := p.Project(dims)
		if err != nil {
			return nil, errors.Wrapf(err, "encode point %s", p.ID)
		}
		rec.Points = append(rec.Points, PointRecord{ID: p.ID, Coords: proj.Coords()})
	}
	for _, r := range sp.Regions() {
		proto, err := r.Prototype.Project(dims)
		if err != nil {
			return nil, errors.Wrapf(err, "encode region %s prototype", r.ID)
		}
		rec.Regions = append(rec.Regions, RegionRecord{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Prototype:   proto.Coords(),
			Boundaries:  r.Boundaries,
			Members:     r.Members(),
		})
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "marshal space record")
	}
	return b, nil
}

// CheckFormat rejects record formats outside SupportedFormats.
func CheckFormat(format string) error {
	v, err := semver.NewVersion(format)
	if err != nil {
		return errors.Wrapf(err, "record format %q", format)
	}
	c, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		return errors.Wrap(err, "supported formats")
	}
	if !c.Check(v) {
		return errors.WithHint(
			errors.Unsupportedf("record format %s", format),
			"this build reads formats "+SupportedFormats)
	}
	return nil
}

// Decode rebuilds a space from a record.
func Decode(b []byte, opts ...space.Option) (*space.Space, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, errors.Wrap(err, "unmarshal space record")
	}
	if err := CheckFormat(rec.Format); err != nil {
		return nil, err
	}
	p, err := strconv.ParseFloat(rec.Metric.P, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "metric exponent %q", rec.Metric.P)
	}
	metric := geom.Metric{Weights: rec.Metric.Weights, P: p, Context: rec.Metric.Context}

	opts = append([]space.Option{space.WithID(rec.ID), space.WithConvexitySamples(rec.ConvexitySamples)}, opts...)
	sp, err := space.New(rec.Name, rec.Dimensions, metric, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "rebuild space %s", rec.ID)
	}
	for _, pr := range rec.Points {
		pt, err := geom.PointOver(rec.Dimensions, pr.Coords)
		if err != nil {
			return nil, errors.Wrapf(err, "point %s", pr.ID)
		}
		sp.AddPoint(pt.WithID(pr.ID))
	}
	for _, rr := range rec.Regions {
		proto, err := geom.PointOver(rec.Dimensions, rr.Prototype)
		if err != nil {
			return nil, errors.Wrapf(err, "region %s prototype", rr.ID)
		}
		r := geom.NewRegion(proto, rr.Boundaries)
		r.ID = rr.ID
		r.Name = rr.Name
		r.Description = rr.Description
		for _, m := range rr.Members {
			r.AddMember(m)
		}
		if err := sp.AddRegion(r); err != nil {
			return nil, errors.Wrapf(err, "region %s", rr.ID)
		}
	}
	return sp, nil
}
