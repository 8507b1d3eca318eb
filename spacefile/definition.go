// Package spacefile reads human-authored conceptual space definitions.
//
// A definition names its dimensions, metric, concepts and regions. Concepts
// and region members refer to dimensions and to each other by name; Build
// resolves the names and constructs a space through the space package, so a
// definition that breaks a space invariant fails to build.
//
// Definitions are TOML, YAML or JSON, chosen by file extension. Decoding is
// strict: unknown keys are errors.
package spacefile

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cspace/errors"
)

// SupportedVersions is the constraint a definition's version must satisfy.
const SupportedVersions = ">= 1.0, < 2.0"

// Format is a definition encoding.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}
	return "", errors.WithHint(
		errors.Unsupportedf("space definition %s", path),
		"use a .toml, .yaml, .yml or .json file")
}

// Definition is a declarative conceptual space.
type Definition struct {
	Version          string         `toml:"version" yaml:"version" json:"version"`
	Name             string         `toml:"name" yaml:"name" json:"name"`
	Normalize        bool           `toml:"normalize" yaml:"normalize" json:"normalize"`
	ConvexitySamples int            `toml:"convexity_samples" yaml:"convexity_samples" json:"convexity_samples"`
	Metric           MetricDef      `toml:"metric" yaml:"metric" json:"metric"`
	Dimensions       []DimensionDef `toml:"dimensions" yaml:"dimensions" json:"dimensions"`
	Concepts         []ConceptDef   `toml:"concepts" yaml:"concepts" json:"concepts"`
	Regions          []RegionDef    `toml:"regions" yaml:"regions" json:"regions"`
}

// MetricDef sets the Minkowski exponent and active context. P may be a
// number or the string "inf"; unset means the build default.
type MetricDef struct {
	P       any    `toml:"p" yaml:"p" json:"p"`
	Context string `toml:"context" yaml:"context" json:"context"`
}

// DimensionDef declares one quality dimension and its weight.
//
// Continuous and circular dimensions use Min and Max (circular defaults to
// degrees). Categorical and ordinal dimensions use Levels. Weight defaults
// to 1; Modifiers make it contextual and Attention makes it attentional.
type DimensionDef struct {
	Name        string             `toml:"name" yaml:"name" json:"name"`
	Kind        string             `toml:"kind" yaml:"kind" json:"kind"`
	Min         float64            `toml:"min" yaml:"min" json:"min"`
	Max         float64            `toml:"max" yaml:"max" json:"max"`
	Levels      int                `toml:"levels" yaml:"levels" json:"levels"`
	Weight      *float64           `toml:"weight" yaml:"weight" json:"weight"`
	Modifiers   map[string]float64 `toml:"modifiers" yaml:"modifiers" json:"modifiers"`
	Attention   *AttentionDef      `toml:"attention" yaml:"attention" json:"attention"`
	Context     string             `toml:"context" yaml:"context" json:"context"`
	Description string             `toml:"description" yaml:"description" json:"description"`
}

// AttentionDef bounds an attentional weight.
type AttentionDef struct {
	Current float64 `toml:"current" yaml:"current" json:"current"`
	Min     float64 `toml:"min" yaml:"min" json:"min"`
	Max     float64 `toml:"max" yaml:"max" json:"max"`
}

// ConceptDef is a named point, valued by dimension name.
type ConceptDef struct {
	Name   string             `toml:"name" yaml:"name" json:"name"`
	Values map[string]float64 `toml:"values" yaml:"values" json:"values"`
}

// RegionDef is a named convex region.
//
// Bounds are per-dimension intervals in the same units as concept values;
// an omitted side is unbounded. Hyperplanes are in point coordinates, keyed
// by dimension name. The prototype defaults to the centroid of the members.
type RegionDef struct {
	Name        string              `toml:"name" yaml:"name" json:"name"`
	Description string              `toml:"description" yaml:"description" json:"description"`
	Bounds      map[string]BoundDef `toml:"bounds" yaml:"bounds" json:"bounds"`
	Hyperplanes []HyperplaneDef     `toml:"hyperplanes" yaml:"hyperplanes" json:"hyperplanes"`
	Prototype   map[string]float64  `toml:"prototype" yaml:"prototype" json:"prototype"`
	Members     []string            `toml:"members" yaml:"members" json:"members"`
}

// BoundDef is one side-optional interval.
type BoundDef struct {
	Min *float64 `toml:"min" yaml:"min" json:"min"`
	Max *float64 `toml:"max" yaml:"max" json:"max"`
}

// HyperplaneDef is normal·x ≥ offset.
type HyperplaneDef struct {
	Normal map[string]float64 `toml:"normal" yaml:"normal" json:"normal"`
	Offset float64            `toml:"offset" yaml:"offset" json:"offset"`
}

// Load reads and checks the definition at path.
func Load(path string) (*Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read space definition %s", path)
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "space definition %s", path)
	}
	return def, nil
}

// Parse decodes and checks a definition.
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case TOML:
		md, err := toml.Decode(string(data), &def)
		if err != nil {
			return nil, errors.Wrap(err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Newf("unknown key %q", undecoded[0].String())
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, errors.Wrap(err, "decode yaml")
		}
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, errors.Wrap(err, "decode json")
		}
	default:
		return nil, errors.Unsupportedf("definition format %q", format)
	}
	if err := def.Check(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Check validates the version, the metric exponent and name uniqueness.
// Values are checked by Build, against the dimensions.
func (d *Definition) Check() error {
	if d.Version == "" {
		return errors.WithHint(errors.New("definition has no version"), `add version = "1.0"`)
	}
	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return errors.Wrapf(err, "definition version %q", d.Version)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return errors.Wrap(err, "supported versions")
	}
	if !c.Check(v) {
		return errors.WithHint(
			errors.Unsupportedf("definition version %s", d.Version),
			"this build reads versions "+SupportedVersions)
	}
	if d.Name == "" {
		return errors.New("definition has no name")
	}
	if len(d.Dimensions) == 0 {
		return errors.InvalidDimensionf("space %q declares no dimensions", d.Name)
	}
	if _, _, err := d.Metric.Exponent(); err != nil {
		return err
	}
	if err := unique("concept", len(d.Concepts), func(i int) string { return d.Concepts[i].Name }); err != nil {
		return err
	}
	return unique("region", len(d.Regions), func(i int) string { return d.Regions[i].Name })
}

func unique(what string, n int, name func(int) string) error {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		s := name(i)
		if s == "" {
			return errors.Newf("%s %d has no name", what, i)
		}
		if seen[s] {
			return errors.Newf("%s %q defined twice", what, s)
		}
		seen[s] = true
	}
	return nil
}

// Exponent returns P as a number and whether it was set.
func (m MetricDef) Exponent() (float64, bool, error) {
	var p float64
	switch v := m.P.(type) {
	case nil:
		return 0, false, nil
	case float64:
		p = v
	case int:
		p = float64(v)
	case int64:
		p = float64(v)
	case string:
		parsed, err := ParseExponent(v)
		if err != nil {
			return 0, false, err
		}
		p = parsed
	default:
		return 0, false, errors.InvalidDimensionf("metric p has type %T", m.P)
	}
	if math.IsNaN(p) || p <= 0 {
		return 0, false, errors.InvalidDimensionf("metric p must be > 0, got %v", p)
	}
	return p, true, nil
}

// ParseExponent parses a Minkowski exponent, accepting "inf".
func ParseExponent(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "+inf", "infinity":
		return math.Inf(1), nil
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidDimension, "metric p %q is not a number", s)
	}
	return p, nil
}
