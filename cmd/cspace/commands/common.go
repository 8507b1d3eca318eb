package commands

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/teranos/cspace/am"
	"github.com/teranos/cspace/category"
	"github.com/teranos/cspace/db"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/reasoning"
	"github.com/teranos/cspace/similarity"
	"github.com/teranos/cspace/spacefile"
)

// loadConfig loads and validates the am configuration.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// openDatabase opens and migrates a database using the specified path.
// If dbPath is empty, it loads from am config.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		path, err := am.GetDatabasePath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get database path")
		}
		if path == "" {
			dbPath = "cspace.db"
		} else {
			dbPath = path
		}
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}

// buildOptions turns config defaults into space definition build options.
func buildOptions(cfg *am.Config) []spacefile.BuildOption {
	kind, _ := geom.ParseWeightKind(cfg.Metric.WeightKind)
	return []spacefile.BuildOption{
		spacefile.WithDefaultP(cfg.Metric.MinkowskiP),
		spacefile.WithDefaultWeightKind(kind),
		spacefile.WithDefaultContext(cfg.Metric.Context),
		spacefile.WithDefaultConvexitySamples(cfg.Space.ConvexitySamples),
		spacefile.WithLogger(logger.ComponentLogger("space")),
	}
}

// loadSpace reads a definition file and builds its space.
func loadSpace(cfg *am.Config, path string) (*spacefile.Built, error) {
	def, err := spacefile.Load(path)
	if err != nil {
		return nil, err
	}
	b, err := def.Build(buildOptions(cfg)...)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s", path)
	}
	return b, nil
}

// resolvePoint accepts either a concept name or "dim=value,dim=value".
func resolvePoint(b *spacefile.Built, arg string) (geom.Point, error) {
	if !strings.Contains(arg, "=") {
		return b.Concept(arg)
	}
	values, err := parseValues(arg)
	if err != nil {
		return geom.Point{}, err
	}
	return b.Values(values)
}

func parseValues(arg string) (map[string]float64, error) {
	values := map[string]float64{}
	for _, pair := range strings.Split(arg, ",") {
		name, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			return nil, errors.WithHint(
				errors.InvalidPointf("malformed value %q", pair),
				"write values as dim=value,dim=value")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidPoint, "value for %q: %v", name, err)
		}
		if _, dup := values[name]; dup {
			return nil, errors.InvalidPointf("dimension %q given twice", name)
		}
		values[name] = v
	}
	return values, nil
}

// parseFloats parses a comma-separated list of numbers.
func parseFloats(arg string) ([]float64, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, nil
	}
	parts := strings.Split(arg, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

func similarityEngine(cfg *am.Config, metric geom.Metric) (*similarity.Engine, error) {
	return similarity.New(metric,
		similarity.WithCacheSize(cfg.Similarity.CacheSize),
		similarity.WithLearningRate(cfg.Similarity.LearningRate),
		similarity.WithLogger(logger.ComponentLogger("similarity")))
}

func reasoningEngine(cfg *am.Config, sim *similarity.Engine) *reasoning.Engine {
	return reasoning.New(sim,
		reasoning.WithSnapDistance(cfg.Reasoning.SnapDistance),
		reasoning.WithLogger(logger.ComponentLogger("reasoning")))
}

func categoryParams(cfg *am.Config) category.Params {
	return category.Params{
		MinPoints:     cfg.Categories.MinPoints,
		MaxRadius:     cfg.Categories.MaxRadius,
		NeighborLimit: cfg.Categories.NeighborLimit,
		Workers:       cfg.Categories.Workers,
	}
}

func detectorParams(cfg *am.Config) category.DetectorParams {
	return category.DetectorParams{
		GradientThreshold: cfg.Boundaries.GradientThreshold,
		SmoothingFactor:   cfg.Boundaries.SmoothingFactor,
	}
}

func pathConstraints(cfg *am.Config) reasoning.Constraints {
	return reasoning.Constraints{
		MaxLength:     cfg.Path.MaxPathLength,
		MaxStep:       cfg.Path.MaxStepSize,
		GoalThreshold: cfg.Path.GoalThreshold,
		BeamWidth:     cfg.Path.BeamWidth,
	}
}

// pointLabel names a point by concept when it is one.
func pointLabel(b *spacefile.Built, p geom.Point) string {
	if p.HasID() {
		return b.ConceptName(p.ID)
	}
	return "(unnamed)"
}
