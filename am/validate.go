package am

import (
	"math"

	"github.com/teranos/cspace/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Metric: any positive real, +Inf allowed for Chebyshev
	if math.IsNaN(c.Metric.MinkowskiP) || c.Metric.MinkowskiP <= 0 {
		return errors.Newf("metric.minkowski_p must be > 0, got %v", c.Metric.MinkowskiP)
	}
	switch c.Metric.WeightKind {
	case WeightConstant, WeightContextual, WeightAttentional:
	default:
		return errors.Newf("metric.weight_kind must be one of constant, contextual, attentional, got %q", c.Metric.WeightKind)
	}

	if c.Space.ConvexitySamples < 1 {
		return errors.Newf("space.convexity_samples must be >= 1, got %d", c.Space.ConvexitySamples)
	}

	switch c.Index.Kind {
	case IndexKDTree, IndexLinear:
	default:
		return errors.Newf("index.kind must be kdtree or linear, got %q", c.Index.Kind)
	}

	if c.Categories.MinPoints < 1 {
		return errors.Newf("categories.min_points must be >= 1, got %d", c.Categories.MinPoints)
	}
	if !(c.Categories.MaxRadius > 0) {
		return errors.Newf("categories.max_radius must be > 0, got %v", c.Categories.MaxRadius)
	}
	if c.Categories.NeighborLimit < 1 {
		return errors.Newf("categories.neighbor_limit must be >= 1, got %d", c.Categories.NeighborLimit)
	}
	if c.Categories.Workers < 1 {
		return errors.Newf("categories.workers must be >= 1, got %d", c.Categories.Workers)
	}

	if c.Boundaries.GradientThreshold < 0 || c.Boundaries.GradientThreshold > 1 || math.IsNaN(c.Boundaries.GradientThreshold) {
		return errors.Newf("boundaries.gradient_threshold must be in [0, 1], got %v", c.Boundaries.GradientThreshold)
	}
	if !(c.Boundaries.SmoothingFactor > 0) {
		return errors.Newf("boundaries.smoothing_factor must be > 0, got %v", c.Boundaries.SmoothingFactor)
	}

	if c.Path.MaxPathLength < 1 {
		return errors.Newf("path.max_path_length must be >= 1, got %d", c.Path.MaxPathLength)
	}
	if !(c.Path.MaxStepSize > 0) {
		return errors.Newf("path.max_step_size must be > 0, got %v", c.Path.MaxStepSize)
	}
	if c.Path.GoalThreshold < 0 || c.Path.GoalThreshold > 1 || math.IsNaN(c.Path.GoalThreshold) {
		return errors.Newf("path.goal_threshold must be in [0, 1], got %v", c.Path.GoalThreshold)
	}
	if c.Path.BeamWidth < 1 {
		return errors.Newf("path.beam_width must be >= 1, got %d", c.Path.BeamWidth)
	}

	if c.Similarity.CacheSize < 1 {
		return errors.Newf("similarity.cache_size must be >= 1, got %d", c.Similarity.CacheSize)
	}
	if c.Similarity.LearningRate < 0 || c.Similarity.LearningRate > 1 || math.IsNaN(c.Similarity.LearningRate) {
		return errors.Newf("similarity.learning_rate must be in [0, 1], got %v", c.Similarity.LearningRate)
	}

	if c.Reasoning.SnapDistance < 0 || math.IsNaN(c.Reasoning.SnapDistance) {
		return errors.Newf("reasoning.snap_distance must be >= 0, got %v", c.Reasoning.SnapDistance)
	}

	if c.Log.Theme != "" && c.Log.Theme != "everforest" && c.Log.Theme != "gruvbox" {
		return errors.Newf("log.theme must be everforest or gruvbox, got %q", c.Log.Theme)
	}

	return nil
}
