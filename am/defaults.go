package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "cspace.db")

	// Metric defaults
	v.SetDefault("metric.minkowski_p", 2.0) // Euclidean
	v.SetDefault("metric.weight_kind", WeightConstant)
	v.SetDefault("metric.context", "")

	// Space defaults
	v.SetDefault("space.convexity_samples", 3) // t = 0.25, 0.5, 0.75

	// Index defaults
	v.SetDefault("index.kind", IndexKDTree)

	// Category formation defaults
	v.SetDefault("categories.min_points", 3)
	v.SetDefault("categories.max_radius", 2.0)
	v.SetDefault("categories.neighbor_limit", 256)
	v.SetDefault("categories.workers", 4)

	// Boundary detection defaults
	v.SetDefault("boundaries.gradient_threshold", 0.5)
	v.SetDefault("boundaries.smoothing_factor", 1.0)

	// Path search defaults
	v.SetDefault("path.max_path_length", 10)
	v.SetDefault("path.max_step_size", 2.0)
	v.SetDefault("path.goal_threshold", 0.9)
	v.SetDefault("path.beam_width", 5)

	// Similarity defaults
	v.SetDefault("similarity.cache_size", 4096)
	v.SetDefault("similarity.learning_rate", 0.1)

	// Reasoning defaults
	v.SetDefault("reasoning.snap_distance", 0.1)

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")
}
