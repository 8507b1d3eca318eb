package am

// Config represents the cspace configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Metric     MetricConfig     `mapstructure:"metric"`
	Space      SpaceConfig      `mapstructure:"space"`
	Index      IndexConfig      `mapstructure:"index"`
	Categories CategoriesConfig `mapstructure:"categories"`
	Boundaries BoundariesConfig `mapstructure:"boundaries"`
	Path       PathConfig       `mapstructure:"path"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Reasoning  ReasoningConfig  `mapstructure:"reasoning"`
	Log        LogConfig        `mapstructure:"log"`
}

// DatabaseConfig configures the SQLite snapshot store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MetricConfig configures the default metric of spaces built from definition files
type MetricConfig struct {
	MinkowskiP float64 `mapstructure:"minkowski_p"` // 1 = cityblock, 2 = Euclidean, inf = Chebyshev
	WeightKind string  `mapstructure:"weight_kind"` // constant, contextual, attentional
	Context    string  `mapstructure:"context"`     // active context for contextual weights
}

// SpaceConfig configures conceptual space behavior
type SpaceConfig struct {
	ConvexitySamples int `mapstructure:"convexity_samples"` // interior samples per member pair
}

// IndexConfig selects the spatial index implementation
type IndexConfig struct {
	Kind string `mapstructure:"kind"` // kdtree or linear
}

// CategoriesConfig configures density-based category formation
type CategoriesConfig struct {
	MinPoints     int     `mapstructure:"min_points"`     // minimum points per category (>= 1)
	MaxRadius     float64 `mapstructure:"max_radius"`     // maximum category radius (> 0)
	NeighborLimit int     `mapstructure:"neighbor_limit"` // above this count, bisectors use kNN neighbors only
	Workers       int     `mapstructure:"workers"`        // parallel density estimation
}

// BoundariesConfig configures density-gradient boundary detection
type BoundariesConfig struct {
	GradientThreshold float64 `mapstructure:"gradient_threshold"` // [0, 1]
	SmoothingFactor   float64 `mapstructure:"smoothing_factor"`   // > 0
}

// PathConfig configures semantic path search
type PathConfig struct {
	MaxPathLength int     `mapstructure:"max_path_length"`
	MaxStepSize   float64 `mapstructure:"max_step_size"`
	GoalThreshold float64 `mapstructure:"goal_threshold"`
	BeamWidth     int     `mapstructure:"beam_width"`
}

// SimilarityConfig configures the similarity engine
type SimilarityConfig struct {
	CacheSize    int     `mapstructure:"cache_size"`
	LearningRate float64 `mapstructure:"learning_rate"`
}

// ReasoningConfig configures the reasoning engine
type ReasoningConfig struct {
	SnapDistance float64 `mapstructure:"snap_distance"` // analogy results this close to a known point snap to it
}

// LogConfig configures logging output
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Theme string `mapstructure:"theme"` // everforest, gruvbox
}

// Weight kinds accepted by metric.weight_kind
const (
	WeightConstant    = "constant"
	WeightContextual  = "contextual"
	WeightAttentional = "attentional"
)

// Index kinds accepted by index.kind
const (
	IndexKDTree = "kdtree"
	IndexLinear = "linear"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
