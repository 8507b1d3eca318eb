package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - User-facing output only: results, errors with hints
//	1 (-v)      - + Progress, operation summaries
//	2 (-vv)     - + Timing, config loaded, metric self-checks
//	3 (-vvv)    - + SQL queries, search frontier expansion
//	4 (-vvvv)   - + Full point/region dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Query results, command output
	OutputErrors                        // Errors with hints

	// Level 1 (-v) - Informational
	OutputProgress      // Progress indicators (e.g., "categorized 3/5 files")
	OutputOperationInfo // High-level operation summaries

	// Level 2 (-vv) - Detailed
	OutputTiming     // Operation timing
	OutputConfig     // Config values loaded/applied
	OutputAxiomCheck // Metric axiom self-check results

	// Level 3 (-vvv) - Debug
	OutputSQLQueries // Individual SQL queries executed
	OutputSearch     // Path search frontier and index traversal

	// Level 4 (-vvvv) - Full dump
	OutputDataDump // Full point and region contents
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults: VerbosityUser,
	OutputErrors:  VerbosityUser,

	OutputProgress:      VerbosityInfo,
	OutputOperationInfo: VerbosityInfo,

	OutputTiming:     VerbosityDebug,
	OutputConfig:     VerbosityDebug,
	OutputAxiomCheck: VerbosityDebug,

	OutputSQLQueries: VerbosityTrace,
	OutputSearch:     VerbosityTrace,

	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:       "results",
	OutputErrors:        "errors",
	OutputProgress:      "progress",
	OutputOperationInfo: "operation-info",
	OutputTiming:        "timing",
	OutputConfig:        "config",
	OutputAxiomCheck:    "axiom-check",
	OutputSQLQueries:    "sql",
	OutputSearch:        "search",
	OutputDataDump:      "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
