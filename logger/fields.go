package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across cspace.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity
	FieldSpaceID   = "space_id"
	FieldSpaceName = "space_name"
	FieldRegionID  = "region_id"
	FieldPointID   = "point_id"
	FieldSnapshot  = "cid"

	// Components
	FieldComponent = "component"
	FieldOperation = "operation"

	// Geometry
	FieldDims    = "dims"
	FieldP       = "p"
	FieldK       = "k"
	FieldRadius  = "radius"
	FieldContext = "context"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount   = "count"
	FieldPoints  = "points"
	FieldRegions = "regions"

	// Files
	FieldFile = "file"

	FieldSymbol = "symbol"
)

// Context keys for propagating logging context
type contextKey string

const (
	spaceIDKey   contextKey = "logger_space_id"
	componentKey contextKey = "logger_component"
)

// WithSpaceID adds a space ID to the context for logging
func WithSpaceID(ctx context.Context, spaceID string) context.Context {
	return context.WithValue(ctx, spaceIDKey, spaceID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if spaceID, ok := ctx.Value(spaceIDKey).(string); ok && spaceID != "" {
		fields = append(fields, FieldSpaceID, spaceID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Former struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewFormer() *Former {
//	    return &Former{
//	        logger: logger.ComponentLogger("category.former"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
//	spaceLogger := logger.ChildLogger(base, logger.FieldSpaceID, sp.ID())
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
