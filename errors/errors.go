// Package errors provides error handling for cspace.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// On top of the re-exports it defines the engine's error kinds as sentinels.
// Every geometric or validation failure wraps exactly one of them, so callers
// can branch on the kind with errors.Is while the message stays specific:
//
//	if errors.Is(err, errors.ErrInvalidDimension) {
//	    // reject the command
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Stack traces
var (
	GetStack                = crdb.GetReportableStackTrace
	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// Assertions
var AssertionFailedf = crdb.AssertionFailedf

// Error kinds. Wrap these (or use the constructors below) to add context
// while preserving the kind.
var (
	// ErrInvalidDimension covers length mismatches between coordinates and
	// weights, duplicate dimension names, out-of-range values and regions
	// rejected for failing the convexity check.
	ErrInvalidDimension = New("invalid dimension")

	// ErrInvalidPoint covers degenerate inputs: zero vectors where a direction
	// is needed, empty blend input, coincident points that cannot be bisected.
	ErrInvalidPoint = New("invalid point")

	// ErrInvalidMorphism is reserved for mappings between spaces.
	ErrInvalidMorphism = New("invalid morphism")

	// ErrProjection is reserved for projections between spaces.
	ErrProjection = New("projection failed")

	// ErrNotFound indicates the requested space, region, point or path does not exist
	ErrNotFound = New("not found")

	// ErrExhausted indicates a search ran out of frontier or budget before reaching its goal
	ErrExhausted = New("search exhausted")

	// ErrUnsupported indicates an operation the receiver cannot perform
	ErrUnsupported = New("operation not supported")
)

// InvalidDimensionf returns an ErrInvalidDimension with a formatted message.
func InvalidDimensionf(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidDimension, format, args...)
}

// InvalidPointf returns an ErrInvalidPoint with a formatted message.
func InvalidPointf(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidPoint, format, args...)
}

// NotFoundf returns an ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// Exhaustedf returns an ErrExhausted with a formatted message.
func Exhaustedf(format string, args ...interface{}) error {
	return Wrapf(ErrExhausted, format, args...)
}

// Unsupportedf returns an ErrUnsupported with a formatted message.
func Unsupportedf(format string, args ...interface{}) error {
	return Wrapf(ErrUnsupported, format, args...)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidDimension checks if an error is or wraps ErrInvalidDimension
func IsInvalidDimension(err error) bool {
	return err != nil && Is(err, ErrInvalidDimension)
}

// IsInvalidPoint checks if an error is or wraps ErrInvalidPoint
func IsInvalidPoint(err error) bool {
	return err != nil && Is(err, ErrInvalidPoint)
}

// IsExhausted checks if an error is or wraps ErrExhausted
func IsExhausted(err error) bool {
	return err != nil && Is(err, ErrExhausted)
}

// WrapNotFound wraps an error as a not-found error with context
func WrapNotFound(err error, context string) error {
	return Wrap(Wrap(ErrNotFound, err.Error()), context)
}
