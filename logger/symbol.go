package logger

import (
	"github.com/teranos/cspace/sym"
)

// Symbol-aware logging helpers.
// These functions log with the symbol as a structured field, not in the message.
//
// Usage:
//
//	logger.SpaceInfow("Space created", logger.FieldSpaceID, id)
//
// This makes logs queryable by symbol and keeps messages clean.

func withSymbol(symbol string, keysAndValues []interface{}) []interface{} {
	return append([]interface{}{FieldSymbol, symbol}, keysAndValues...)
}

// SpaceInfow logs an info message with the Space symbol (◎)
func SpaceInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, withSymbol(sym.Space, keysAndValues)...)
	}
}

// SpaceDebugw logs a debug message with the Space symbol (◎)
func SpaceDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, withSymbol(sym.Space, keysAndValues)...)
	}
}

// DBInfow logs an info message with the DB symbol (⊔)
func DBInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, withSymbol(sym.DB, keysAndValues)...)
	}
}

// DBWarnw logs a warning message with the DB symbol (⊔)
func DBWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, withSymbol(sym.DB, keysAndValues)...)
	}
}

// AMInfow logs an info message with the AM symbol (≡)
func AMInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, withSymbol(sym.AM, keysAndValues)...)
	}
}

// AMWarnw logs a warning message with the AM symbol (≡)
func AMWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, withSymbol(sym.AM, keysAndValues)...)
	}
}
