package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{"JSON output mode", true, VerbosityUser},
		{"Console output mode", false, VerbosityDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Logger
			t.Cleanup(func() { Logger = prev; JSONOutput = false })

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Equal(t, VerbosityToLevel(tt.verbosity) == zapcore.DebugLevel,
				Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(9))
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(0, OutputResults))
	assert.False(t, ShouldOutput(0, OutputProgress))
	assert.True(t, ShouldOutput(1, OutputProgress))
	assert.False(t, ShouldOutput(2, OutputSQLQueries))
	assert.True(t, ShouldOutput(4, OutputDataDump))
	assert.False(t, ShouldOutput(3, OutputCategory(999)))
	assert.Equal(t, "axiom-check", CategoryName(OutputAxiomCheck))
	assert.Equal(t, "unknown", CategoryName(OutputCategory(999)))
}

func TestComponentLoggerNamesAndFields(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })
	Logger = zap.NewNop().Sugar()

	l := ComponentLogger("category.former")
	require.NotNil(t, l)
	assert.Equal(t, "category.former", l.Desugar().Name())

	ctx := WithSpaceID(WithComponent(t.Context(), "space"), "s-1")
	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldSpaceID, "s-1", FieldComponent, "space"}, fields)
	assert.NotNil(t, LoggerFromContext(ctx))
}

func TestMinimalEncoderKeepsUnknownFields(t *testing.T) {
	enc := newMinimalEncoder()
	ent := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "category.former",
		Message:    "Categories formed",
	}
	fields := []zapcore.Field{
		zap.Int(FieldRegions, 3),
		zap.Int64(FieldDurationMS, 12),
		zap.String(FieldSpaceID, "abc"),
		zap.Float64("bandwidth", 1.5),
		zap.Bool("dense", true),
	}

	buf, err := enc.EncodeEntry(ent, fields)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "c.former")
	assert.Contains(t, out, "Categories formed")
	assert.Contains(t, out, "regions")
	assert.Contains(t, out, "ms")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "bandwidth=1.5")
	assert.Contains(t, out, "dense=true")
}

func TestMinimalEncoderShowsWarnLevel(t *testing.T) {
	buf, err := newMinimalEncoder().EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Message: "careful"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "WARN")
}

func TestSetThemeIgnoresUnknown(t *testing.T) {
	t.Cleanup(func() { SetTheme("everforest") })
	SetTheme("gruvbox")
	assert.Equal(t, "gruvbox", currentTheme)
	SetTheme("solarized")
	assert.Equal(t, "gruvbox", currentTheme)
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "s.catalog", abbreviateName("space.catalog"))
	assert.Equal(t, "index", abbreviateName("index"))
}
