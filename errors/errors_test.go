package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewf(t *testing.T) {
	err := Newf("error: %s %d", "test", 42)
	require.NotNil(t, err)
	assert.Equal(t, "error: test 42", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestKindConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{"invalid dimension", InvalidDimensionf("weights have %d entries, want %d", 2, 3), ErrInvalidDimension, "weights have 2 entries, want 3"},
		{"invalid point", InvalidPointf("zero vector"), ErrInvalidPoint, "zero vector"},
		{"not found", NotFoundf("region %s", "r1"), ErrNotFound, "region r1"},
		{"exhausted", Exhaustedf("no path after %d steps", 10), ErrExhausted, "no path after 10 steps"},
		{"unsupported", Unsupportedf("remove"), ErrUnsupported, "remove"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, tt.sentinel))
			assert.Contains(t, tt.err.Error(), tt.message)
			assert.Contains(t, tt.err.Error(), tt.sentinel.Error())
		})
	}
}

func TestKindsAreDistinct(t *testing.T) {
	err := InvalidDimensionf("bad")
	assert.True(t, IsInvalidDimension(err))
	assert.False(t, IsInvalidPoint(err))
	assert.False(t, IsNotFoundError(err))
	assert.False(t, IsExhausted(err))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := Wrap(InvalidPointf("empty blend"), "blend failed")
	err = fmt.Errorf("command rejected: %w", err)

	assert.True(t, IsInvalidPoint(err))
	assert.Contains(t, err.Error(), "blend failed")
}

func TestPredicatesHandleNil(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsInvalidDimension(nil))
	assert.False(t, IsInvalidPoint(nil))
	assert.False(t, IsExhausted(nil))
}

func TestWrapNotFound(t *testing.T) {
	err := WrapNotFound(New("no rows"), "load space")
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "load space")
	assert.Contains(t, err.Error(), "no rows")
}

func TestWithHint(t *testing.T) {
	err := WithHint(InvalidDimensionf("weights"), "pass one weight per dimension")
	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "pass one weight per dimension", hints[0])
	assert.True(t, IsInvalidDimension(err))
}

func TestGetStack(t *testing.T) {
	err := NotFoundf("space %s", "s1")
	assert.NotNil(t, GetStack(err))
}
