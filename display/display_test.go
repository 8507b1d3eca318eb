package display

import (
	"math"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot() (*cobra.Command, *cobra.Command) {
	root := &cobra.Command{Use: "cspace"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "inspect", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)
	return root, child
}

func TestShouldOutputJSON(t *testing.T) {
	t.Setenv(OutputEnv, "")

	root, child := newRoot()
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))
}

func TestShouldOutputJSONFromEnv(t *testing.T) {
	t.Setenv(OutputEnv, "JSON")
	assert.True(t, ShouldOutputJSON(nil))

	_, child := newRoot()
	assert.True(t, ShouldOutputJSON(child))
}

func TestMarshalJSONIsIndentedUnderTest(t *testing.T) {
	b, err := MarshalJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "inf", Float(math.Inf(1)))
	assert.Equal(t, "-inf", Float(math.Inf(-1)))
	assert.Equal(t, "0.3333", Float(1.0/3))
	assert.Equal(t, "(1, 2.5)", Coords([]float64{1, 2.5}))
	assert.Equal(t, "()", Coords(nil))
	assert.Equal(t, "██░░", Bar(0.5, 4))
	assert.Equal(t, "████", Bar(3, 4))
	assert.Equal(t, "░░░░", Bar(math.NaN(), 4))
}
