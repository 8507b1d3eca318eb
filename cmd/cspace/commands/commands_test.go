package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cspace/am"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/spacefile"
)

const lineTOML = `
version = "1.0"
name = "line"

[[dimensions]]
name = "x"
min = -10.0
max = 10.0

[[dimensions]]
name = "y"
min = -10.0
max = 10.0

[[concepts]]
name = "a"
values = { x = 0.0, y = 0.0 }

[[concepts]]
name = "b"
values = { x = 1.0, y = 0.0 }

[[concepts]]
name = "c"
values = { x = 2.0, y = 0.0 }

[[concepts]]
name = "d"
values = { x = 3.0, y = 0.0 }

[[concepts]]
name = "e"
values = { x = 4.0, y = 0.0 }

[[regions]]
name = "left"
members = ["a", "b"]

[regions.bounds.x]
min = -1.0
max = 1.5
`

var (
	rootOnce sync.Once
	testRoot *cobra.Command
)

func root() *cobra.Command {
	rootOnce.Do(func() {
		testRoot = &cobra.Command{Use: "cspace", SilenceUsage: true, SilenceErrors: true}
		testRoot.PersistentFlags().Bool("json", false, "")
		testRoot.AddCommand(AmCmd, SpaceCmd, DbCmd, VersionCmd)
	})
	return testRoot
}

type env struct {
	dir   string
	space string
	db    string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	e := env{dir: dir, space: filepath.Join(dir, "line.toml"), db: filepath.Join(dir, "cspace.db")}
	require.NoError(t, os.WriteFile(e.space, []byte(lineTOML), 0o644))

	cfg := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[database]\npath = \""+filepath.ToSlash(e.db)+"\"\n"), 0o644))
	am.SetConfigPath(cfg)
	t.Cleanup(func() { am.SetConfigPath("") })
	return e
}

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	old := os.Stdout
	os.Stdout = w

	out := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		out <- buf.String()
	}()

	c := root()
	c.SetArgs(args)
	runErr := c.ExecuteContext(context.Background())

	w.Close()
	os.Stdout = old
	return <-out, runErr
}

func runJSON(t *testing.T, v interface{}, args ...string) {
	t.Helper()
	out, err := run(t, append(args, "--json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestParseValues(t *testing.T) {
	v, err := parseValues("x=1, y = -2.5")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"x": 1, "y": -2.5}, v)

	_, err = parseValues("x=1,x=2")
	assert.True(t, errors.IsInvalidPoint(err))
	_, err = parseValues("x")
	assert.True(t, errors.IsInvalidPoint(err))
	_, err = parseValues("x=one")
	assert.True(t, errors.IsInvalidPoint(err))
}

func TestParseFloats(t *testing.T) {
	fs, err := parseFloats("0.5, 0.3,0.2")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.3, 0.2}, fs)

	fs, err = parseFloats("")
	require.NoError(t, err)
	assert.Nil(t, fs)

	_, err = parseFloats("1,x")
	assert.Error(t, err)
}

func TestResolvePoint(t *testing.T) {
	def, err := spacefile.Parse([]byte(lineTOML), spacefile.TOML)
	require.NoError(t, err)
	b, err := def.Build()
	require.NoError(t, err)

	p, err := resolvePoint(b, "c")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0}, p.Coords())
	assert.Equal(t, "c", pointLabel(b, p))

	p, err = resolvePoint(b, "x=1.5,y=-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -1}, p.Coords())
	assert.Equal(t, "(unnamed)", pointLabel(b, p))

	_, err = resolvePoint(b, "zebra")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSpaceQueries(t *testing.T) {
	e := newEnv(t)

	var knn []neighborResult
	runJSON(t, &knn, "space", "knn", e.space, "c", "-k", "2", "--index", "kdtree")
	require.Len(t, knn, 2)
	assert.Equal(t, "c", knn[0].Name)
	assert.Equal(t, 0.0, knn[0].Distance)
	assert.Equal(t, 1.0, knn[1].Distance)

	var within []neighborResult
	runJSON(t, &within, "space", "range", e.space, "a", "--radius", "1", "--index", "linear")
	require.Len(t, within, 2)
	assert.Equal(t, "a", within[0].Name)
	assert.Equal(t, "b", within[1].Name)

	var regions []regionSummary
	runJSON(t, &regions, "space", "regions", e.space, "x=0.5,y=0")
	require.Len(t, regions, 1)
	assert.Equal(t, "left", regions[0].Name)
	assert.Equal(t, []string{"a", "b"}, sortedCopy(regions[0].Members))

	runJSON(t, &regions, "space", "regions", e.space, "e")
	assert.Empty(t, regions)
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func TestSpaceInspect(t *testing.T) {
	e := newEnv(t)

	var res inspectResult
	runJSON(t, &res, "space", "inspect", e.space)
	assert.Equal(t, "line", res.Name)
	assert.Equal(t, 5, res.Concepts)
	assert.Equal(t, "2", res.P)
	require.Len(t, res.Dimensions, 2)
	assert.Equal(t, "x", res.Dimensions[0].Name)
	assert.Nil(t, res.Axioms)
}

func TestSpaceReasoning(t *testing.T) {
	e := newEnv(t)

	var sims []similarityResult
	runJSON(t, &sims, "space", "similar", e.space, "b", "c")
	require.NotEmpty(t, sims)
	assert.Equal(t, "basic", sims[0].Measure)
	assert.InDelta(t, 0.5, sims[0].Score, 1e-12)

	var an analogyResult
	runJSON(t, &an, "space", "analogy", e.space, "a", "b", "c")
	assert.True(t, an.Snapped)
	assert.Equal(t, "d", an.Concept)

	var inf inferResult
	runJSON(t, &inf, "space", "infer", e.space, "a")
	require.Len(t, inf.Memberships, 1)
	assert.Equal(t, "left", inf.Memberships[0].RegionName)
	assert.InDelta(t, 0.5, inf.Properties["x"], 1e-12)

	var bl blendResult
	runJSON(t, &bl, "space", "blend", e.space, "a", "b", "--weights", "0.5,0.5")
	assert.InDeltaSlice(t, []float64{0.5, 0}, bl.Coords, 1e-12)

	var p pathResult
	runJSON(t, &p, "space", "path", e.space, "a", "e", "--beam", "3", "--max-step", "1.5")
	require.NotEmpty(t, p.Waypoints)
	assert.Equal(t, "a", p.Waypoints[0])
	assert.Equal(t, "e", p.Waypoints[len(p.Waypoints)-1])
	assert.InDelta(t, 4.0, p.Distance, 1e-9)

	var matches []matchResult
	runJSON(t, &matches, "space", "retrieve", e.space, "x=2,y=0", "-k", "1")
	require.Len(t, matches, 1)
	assert.Equal(t, "c", matches[0].Name)
	assert.Equal(t, "exact", string(matches[0].Type))
}

func TestSpaceCategorizeAndBoundaries(t *testing.T) {
	e := newEnv(t)

	var results []categorizeResult
	runJSON(t, &results, "space", "categorize", e.space, e.space)
	require.Len(t, results, 2)
	assert.Equal(t, "line", results[0].Space)
	assert.Len(t, results[1].Categories, len(results[0].Categories))
	assert.Equal(t, 1, results[0].Regions)

	var bs []boundaryResult
	runJSON(t, &bs, "space", "boundaries", e.space, "--threshold", "0")
	for _, b := range bs {
		assert.GreaterOrEqual(t, b.Strength, 0.0)
		assert.LessOrEqual(t, b.Strength, 1.0)
	}
}

func TestSpaceErrors(t *testing.T) {
	e := newEnv(t)

	_, err := run(t, "space", "knn", e.space, "nobody", "-k", "1")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = run(t, "space", "inspect", filepath.Join(e.dir, "missing.toml"))
	assert.Error(t, err)

	_, err = run(t, "space", "knn", e.space, "a", "--index", "rtree")
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
	indexKind = ""
}

func TestDbCommands(t *testing.T) {
	e := newEnv(t)

	var saved []savedSpace
	runJSON(t, &saved, "db", "save", e.space, "--db", e.db)
	require.Len(t, saved, 1)
	assert.Equal(t, "line", saved[0].Name)
	id := saved[0].ID.String()

	var heads []map[string]interface{}
	runJSON(t, &heads, "db", "ls", "--db", e.db)
	require.Len(t, heads, 1)
	assert.Equal(t, "line", heads[0]["name"])

	var shown storedSummary
	runJSON(t, &shown, "db", "show", id, "--db", e.db)
	assert.Equal(t, 5, shown.Points)
	assert.Equal(t, []string{"left"}, shown.Regions)

	runJSON(t, &shown, "db", "show", "--cid", saved[0].CID.String(), "--db", e.db)
	assert.Equal(t, "line", shown.Name)
	dbShowCID = ""

	var hist []map[string]interface{}
	runJSON(t, &hist, "db", "history", id, "--db", e.db)
	assert.Len(t, hist, 1)

	_, err := run(t, "db", "rm", id, "--db", e.db)
	require.NoError(t, err)
	_, err = run(t, "db", "history", id, "--db", e.db)
	assert.True(t, errors.IsNotFoundError(err))

	_, err = run(t, "db", "rm", "not-a-uuid", "--db", e.db)
	assert.Error(t, err)
}

func TestAmCommands(t *testing.T) {
	newEnv(t)

	var got map[string]interface{}
	runJSON(t, &got, "am", "get", "path.beam_width")
	assert.Equal(t, "path.beam_width", got["key"])
	assert.EqualValues(t, 5, got["value"])

	_, err := run(t, "am", "get", "no.such.key")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = run(t, "am", "validate")
	assert.NoError(t, err)
}
