package commands

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cspace/am"
	"github.com/teranos/cspace/display"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/geom"
	"github.com/teranos/cspace/reasoning"
	"github.com/teranos/cspace/similarity"
	"github.com/teranos/cspace/spacefile"
	"github.com/teranos/cspace/sym"
)

var spaceSimilarCmd = &cobra.Command{
	Use:   "similar <file> <a> <b>",
	Short: "Score two points under every similarity measure",
	Args:  cobra.ExactArgs(3),
	RunE:  runSpaceSimilar,
}

var spaceRetrieveCmd = &cobra.Command{
	Use:   "retrieve <file> <query>",
	Short: "Rank concepts by contextual similarity to a query",
	Args:  cobra.ExactArgs(2),
	RunE:  runSpaceRetrieve,
}

var spaceInferCmd = &cobra.Command{
	Use:   "infer <file> <point>",
	Short: "Infer category memberships and properties of a point",
	Args:  cobra.ExactArgs(2),
	RunE:  runSpaceInfer,
}

var spaceAnalogyCmd = &cobra.Command{
	Use:   "analogy <file> <a> <b> <c>",
	Short: "Solve a : b :: c : ?",
	Args:  cobra.ExactArgs(4),
	RunE:  runSpaceAnalogy,
}

var spaceBlendCmd = &cobra.Command{
	Use:   "blend <file> <point> <point>...",
	Short: "Blend concepts and report emergent properties",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runSpaceBlend,
}

var spacePathCmd = &cobra.Command{
	Use:   "path <file> <start> <goal>",
	Short: "Search a chain of concepts from start toward goal",
	Args:  cobra.ExactArgs(3),
	RunE:  runSpacePath,
}

var (
	simContext   string
	simLevels    string
	retrieveTopK int
	blendWeights string
	pathBeam     int
	pathMaxStep  float64
)

func init() {
	spaceSimilarCmd.Flags().StringVar(&simContext, "context", "", "Context for contextual similarity (default: the space's context)")
	spaceSimilarCmd.Flags().StringVar(&simLevels, "levels", "0.5,0.3,0.2", "Multi-level weights: geometric, category, cosine")
	spaceRetrieveCmd.Flags().StringVar(&simContext, "context", "", "Context for contextual similarity (default: the space's context)")
	spaceRetrieveCmd.Flags().IntVarP(&retrieveTopK, "k", "k", 5, "Number of matches")
	spaceBlendCmd.Flags().StringVar(&blendWeights, "weights", "", "Comma-separated blend weights (default: equal)")
	spacePathCmd.Flags().IntVar(&pathBeam, "beam", 0, "Beam width (default from config)")
	spacePathCmd.Flags().Float64Var(&pathMaxStep, "max-step", 0, "Largest hop between waypoints (default from config)")

	SpaceCmd.AddCommand(spaceSimilarCmd)
	SpaceCmd.AddCommand(spaceRetrieveCmd)
	SpaceCmd.AddCommand(spaceInferCmd)
	SpaceCmd.AddCommand(spaceAnalogyCmd)
	SpaceCmd.AddCommand(spaceBlendCmd)
	SpaceCmd.AddCommand(spacePathCmd)
}

// engines builds a similarity engine that knows every context named by the
// space's contextual weights, and a reasoning engine over it.
func engines(cfg *am.Config, b *spacefile.Built) (*similarity.Engine, *reasoning.Engine, error) {
	m := b.Space.Metric()
	sim, err := similarityEngine(cfg, m)
	if err != nil {
		return nil, nil, err
	}
	for _, ctx := range contextNames(m) {
		sim.AddContextWeights(ctx, m.WithContext(ctx).Resolved())
	}
	return sim, reasoningEngine(cfg, sim), nil
}

func contextNames(m geom.Metric) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range m.Weights {
		for ctx := range w.Modifiers {
			if !seen[ctx] {
				seen[ctx] = true
				out = append(out, ctx)
			}
		}
	}
	sort.Strings(out)
	return out
}

func setup(args []string, points int) (*am.Config, *spacefile.Built, []geom.Point, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := loadSpace(cfg, args[0])
	if err != nil {
		return nil, nil, nil, err
	}
	if points < 0 {
		points = len(args) - 1
	}
	ps := make([]geom.Point, points)
	for i := range ps {
		if ps[i], err = resolvePoint(b, args[i+1]); err != nil {
			return nil, nil, nil, err
		}
	}
	return cfg, b, ps, nil
}

type similarityResult struct {
	Measure string  `json:"measure"`
	Score   float64 `json:"score"`
}

func runSpaceSimilar(cmd *cobra.Command, args []string) error {
	cfg, b, ps, err := setup(args, 2)
	if err != nil {
		return err
	}
	sim, _, err := engines(cfg, b)
	if err != nil {
		return err
	}
	levels, err := parseFloats(simLevels)
	if err != nil {
		return err
	}
	ctx := simContext
	if ctx == "" {
		ctx = b.Space.Context()
	}
	a, c := ps[0], ps[1]
	sp := b.Space

	measures := []struct {
		name string
		fn   func() (float64, error)
	}{
		{"basic", func() (float64, error) { return sim.Basic(a, c) }},
		{"contextual[" + ctx + "]", func() (float64, error) { return sim.Contextual(a, c, ctx) }},
		{"semantic", func() (float64, error) { return sim.Semantic(a, c) }},
		{"category", func() (float64, error) { return similarity.CategoryBased(sp, a, c) }},
		{"multi-level", func() (float64, error) { return similarity.MultiLevel(sp, a, c, levels) }},
		{"salience", func() (float64, error) { return similarity.SalienceWeighted(a, c, sp.ResolvedWeights()) }},
	}
	var out []similarityResult
	for _, m := range measures {
		s, err := m.fn()
		if errors.IsInvalidPoint(err) {
			continue // cosine of a zero vector is undefined
		}
		if err != nil {
			return errors.Wrapf(err, "%s similarity", m.name)
		}
		out = append(out, similarityResult{Measure: m.name, Score: s})
	}

	return display.Render(cmd, out, func() error {
		pterm.DefaultSection.Printf("%s %s ~ %s", sym.Similar, args[1], args[2])
		rows := make([][]string, len(out))
		for i, r := range out {
			rows[i] = []string{r.Measure, display.Float(r.Score), display.Bar(r.Score, 20)}
		}
		return display.Table([]string{"Measure", "Score", ""}, rows)
	})
}

type matchResult struct {
	Name  string              `json:"name"`
	Score float64             `json:"score"`
	Type  reasoning.MatchType `json:"type"`
}

func runSpaceRetrieve(cmd *cobra.Command, args []string) error {
	cfg, b, ps, err := setup(args, 1)
	if err != nil {
		return err
	}
	_, r, err := engines(cfg, b)
	if err != nil {
		return err
	}
	ctx := simContext
	if ctx == "" {
		ctx = b.Space.Context()
	}
	matches, err := r.Retrieve(b.Space, ps[0], retrieveTopK, ctx)
	if err != nil {
		return err
	}
	out := make([]matchResult, len(matches))
	for i, m := range matches {
		out[i] = matchResult{Name: pointLabel(b, m.Point), Score: m.Score, Type: m.Type}
	}
	return display.Render(cmd, out, func() error {
		rows := make([][]string, len(out))
		for i, m := range out {
			rows[i] = []string{fmt.Sprint(i + 1), m.Name, display.Float(m.Score), string(m.Type)}
		}
		return display.Table([]string{"#", "Concept", "Score", "Match"}, rows)
	})
}

type inferResult struct {
	Memberships []reasoning.Membership `json:"memberships"`
	Properties  map[string]float64     `json:"properties"`
	Confidence  float64                `json:"confidence"`
}

func runSpaceInfer(cmd *cobra.Command, args []string) error {
	cfg, b, ps, err := setup(args, 1)
	if err != nil {
		return err
	}
	_, r, err := engines(cfg, b)
	if err != nil {
		return err
	}
	inf, err := r.Infer(b.Space, ps[0])
	if err != nil {
		return err
	}
	out := inferResult{Memberships: inf.Memberships, Properties: map[string]float64{}, Confidence: inf.Confidence}
	for _, d := range b.Registry.All() {
		if v, ok := inf.Properties[d.ID]; ok {
			out.Properties[d.Name] = v
		}
	}
	return display.Render(cmd, out, func() error {
		if len(out.Memberships) == 0 {
			pterm.Info.Printf("%s lies in no region\n", args[1])
			return nil
		}
		rows := make([][]string, len(out.Memberships))
		for i, m := range out.Memberships {
			rows[i] = []string{m.RegionName, display.Float(m.Strength), display.Float(m.PrototypeDistance)}
		}
		if err := display.Table([]string{"Region", "Strength", "Prototype distance"}, rows); err != nil {
			return err
		}
		var props [][2]string
		for _, d := range b.Registry.All() {
			if v, ok := out.Properties[d.Name]; ok {
				props = append(props, [2]string{d.Name, display.Float(v)})
			}
		}
		display.KeyValues(props)
		pterm.Info.Printf("Confidence %s\n", display.Float(out.Confidence))
		return nil
	})
}

type analogyResult struct {
	Coords  []float64 `json:"coords"`
	Concept string    `json:"concept,omitempty"`
	Snapped bool      `json:"snapped"`
}

func runSpaceAnalogy(cmd *cobra.Command, args []string) error {
	cfg, b, ps, err := setup(args, 3)
	if err != nil {
		return err
	}
	_, r, err := engines(cfg, b)
	if err != nil {
		return err
	}
	an, err := r.Analogy(b.Space, ps[0], ps[1], ps[2])
	if err != nil {
		return err
	}
	out := analogyResult{Coords: an.Point.Coords(), Snapped: an.Snapped}
	if an.Snapped {
		out.Concept = b.ConceptName(an.Point.ID)
	}
	return display.Render(cmd, out, func() error {
		lhs := fmt.Sprintf("%s : %s :: %s : ", args[1], args[2], args[3])
		if out.Snapped {
			pterm.Success.Printf("%s%s %s\n", lhs, out.Concept, display.Coords(out.Coords))
			return nil
		}
		pterm.Info.Printf("%s%s (no known concept nearby)\n", lhs, display.Coords(out.Coords))
		return nil
	})
}

type blendResult struct {
	Coords    []float64            `json:"coords"`
	Weights   []float64            `json:"weights"`
	Emergent  []reasoning.Emergent `json:"emergent"`
	Coherence float64              `json:"coherence"`
}

func runSpaceBlend(cmd *cobra.Command, args []string) error {
	cfg, b, ps, err := setup(args, -1)
	if err != nil {
		return err
	}
	_, r, err := engines(cfg, b)
	if err != nil {
		return err
	}
	weights, err := parseFloats(blendWeights)
	if err != nil {
		return err
	}
	bl, err := r.Blend(b.Space, ps, weights)
	if err != nil {
		return err
	}
	out := blendResult{Coords: bl.Point.Coords(), Weights: bl.Weights, Emergent: bl.Emergent, Coherence: bl.Coherence}
	if out.Emergent == nil {
		out.Emergent = []reasoning.Emergent{}
	}
	return display.Render(cmd, out, func() error {
		pterm.DefaultSection.Printf("%s blend of %v", sym.Reason, args[1:])
		display.KeyValues([][2]string{
			{"point", display.Coords(out.Coords)},
			{"weights", display.Coords(out.Weights)},
			{"coherence", display.Float(out.Coherence)},
		})
		for _, e := range out.Emergent {
			pterm.Info.Printf("%s: %s\n", e.Kind, e.Description)
		}
		return nil
	})
}

type pathResult struct {
	Waypoints []string `json:"waypoints"`
	Distance  float64  `json:"distance"`
	Coherence float64  `json:"coherence"`
}

func runSpacePath(cmd *cobra.Command, args []string) error {
	cfg, b, ps, err := setup(args, 2)
	if err != nil {
		return err
	}
	_, r, err := engines(cfg, b)
	if err != nil {
		return err
	}
	c := pathConstraints(cfg)
	if pathBeam > 0 {
		c.BeamWidth = pathBeam
	}
	if pathMaxStep > 0 {
		c.MaxStep = pathMaxStep
	}
	p, err := r.Path(b.Space, ps[0], ps[1], c)
	if err != nil {
		return err
	}
	out := pathResult{Distance: p.Distance, Coherence: p.Coherence}
	for _, w := range p.Waypoints {
		out.Waypoints = append(out.Waypoints, pointLabel(b, w))
	}
	return display.Render(cmd, out, func() error {
		pterm.Success.Printf("%s %v\n", sym.Reason, out.Waypoints)
		display.KeyValues([][2]string{
			{"distance", display.Float(out.Distance)},
			{"coherence", display.Float(out.Coherence)},
		})
		return nil
	})
}
