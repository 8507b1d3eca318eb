package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cspace/am"
	"github.com/teranos/cspace/display"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/index"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/spacefile"
	"github.com/teranos/cspace/sym"
)

// SpaceCmd groups the commands that query a space definition file
var SpaceCmd = &cobra.Command{
	Use:   "space",
	Short: sym.Space + " Query and analyze conceptual spaces",
	Long: sym.Space + ` space — Query and analyze conceptual spaces

Every command takes a space definition file (.toml, .yaml, .yml or .json).
A point argument is either a concept name from the file or a list of
values by dimension name, e.g. hue=30,saturation=0.8.

Examples:
  cspace space inspect colour.toml
  cspace space knn colour.toml red -k 3
  cspace space range colour.toml hue=30,saturation=1,brightness=0.5 --radius 0.4
  cspace space similar colour.toml red orange --context painting
  cspace space analogy colour.toml red orange blue
  cspace space path colour.toml red blue
  cspace space categorize a.toml b.toml --add
  cspace space watch colour.toml`,
}

var spaceInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Summarize a space and self-check its metric",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpaceInspect,
}

var spaceKNNCmd = &cobra.Command{
	Use:   "knn <file> <point>",
	Short: "Find the k nearest concepts",
	Args:  cobra.ExactArgs(2),
	RunE:  runSpaceKNN,
}

var spaceRangeCmd = &cobra.Command{
	Use:   "range <file> <point>",
	Short: "Find every concept within a radius",
	Args:  cobra.ExactArgs(2),
	RunE:  runSpaceRange,
}

var spaceRegionsCmd = &cobra.Command{
	Use:   "regions <file> [point]",
	Short: "List regions, or the regions containing a point",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSpaceRegions,
}

var spaceWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Rebuild and summarize a space whenever its file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpaceWatch,
}

var (
	knnK        int
	indexKind   string
	rangeRadius float64
	axiomSample int
)

func init() {
	spaceKNNCmd.Flags().IntVarP(&knnK, "k", "k", 5, "Number of neighbors")
	for _, c := range []*cobra.Command{spaceKNNCmd, spaceRangeCmd} {
		c.Flags().StringVar(&indexKind, "index", "", "Spatial index: kdtree or linear (default from config)")
	}
	spaceRangeCmd.Flags().Float64Var(&rangeRadius, "radius", 1.0, "Search radius")
	spaceInspectCmd.Flags().IntVar(&axiomSample, "axiom-sample", 50, "Points sampled for the metric axiom check")

	SpaceCmd.AddCommand(spaceInspectCmd)
	SpaceCmd.AddCommand(spaceKNNCmd)
	SpaceCmd.AddCommand(spaceRangeCmd)
	SpaceCmd.AddCommand(spaceRegionsCmd)
	SpaceCmd.AddCommand(spaceWatchCmd)
}

type inspectResult struct {
	ID         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	Dimensions []dimensionSummary   `json:"dimensions"`
	P          string               `json:"p"`
	Context    string               `json:"context,omitempty"`
	Concepts   int                  `json:"concepts"`
	Regions    []regionSummary      `json:"regions"`
	Axioms     *spaceAxiomViolation `json:"axiom_violation,omitempty"`
}

type dimensionSummary struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Weight float64 `json:"weight"`
	Mode   string  `json:"weight_kind"`
}

type regionSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	Prototype []float64 `json:"prototype"`
}

type spaceAxiomViolation struct {
	Axiom   string   `json:"axiom"`
	Points  []string `json:"points"`
	Details string   `json:"details"`
}

func summarizeRegions(b *spacefile.Built) []regionSummary {
	var out []regionSummary
	for _, r := range b.Space.Regions() {
		rs := regionSummary{ID: r.ID, Name: r.Name, Prototype: r.Prototype.Coords(), Members: []string{}}
		for _, m := range r.Members() {
			rs.Members = append(rs.Members, b.ConceptName(m))
		}
		out = append(out, rs)
	}
	return out
}

func runSpaceInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := loadSpace(cfg, args[0])
	if err != nil {
		return err
	}
	sp := b.Space
	m := sp.Metric()
	resolved := m.Resolved()

	res := inspectResult{
		ID:       sp.ID(),
		Name:     sp.Name(),
		P:        display.Float(m.P),
		Context:  m.Context,
		Concepts: sp.Len(),
		Regions:  summarizeRegions(b),
	}
	for i, d := range b.Registry.All() {
		res.Dimensions = append(res.Dimensions, dimensionSummary{
			Name: d.Name, Kind: d.Kind.String(), Start: d.Range.Start, End: d.Range.End,
			Weight: resolved[i], Mode: m.Weights[i].Kind.String(),
		})
	}

	start := time.Now()
	violation, err := sp.CheckMetricAxioms(axiomSample)
	if err != nil {
		return errors.Wrap(err, "metric axiom check")
	}
	logger.Debugw("Metric axiom check done", logger.FieldDurationMS, time.Since(start).Milliseconds())
	if violation != nil {
		res.Axioms = &spaceAxiomViolation{Axiom: violation.Axiom, Details: violation.Details}
		for _, id := range violation.Points {
			res.Axioms.Points = append(res.Axioms.Points, b.ConceptName(id))
		}
	}

	return display.Render(cmd, res, func() error {
		pterm.DefaultSection.Printf("%s %s", sym.Space, res.Name)
		display.KeyValues([][2]string{
			{"id", res.ID.String()},
			{"metric", fmt.Sprintf("minkowski p=%s", res.P)},
			{"context", res.Context},
			{"concepts", fmt.Sprint(res.Concepts)},
			{"regions", fmt.Sprint(len(res.Regions))},
		})
		pterm.Println()
		rows := make([][]string, 0, len(res.Dimensions))
		for _, d := range res.Dimensions {
			rows = append(rows, []string{d.Name, d.Kind, fmt.Sprintf("[%s, %s)", display.Float(d.Start), display.Float(d.End)), display.Float(d.Weight), d.Mode})
		}
		if err := display.Table([]string{"Dimension", "Kind", "Range", "Weight", "Weighting"}, rows); err != nil {
			return err
		}
		if len(res.Regions) > 0 {
			if err := printRegions(res.Regions); err != nil {
				return err
			}
		}
		if res.Axioms != nil {
			pterm.Warning.Printf("Metric violates %s: %s\n", res.Axioms.Axiom, res.Axioms.Details)
		} else {
			pterm.Success.Println("Metric axioms hold on the sampled points")
		}
		return nil
	})
}

func printRegions(regions []regionSummary) error {
	rows := make([][]string, 0, len(regions))
	for _, r := range regions {
		rows = append(rows, []string{r.Name, display.Coords(r.Prototype), fmt.Sprint(r.Members)})
	}
	return display.Table([]string{"Region", "Prototype", "Members"}, rows)
}

type neighborResult struct {
	Name     string    `json:"name"`
	ID       uuid.UUID `json:"id"`
	Distance float64   `json:"distance"`
}

func newIndex(cfg *am.Config, b *spacefile.Built) (index.Index, error) {
	kind := index.Kind(cfg.Index.Kind)
	if indexKind != "" {
		kind = index.Kind(indexKind)
	}
	idx, err := index.New(kind, b.Space.Metric(), index.WithLogger(logger.ComponentLogger("index")))
	if err != nil {
		return nil, err
	}
	if err := b.Space.BuildIndex(idx); err != nil {
		return nil, err
	}
	return idx, nil
}

func renderNeighbors(cmd *cobra.Command, b *spacefile.Built, ns []index.Neighbor) error {
	out := make([]neighborResult, len(ns))
	for i, n := range ns {
		out[i] = neighborResult{Name: b.ConceptName(n.ID), ID: n.ID, Distance: n.Distance}
	}
	return display.Render(cmd, out, func() error {
		if len(out) == 0 {
			pterm.Info.Println("No concepts found")
			return nil
		}
		rows := make([][]string, len(out))
		for i, n := range out {
			rows[i] = []string{fmt.Sprint(i + 1), n.Name, display.Float(n.Distance)}
		}
		return display.Table([]string{"#", "Concept", "Distance"}, rows)
	})
}

func runSpaceKNN(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := loadSpace(cfg, args[0])
	if err != nil {
		return err
	}
	q, err := resolvePoint(b, args[1])
	if err != nil {
		return err
	}
	idx, err := newIndex(cfg, b)
	if err != nil {
		return err
	}
	ns, err := idx.KNearest(q, knnK)
	if err != nil {
		return err
	}
	return renderNeighbors(cmd, b, ns)
}

func runSpaceRange(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := loadSpace(cfg, args[0])
	if err != nil {
		return err
	}
	q, err := resolvePoint(b, args[1])
	if err != nil {
		return err
	}
	idx, err := newIndex(cfg, b)
	if err != nil {
		return err
	}
	ns, err := idx.RangeSearch(q, rangeRadius)
	if err != nil {
		return err
	}
	return renderNeighbors(cmd, b, ns)
}

func runSpaceRegions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := loadSpace(cfg, args[0])
	if err != nil {
		return err
	}
	regions := summarizeRegions(b)
	if len(args) == 2 {
		p, err := resolvePoint(b, args[1])
		if err != nil {
			return err
		}
		containing := map[uuid.UUID]bool{}
		for _, id := range b.Space.ContainingRegionIDs(p) {
			containing[id] = true
		}
		kept := regions[:0]
		for _, r := range regions {
			if containing[r.ID] {
				kept = append(kept, r)
			}
		}
		regions = kept
	}
	if regions == nil {
		regions = []regionSummary{}
	}
	return display.Render(cmd, regions, func() error {
		if len(regions) == 0 {
			pterm.Info.Println("No regions")
			return nil
		}
		return printRegions(regions)
	})
}

func runSpaceWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := loadSpace(cfg, args[0]); err != nil {
		return err
	}

	w, err := spacefile.NewWatcher(args[0],
		spacefile.WithBuildOptions(buildOptions(cfg)...),
		spacefile.WithWatcherLogger(logger.ComponentLogger("spacefile")))
	if err != nil {
		return err
	}
	w.OnReload(func(b *spacefile.Built) error {
		pterm.Success.Printf("%s %s reloaded: %d concepts, %d regions\n",
			sym.Watch, b.Space.Name(), b.Space.Len(), b.Space.RegionCount())
		return nil
	})
	w.OnError(func(err error) {
		pterm.Error.Printf("%v\n", err)
	})
	w.Start()
	defer w.Stop()

	pterm.Info.Printf("%s Watching %s (Ctrl-C to stop)\n", sym.Watch, args[0])
	<-cmd.Context().Done()
	return nil
}
