package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/cspace/category"
	"github.com/teranos/cspace/display"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/sym"
)

var spaceCategorizeCmd = &cobra.Command{
	Use:   "categorize <file>...",
	Short: "Form categories from dense regions of each space",
	Long: `Tessellate each space, estimate density per cell and group dense
neighboring cells into categories. Files are processed in parallel.
With --add the formed regions are added to the space and the summary
reflects the result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpaceCategorize,
}

var spaceBoundariesCmd = &cobra.Command{
	Use:   "boundaries <file>",
	Short: "Detect density boundaries between neighboring concepts",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpaceBoundaries,
}

var (
	categorizeAdd       bool
	categorizeMinPoints int
	categorizeRadius    float64
	boundaryThreshold   float64
)

func init() {
	spaceCategorizeCmd.Flags().BoolVar(&categorizeAdd, "add", false, "Add formed regions to the space")
	spaceCategorizeCmd.Flags().IntVar(&categorizeMinPoints, "min-points", 0, "Smallest category (default from config)")
	spaceCategorizeCmd.Flags().Float64Var(&categorizeRadius, "max-radius", 0, "Connection radius (default from config)")
	spaceBoundariesCmd.Flags().Float64Var(&boundaryThreshold, "threshold", -1, "Gradient threshold in [0, 1] (default from config)")

	SpaceCmd.AddCommand(spaceCategorizeCmd)
	SpaceCmd.AddCommand(spaceBoundariesCmd)
}

type categorizeResult struct {
	File       string          `json:"file"`
	Space      string          `json:"space"`
	Categories []regionSummary `json:"categories"`
	Added      bool            `json:"added"`
	Regions    int             `json:"regions"`
}

func runSpaceCategorize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params := categoryParams(cfg)
	if categorizeMinPoints > 0 {
		params.MinPoints = categorizeMinPoints
	}
	if categorizeRadius > 0 {
		params.MaxRadius = categorizeRadius
	}
	if err := params.Validate(); err != nil {
		return err
	}

	start := time.Now()
	results := make([]categorizeResult, len(args))
	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Categories.Workers)
	for i, path := range args {
		g.Go(func() error {
			b, err := loadSpace(cfg, path)
			if err != nil {
				return err
			}
			regions, err := category.Detect(b.Space, params, category.WithLogger(logger.ComponentLogger("category")))
			if err != nil {
				return errors.Wrapf(err, "categorize %s", path)
			}
			res := categorizeResult{File: path, Space: b.Space.Name(), Categories: []regionSummary{}, Added: categorizeAdd}
			for _, r := range regions {
				rs := regionSummary{ID: r.ID, Name: r.Name, Prototype: r.Prototype.Coords(), Members: []string{}}
				for _, m := range r.Members() {
					rs.Members = append(rs.Members, b.ConceptName(m))
				}
				res.Categories = append(res.Categories, rs)
				if categorizeAdd {
					if err := b.Space.AddRegion(r); err != nil {
						return errors.Wrapf(err, "add %s to %s", r.Name, path)
					}
				}
			}
			res.Regions = b.Space.RegionCount()
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Debugw("Categorized spaces",
		logger.FieldCount, len(args),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return display.Render(cmd, results, func() error {
		for _, res := range results {
			pterm.DefaultSection.Printf("%s %s (%s)", sym.Category, res.Space, res.File)
			if len(res.Categories) == 0 {
				pterm.Info.Println("No dense categories found")
				continue
			}
			if err := printRegions(res.Categories); err != nil {
				return err
			}
			if res.Added {
				pterm.Success.Printf("Added %d categories, space now has %d regions\n", len(res.Categories), res.Regions)
			}
		}
		return nil
	})
}

type boundaryResult struct {
	Between  [2]string `json:"between"`
	Position []float64 `json:"position"`
	Strength float64   `json:"strength"`
	Kind     string    `json:"kind"`
}

func runSpaceBoundaries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := loadSpace(cfg, args[0])
	if err != nil {
		return err
	}
	params := detectorParams(cfg)
	if boundaryThreshold >= 0 {
		params.GradientThreshold = boundaryThreshold
	}
	bs, err := category.DetectBoundaries(b.Space, params, category.WithLogger(logger.ComponentLogger("category")))
	if err != nil {
		return err
	}
	points := b.Space.Points()
	out := make([]boundaryResult, len(bs))
	for i, bd := range bs {
		out[i] = boundaryResult{
			Between:  [2]string{b.ConceptName(points[bd.Between[0]].ID), b.ConceptName(points[bd.Between[1]].ID)},
			Position: bd.Position.Coords(),
			Strength: bd.Strength,
			Kind:     bd.Kind.String(),
		}
	}
	return display.Render(cmd, out, func() error {
		if len(out) == 0 {
			pterm.Info.Println("No boundaries above the gradient threshold")
			return nil
		}
		rows := make([][]string, len(out))
		for i, r := range out {
			rows[i] = []string{fmt.Sprintf("%s | %s", r.Between[0], r.Between[1]), display.Coords(r.Position), display.Float(r.Strength), display.Bar(r.Strength, 12)}
		}
		return display.Table([]string{"Between", "Position", "Strength", ""}, rows)
	})
}
