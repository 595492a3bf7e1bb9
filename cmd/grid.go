package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/alde/trombinoscope/internal/config"
	"github.com/alde/trombinoscope/pkg/archive"
	"github.com/alde/trombinoscope/pkg/geometry"
	"github.com/alde/trombinoscope/pkg/paper"
)

var gridCount int

var gridCmd = &cobra.Command{
	Use:   "grid [archive.zip]",
	Short: "Show the grid and cell size a poster would use",
	Long: `Compute the grid and cell geometry for an archive, or for a number of
images given with --count, without transforming or writing anything.

The pixel sizes an image needs to fill a cell at each resolution ceiling are
listed too.

Examples:
  trombinoscope grid class.zip
  trombinoscope grid --count 32 --paper a2 --dpi 300,600`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)

	addLayoutFlags(gridCmd.Flags())
	gridCmd.Flags().IntVar(&gridCount, "count", 0, "Number of images, instead of reading an archive")
	gridCmd.Flags().StringVar(&flagDPI, "dpi", config.Default().DPI, "Comma-separated resolution ceilings")
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Archive = args[0]
	}

	count := gridCount
	if count <= 0 {
		if cfg.Archive == "" {
			return fmt.Errorf("%w: give an archive or --count", config.ErrInvalid)
		}
		entries, err := archive.Load(cfg.Archive)
		if err != nil {
			return fmt.Errorf("failed to load archive: %w", err)
		}
		count = len(entries)
	}

	profile, err := paper.GetProfile(cfg.Paper)
	if err != nil {
		return err
	}
	targets, err := cfg.DPITargets()
	if err != nil {
		return err
	}

	columns := cfg.Columns
	if columns == 0 {
		columns = geometry.ColumnsForRatio(count, cfg.GridRatio)
	}
	grid, err := geometry.GridFor(count, columns)
	if err != nil {
		return err
	}

	widthPt, heightPt := profile.SizePt(cfg.Landscape)
	page := renderConfig(cfg, "").PageGeometry(widthPt, heightPt)
	cell, err := page.Cell(grid)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Paper:   %s\n", orientation(profile, cfg.Landscape))
	fmt.Fprintf(out, "Images:  %d\n", count)
	fmt.Fprintf(out, "Grid:    %s (%d empty cells)\n", grid, grid.Cells()-count)
	fmt.Fprintf(out, "Cell:    %.1f x %.1f mm, ratio %.3f\n",
		geometry.PointsToMM(cell.WidthPt), geometry.PointsToMM(cell.HeightPt), cell.Ratio())

	for _, target := range targets {
		label := config.FormatDPITarget(target)
		if target == nil {
			fmt.Fprintf(out, "At %6s dpi images keep their source pixels\n", label)
			continue
		}
		w := pixelsFor(cell.WidthPt, *target)
		h := pixelsFor(cell.HeightPt, *target)
		fmt.Fprintf(out, "At %6s dpi a cell is %d x %d px\n", label, w, h)
	}
	return nil
}

// pixelsFor is the pixel count covering lengthPt at dpi.
func pixelsFor(lengthPt float64, dpi int) int {
	return int(math.Ceil(geometry.PointsToCM(lengthPt) / 2.54 * float64(dpi)))
}
