package poster

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/alde/trombinoscope/internal/config"
	"github.com/alde/trombinoscope/internal/logging"
	"github.com/alde/trombinoscope/internal/metrics"
	"github.com/alde/trombinoscope/pkg/archive"
	"github.com/alde/trombinoscope/pkg/codec"
	"github.com/alde/trombinoscope/pkg/geometry"
	"github.com/alde/trombinoscope/pkg/progress"
)

// LowDPIThreshold is the resolution under which printed photos look soft.
const LowDPIThreshold = 150

// Options contains poster generation settings
type Options struct {
	ArchivePath string
	OutputDir   string

	PageWidthPt  float64
	PageHeightPt float64
	PaperName    string

	// Columns fixes the grid width; 0 derives it from GridRatio.
	Columns   int
	GridRatio float64

	// DPITargets lists the resolution ceilings, one poster each. A nil entry
	// produces a native resolution poster.
	DPITargets []*int
	Render     RenderConfig

	Sort   bool
	Locale string

	Quiet bool
	Out   io.Writer // summary output, defaults to os.Stdout
}

// Generator produces one poster per DPI target from an archive of portraits
type Generator struct {
	options   Options
	engine    *Engine
	newCanvas CanvasFactory
	stats     RunStats
	startTime time.Time
}

// RunStats tracks generation metrics
type RunStats struct {
	InputFileSize  uint64
	ImageCount     int
	Unreadable     int
	Grid           geometry.GridSpec
	Cell           geometry.CellGeometry
	Documents      []DocumentStats
	ProcessingTime time.Duration
}

// DocumentStats describes one written poster.
type DocumentStats struct {
	Path         string
	MaxDPI       *int
	FileSize     uint64
	CacheHits    int
	CacheMisses  int
	Placeholders int
	MinDPI       int
	LowDPI       []string // captions of images printed under LowDPIThreshold
}

// New creates a new generator instance
func New(opts Options, engine *Engine, newCanvas CanvasFactory) *Generator {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	return &Generator{
		options:   opts,
		engine:    engine,
		newCanvas: newCanvas,
		startTime: time.Now(),
	}
}

// OutputFileName returns the poster file name for a DPI ceiling.
func OutputFileName(maxDPI *int) string {
	if maxDPI == nil {
		return "poster.pdf"
	}
	return fmt.Sprintf("poster-%ddpi.pdf", *maxDPI)
}

// Run generates every poster. Images that cannot be decoded are replaced by
// the placeholder and do not fail the run.
func (g *Generator) Run(ctx context.Context) (RunStats, error) {
	if err := g.validate(); err != nil {
		return RunStats{}, err
	}

	images, err := g.load()
	if err != nil {
		return RunStats{}, err
	}

	grid, err := g.grid(len(images))
	if err != nil {
		return RunStats{}, err
	}
	page := g.options.Render.PageGeometry(g.options.PageWidthPt, g.options.PageHeightPt)
	cell, err := page.Cell(grid)
	if err != nil {
		return RunStats{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	g.stats.Grid = grid
	g.stats.Cell = cell

	logging.Info("%d pictures to lay out in a %s grid, cells of %.1fx%.1f mm",
		len(images), grid, geometry.PointsToMM(cell.WidthPt), geometry.PointsToMM(cell.HeightPt))

	if err := os.MkdirAll(g.options.OutputDir, 0o755); err != nil {
		return RunStats{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, target := range g.options.DPITargets {
		doc, err := g.generate(ctx, images, grid, page, target)
		if err != nil {
			return RunStats{}, err
		}
		g.stats.Documents = append(g.stats.Documents, doc)
	}

	g.stats.ProcessingTime = time.Since(g.startTime)
	g.displayResults()
	return g.stats, nil
}

// validate rejects settings that cannot work before any file is read.
func (g *Generator) validate() error {
	opts := g.options
	if opts.ArchivePath == "" {
		return fmt.Errorf("%w: no archive given", ErrConfig)
	}
	if opts.PageWidthPt <= 0 || opts.PageHeightPt <= 0 {
		return fmt.Errorf("%w: page size must be positive", ErrConfig)
	}
	if opts.Columns < 0 {
		return fmt.Errorf("%w: columns must not be negative, got %d", ErrConfig, opts.Columns)
	}
	if opts.Columns == 0 && opts.GridRatio <= 0 {
		return fmt.Errorf("%w: grid ratio must be positive", ErrConfig)
	}
	if len(opts.DPITargets) == 0 {
		return fmt.Errorf("%w: no DPI target", ErrConfig)
	}
	for _, target := range opts.DPITargets {
		if err := opts.Render.WithMaxDPI(target).Validate(); err != nil {
			return err
		}
	}

	// the margins alone must leave room for a single cell
	page := opts.Render.PageGeometry(opts.PageWidthPt, opts.PageHeightPt)
	if _, err := page.Cell(geometry.GridSpec{Rows: 1, Columns: max(opts.Columns, 1)}); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

func (g *Generator) load() ([]*codec.SourceImage, error) {
	if info, err := os.Stat(g.options.ArchivePath); err == nil {
		g.stats.InputFileSize = uint64(info.Size())
	}

	entries, err := archive.Load(g.options.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive: %w", err)
	}

	images := make([]*codec.SourceImage, 0, len(entries))
	for _, entry := range entries {
		img, err := codec.NewSourceImage(entry.Name, entry.Data)
		if err != nil {
			g.stats.Unreadable++
			logging.Warn("Unreadable image header: %v", err)
		}
		images = append(images, img)
	}
	g.stats.ImageCount = len(images)

	if g.options.Sort {
		if err := SortByCaption(images, g.options.Locale); err != nil {
			return nil, err
		}
	}
	return images, nil
}

func (g *Generator) grid(count int) (geometry.GridSpec, error) {
	columns := g.options.Columns
	if columns == 0 {
		columns = geometry.ColumnsForRatio(count, g.options.GridRatio)
	}
	grid, err := geometry.GridFor(count, columns)
	if err != nil {
		return geometry.GridSpec{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return grid, nil
}

// generate lays out and writes the poster for one DPI ceiling.
func (g *Generator) generate(ctx context.Context, images []*codec.SourceImage, grid geometry.GridSpec, page geometry.PageGeometry, maxDPI *int) (DocumentStats, error) {
	cfg := g.options.Render.WithMaxDPI(maxDPI)
	name := OutputFileName(maxDPI)
	doc := DocumentStats{
		Path:   filepath.Join(g.options.OutputDir, name),
		MaxDPI: maxDPI,
	}

	tracker := progress.NewTracker(len(images), name, progress.Options{Quiet: g.options.Quiet})
	placements, err := g.engine.LayoutWithProgress(ctx, images, grid, page, cfg, tracker)
	tracker.Finish()
	if err != nil {
		return doc, fmt.Errorf("layout failed for %s: %w", name, err)
	}

	canvas, err := g.newCanvas()
	if err != nil {
		return doc, fmt.Errorf("failed to create document: %w", err)
	}
	defer canvas.Close()

	if err := Emit(canvas, placements, page, cfg); err != nil {
		return doc, fmt.Errorf("failed to draw %s: %w", name, err)
	}
	if err := canvas.Save(doc.Path); err != nil {
		return doc, fmt.Errorf("failed to save %s: %w", doc.Path, err)
	}
	metrics.DocumentsWrittenTotal.WithLabelValues(config.FormatDPITarget(maxDPI)).Inc()

	collectDocumentStats(&doc, placements)
	if info, err := os.Stat(doc.Path); err == nil {
		doc.FileSize = uint64(info.Size())
	}

	logging.Info("Wrote %s", doc.Path)
	return doc, nil
}

func collectDocumentStats(doc *DocumentStats, placements []CellPlacement) {
	for _, p := range placements {
		if p.CacheHit {
			doc.CacheHits++
		} else {
			doc.CacheMisses++
		}
		if p.Placeholder {
			doc.Placeholders++
			continue
		}
		if doc.MinDPI == 0 || p.DPI < doc.MinDPI {
			doc.MinDPI = p.DPI
		}
		if p.DPI < LowDPIThreshold {
			doc.LowDPI = append(doc.LowDPI, p.Caption)
		}
	}
}

// displayResults shows the generation results
func (g *Generator) displayResults() {
	if g.options.Quiet {
		return
	}
	w := g.options.Out

	fmt.Fprintf(w, "\nPoster generation completed successfully\n")
	fmt.Fprintf(w, "================================================================\n")
	fmt.Fprintf(w, "Poster Summary\n")
	fmt.Fprintf(w, "================================================================\n")

	fmt.Fprintf(w, "Input:         %s (%s)\n", filepath.Base(g.options.ArchivePath), humanize.Bytes(g.stats.InputFileSize))
	fmt.Fprintf(w, "Images:        %s", humanize.Comma(int64(g.stats.ImageCount)))
	if g.stats.Unreadable > 0 {
		fmt.Fprintf(w, " (%d unreadable)", g.stats.Unreadable)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Grid:          %s on %s, cells of %.1fx%.1f mm\n", g.stats.Grid, g.paperName(),
		geometry.PointsToMM(g.stats.Cell.WidthPt), geometry.PointsToMM(g.stats.Cell.HeightPt))

	for _, doc := range g.stats.Documents {
		fmt.Fprintf(w, "Output:        %s (%s), cache %d hit / %d miss",
			filepath.Base(doc.Path), humanize.Bytes(doc.FileSize), doc.CacheHits, doc.CacheMisses)
		if doc.Placeholders > 0 {
			fmt.Fprintf(w, ", %d placeholder(s)", doc.Placeholders)
		}
		fmt.Fprintf(w, "\n")
		if len(doc.LowDPI) > 0 {
			fmt.Fprintf(w, "  Warning: %d image(s) below %d dpi, lowest %d dpi: %v\n",
				len(doc.LowDPI), LowDPIThreshold, doc.MinDPI, doc.LowDPI)
		}
	}

	fmt.Fprintf(w, "Processing:    %v\n", g.stats.ProcessingTime.Round(time.Millisecond))
	fmt.Fprintf(w, "================================================================\n")
}

func (g *Generator) paperName() string {
	if g.options.PaperName != "" {
		return g.options.PaperName
	}
	return fmt.Sprintf("%.0fx%.0f pt", g.options.PageWidthPt, g.options.PageHeightPt)
}

// GetStats returns the current generation statistics
func (g *Generator) GetStats() RunStats {
	return g.stats
}
