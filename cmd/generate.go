package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/alde/trombinoscope/internal/config"
	"github.com/alde/trombinoscope/internal/logging"
	"github.com/alde/trombinoscope/internal/metrics"
	"github.com/alde/trombinoscope/internal/pdfcanvas"
	"github.com/alde/trombinoscope/pkg/cache"
	"github.com/alde/trombinoscope/pkg/codec"
	"github.com/alde/trombinoscope/pkg/geometry"
	"github.com/alde/trombinoscope/pkg/paper"
	"github.com/alde/trombinoscope/pkg/poster"
)

var generateCmd = &cobra.Command{
	Use:   "generate [archive.zip]",
	Short: "Generate poster PDFs from a ZIP archive of portraits",
	Long: `Lay out every image of a ZIP archive on a grid and write one poster per
requested resolution ceiling.

Images are cropped to the cell ratio (--mode cover) or fitted inside it
(--mode fit), downsampled to the ceiling and captioned with their file name.
Entries that cannot be decoded are replaced by a placeholder.

Examples:
  trombinoscope generate class.zip
  trombinoscope generate class.zip --paper a2 --columns 8 --dpi 300,native
  trombinoscope generate class.zip -o posters/ --sort --locale fr --workers 4
  trombinoscope generate --config poster.yaml --debug`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addLayoutFlags(generateCmd.Flags())
	addRenderFlags(generateCmd.Flags())
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Archive = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts, err := posterOptions(cfg)
	if err != nil {
		return err
	}

	placeholder, err := loadPlaceholder(cfg.Placeholder)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	engine := poster.NewEngine(cache.New(cfg.CacheDir, codec.New()), placeholder, workers)

	pdf, err := pdfcanvas.NewEngine()
	if err != nil {
		return err
	}
	defer pdf.Close()

	newCanvas := func() (poster.Canvas, error) {
		doc, err := pdf.NewDocument()
		if err != nil {
			return nil, err
		}
		return doc, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, runErr := poster.New(opts, engine, newCanvas).Run(ctx)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logging.Warn("%v", err)
		}
	}
	return runErr
}

// posterOptions converts the user facing settings, in millimetres, into
// generator options in points.
func posterOptions(cfg config.Config) (poster.Options, error) {
	profile, err := paper.GetProfile(cfg.Paper)
	if err != nil {
		return poster.Options{}, err
	}
	widthPt, heightPt := profile.SizePt(cfg.Landscape)

	targets, err := cfg.DPITargets()
	if err != nil {
		return poster.Options{}, err
	}

	mode, err := poster.ParseMode(cfg.Mode)
	if err != nil {
		return poster.Options{}, err
	}

	return poster.Options{
		ArchivePath:  cfg.Archive,
		OutputDir:    cfg.OutputDir,
		PageWidthPt:  widthPt,
		PageHeightPt: heightPt,
		PaperName:    orientation(profile, cfg.Landscape),
		Columns:      cfg.Columns,
		GridRatio:    cfg.GridRatio,
		DPITargets:   targets,
		Render:       renderConfig(cfg, mode),
		Sort:         cfg.Sort,
		Locale:       cfg.Locale,
		Quiet:        quiet,
	}, nil
}

func renderConfig(cfg config.Config, mode poster.Mode) poster.RenderConfig {
	return poster.RenderConfig{
		PageHMarginPt:  geometry.MMToPoints(cfg.Margins.PageH),
		PageVMarginPt:  geometry.MMToPoints(cfg.Margins.PageV),
		InnerHMarginPt: geometry.MMToPoints(cfg.Margins.InnerH),
		InnerVMarginPt: geometry.MMToPoints(cfg.Margins.InnerV),
		Mode:           mode,
		Captions:       cfg.Captions,
		CaptionSizePt:  cfg.CaptionSize,
		Debug:          cfg.Debug,
	}
}

func orientation(profile paper.Profile, landscape bool) string {
	if landscape {
		return profile.Name + " landscape"
	}
	return profile.Name + " portrait"
}

// loadPlaceholder reads a user supplied placeholder. It has to decode, since
// it is what broken entries fall back to.
func loadPlaceholder(path string) (*codec.SourceImage, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read placeholder: %w", err)
	}
	// distinct from the generated placeholder, which shares the cache
	img, err := codec.NewSourceImage(poster.PlaceholderIdentity+"-"+filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("placeholder %s is not a readable image: %w", path, err)
	}
	if _, err := codec.New().Decode(data); err != nil {
		return nil, fmt.Errorf("placeholder %s is not a readable image: %w", path, err)
	}
	return img, nil
}
