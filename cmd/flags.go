package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alde/trombinoscope/internal/config"
)

// Flag values; only those changed on the command line override the config.
var (
	flagOutputDir   string
	flagCacheDir    string
	flagNoCache     bool
	flagDPI         string
	flagColumns     int
	flagGridRatio   float64
	flagPaper       string
	flagLandscape   bool
	flagMarginH     float64
	flagMarginV     float64
	flagInnerH      float64
	flagInnerV      float64
	flagMode        string
	flagCaptions    bool
	flagCaptionSize float64
	flagSort        bool
	flagLocale      string
	flagPlaceholder string
	flagWorkers     int
	flagDebug       bool
	flagMetricsFile string
)

// addLayoutFlags registers the flags that change the grid and page geometry.
func addLayoutFlags(flags *pflag.FlagSet) {
	defaults := config.Default()

	flags.IntVar(&flagColumns, "columns", defaults.Columns, "Number of grid columns (0 = derive from --grid-ratio)")
	flags.Float64Var(&flagGridRatio, "grid-ratio", defaults.GridRatio, "Target rows/columns ratio when deriving the column count")
	flags.StringVar(&flagPaper, "paper", defaults.Paper, "Paper size (a0-a5, letter, legal, tabloid)")
	flags.BoolVar(&flagLandscape, "landscape", defaults.Landscape, "Use the paper in landscape orientation")
	flags.Float64Var(&flagMarginH, "margin-h", defaults.Margins.PageH, "Left and right page margin in mm")
	flags.Float64Var(&flagMarginV, "margin-v", defaults.Margins.PageV, "Top and bottom page margin in mm")
	flags.Float64Var(&flagInnerH, "inner-h", defaults.Margins.InnerH, "Horizontal gap between cells in mm")
	flags.Float64Var(&flagInnerV, "inner-v", defaults.Margins.InnerV, "Vertical gap between cells in mm, captions sit in it")
}

// addRenderFlags registers the flags used only when a poster is written.
func addRenderFlags(flags *pflag.FlagSet) {
	defaults := config.Default()

	flags.StringVarP(&flagOutputDir, "output", "o", defaults.OutputDir, "Output directory for the posters")
	flags.StringVar(&flagCacheDir, "cache-dir", defaults.CacheDir, "Directory of the transformed image cache")
	flags.BoolVar(&flagNoCache, "no-cache", false, "Disable the transformed image cache")
	flags.StringVar(&flagDPI, "dpi", defaults.DPI, "Comma-separated resolution ceilings, e.g. \"300,600,native\"")
	flags.StringVar(&flagMode, "mode", defaults.Mode, "How images fill their cell (cover, fit)")
	flags.BoolVar(&flagCaptions, "captions", defaults.Captions, "Print file names under the images")
	flags.Float64Var(&flagCaptionSize, "caption-size", defaults.CaptionSize, "Caption font size in points")
	flags.BoolVar(&flagSort, "sort", defaults.Sort, "Sort images by caption instead of archive order")
	flags.StringVar(&flagLocale, "locale", defaults.Locale, "Collation locale used by --sort")
	flags.StringVar(&flagPlaceholder, "placeholder", defaults.Placeholder, "Image drawn for entries that cannot be decoded")
	flags.IntVar(&flagWorkers, "workers", defaults.Workers, "Number of worker goroutines transforming images (0 = one per CPU)")
	flags.BoolVar(&flagDebug, "debug", defaults.Debug, "Outline cells and print their index")
	flags.StringVar(&flagMetricsFile, "metrics-file", defaults.MetricsFile, "Write Prometheus metrics to this file")
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}

	set("output", func() { cfg.OutputDir = flagOutputDir })
	set("cache-dir", func() { cfg.CacheDir = flagCacheDir })
	set("no-cache", func() {
		if flagNoCache {
			cfg.CacheDir = ""
		}
	})
	set("dpi", func() { cfg.DPI = flagDPI })
	set("columns", func() { cfg.Columns = flagColumns })
	set("grid-ratio", func() { cfg.GridRatio = flagGridRatio })
	set("paper", func() { cfg.Paper = flagPaper })
	set("landscape", func() { cfg.Landscape = flagLandscape })
	set("margin-h", func() { cfg.Margins.PageH = flagMarginH })
	set("margin-v", func() { cfg.Margins.PageV = flagMarginV })
	set("inner-h", func() { cfg.Margins.InnerH = flagInnerH })
	set("inner-v", func() { cfg.Margins.InnerV = flagInnerV })
	set("mode", func() { cfg.Mode = flagMode })
	set("captions", func() { cfg.Captions = flagCaptions })
	set("caption-size", func() { cfg.CaptionSize = flagCaptionSize })
	set("sort", func() { cfg.Sort = flagSort })
	set("locale", func() { cfg.Locale = flagLocale })
	set("placeholder", func() { cfg.Placeholder = flagPlaceholder })
	set("workers", func() { cfg.Workers = flagWorkers })
	set("debug", func() { cfg.Debug = flagDebug })
	set("metrics-file", func() { cfg.MetricsFile = flagMetricsFile })
}
