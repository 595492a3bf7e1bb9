package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alde/trombinoscope/internal/config"
	"github.com/alde/trombinoscope/internal/logging"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "trombinoscope",
	Short: "Build printable contact-sheet posters from a folder of portraits",
	Long: `Trombinoscope lays out a ZIP archive of portraits as a captioned grid on a
single poster page and writes it as a PDF, once per requested resolution.

Transformed images are cached on disk so that re-running with another paper
size, grid or resolution only recomputes what changed.

Settings come from defaults, an optional YAML file (--config), TROMBI_*
environment variables (a .env file is read too) and flags, in increasing
order of precedence.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnvironment)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
}

func initEnvironment() {
	// a missing .env is the common case
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warn("Ignoring .env: %v", err)
	}

	switch {
	case verbose:
		logging.SetLevel(logging.LevelDebug)
	case quiet:
		logging.SetLevel(logging.LevelWarn)
	}
}

// loadConfig reads the layered configuration and applies the flags that were
// set explicitly on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	applyFlags(cmd, &cfg)
	return cfg, nil
}
