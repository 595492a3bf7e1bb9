// Package config loads poster settings from defaults, a YAML file and
// TROMBI_* environment variables, in increasing order of precedence.
// Command-line flags are applied on top by the cmd package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TROMBI_"

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Margins are given in millimetres.
type Margins struct {
	PageH  float64 `yaml:"page_h"`
	PageV  float64 `yaml:"page_v"`
	InnerH float64 `yaml:"inner_h"`
	InnerV float64 `yaml:"inner_v"`
}

type Config struct {
	Archive     string  `yaml:"archive"`
	OutputDir   string  `yaml:"output_dir"`
	CacheDir    string  `yaml:"cache_dir"` // empty disables the cache
	DPI         string  `yaml:"dpi"`       // e.g. "300,600,native"
	Columns     int     `yaml:"columns"`   // 0 derives the count from GridRatio
	GridRatio   float64 `yaml:"grid_ratio"`
	Paper       string  `yaml:"paper"`
	Landscape   bool    `yaml:"landscape"`
	Margins     Margins `yaml:"margins"`
	Mode        string  `yaml:"mode"` // cover or fit
	Captions    bool    `yaml:"captions"`
	CaptionSize float64 `yaml:"caption_size"` // points
	Sort        bool    `yaml:"sort"`
	Locale      string  `yaml:"locale"`
	Placeholder string  `yaml:"placeholder"` // image used for undecodable entries
	Workers     int     `yaml:"workers"`
	Debug       bool    `yaml:"debug"`
	MetricsFile string  `yaml:"metrics_file"`
}

// Default returns the settings of a standard A3 landscape poster.
func Default() Config {
	return Config{
		OutputDir: ".",
		CacheDir:  ".trombinoscope-cache",
		DPI:       "600",
		GridRatio: 1 / math.Sqrt2,
		Paper:     "a3",
		Landscape: true,
		Margins: Margins{
			PageH:  10,
			PageV:  10,
			InnerH: 1,
			InnerV: 5,
		},
		Mode:        "cover",
		Captions:    true,
		CaptionSize: 12,
		Locale:      "en",
		Workers:     1,
	}
}

// Load returns the defaults overridden by the YAML file at path, if any, and
// then by the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	envString("ARCHIVE", &c.Archive)
	envString("OUTPUT_DIR", &c.OutputDir)
	envString("CACHE_DIR", &c.CacheDir)
	envString("DPI", &c.DPI)
	envString("PAPER", &c.Paper)
	envString("MODE", &c.Mode)
	envString("LOCALE", &c.Locale)
	envString("PLACEHOLDER", &c.Placeholder)
	envString("METRICS_FILE", &c.MetricsFile)

	errs = append(errs,
		envInt("COLUMNS", &c.Columns),
		envInt("WORKERS", &c.Workers),
		envFloat("GRID_RATIO", &c.GridRatio),
		envFloat("CAPTION_SIZE", &c.CaptionSize),
		envFloat("MARGIN_PAGE_H", &c.Margins.PageH),
		envFloat("MARGIN_PAGE_V", &c.Margins.PageV),
		envFloat("MARGIN_INNER_H", &c.Margins.InnerH),
		envFloat("MARGIN_INNER_V", &c.Margins.InnerV),
		envBool("LANDSCAPE", &c.Landscape),
		envBool("CAPTIONS", &c.Captions),
		envBool("SORT", &c.Sort),
		envBool("DEBUG", &c.Debug),
	)

	return errors.Join(errs...)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, EnvPrefix, key, s)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q is not a number", ErrInvalid, EnvPrefix, key, s)
	}
	*dst = f
	return nil
}

func envBool(key string, dst *bool) error {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalid, EnvPrefix, key, s)
	}
	*dst = b
	return nil
}

// Validate checks the values that do not depend on the archive content.
func (c *Config) Validate() error {
	if c.Archive == "" {
		return fmt.Errorf("%w: no archive given", ErrInvalid)
	}
	if c.Columns < 0 {
		return fmt.Errorf("%w: columns must not be negative, got %d", ErrInvalid, c.Columns)
	}
	if c.Columns == 0 && c.GridRatio <= 0 {
		return fmt.Errorf("%w: grid ratio must be positive, got %g", ErrInvalid, c.GridRatio)
	}
	if mode := strings.ToLower(strings.TrimSpace(c.Mode)); mode != "cover" && mode != "fit" {
		return fmt.Errorf("%w: mode must be cover or fit, got %q", ErrInvalid, c.Mode)
	}
	if c.CaptionSize <= 0 {
		return fmt.Errorf("%w: caption size must be positive, got %g", ErrInvalid, c.CaptionSize)
	}
	for name, v := range map[string]float64{
		"page horizontal margin":  c.Margins.PageH,
		"page vertical margin":    c.Margins.PageV,
		"inner horizontal margin": c.Margins.InnerH,
		"inner vertical margin":   c.Margins.InnerV,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalid, name, v)
		}
	}
	if _, err := ParseDPITargets(c.DPI); err != nil {
		return err
	}
	return nil
}

// DPITargets parses the DPI field.
func (c *Config) DPITargets() ([]*int, error) {
	return ParseDPITargets(c.DPI)
}
