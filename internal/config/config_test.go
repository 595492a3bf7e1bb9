package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "a3", cfg.Paper)
	assert.True(t, cfg.Landscape)
	assert.Equal(t, Margins{PageH: 10, PageV: 10, InnerH: 1, InnerV: 5}, cfg.Margins)
	assert.Equal(t, "cover", cfg.Mode)
	assert.Zero(t, cfg.Columns)
	assert.InDelta(t, 1/math.Sqrt2, cfg.GridRatio, 1e-12)

	targets, err := cfg.DPITargets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, 600, *targets[0])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
archive: class.zip
dpi: 300,native
columns: 6
landscape: false
margins:
  inner_v: 8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "class.zip", cfg.Archive)
	assert.Equal(t, 6, cfg.Columns)
	assert.False(t, cfg.Landscape)
	assert.Equal(t, 8.0, cfg.Margins.InnerV)
	// untouched fields keep their defaults
	assert.Equal(t, 10.0, cfg.Margins.PageH)
	assert.Equal(t, "a3", cfg.Paper)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colums: 4\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: 6\npaper: a2\n"), 0o644))

	t.Setenv("TROMBI_COLUMNS", "8")
	t.Setenv("TROMBI_CAPTIONS", "false")
	t.Setenv("TROMBI_MARGIN_INNER_H", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Columns)
	assert.Equal(t, "a2", cfg.Paper)
	assert.False(t, cfg.Captions)
	assert.Equal(t, 2.5, cfg.Margins.InnerH)
}

func TestEnvInvalidValues(t *testing.T) {
	t.Setenv("TROMBI_WORKERS", "many")
	t.Setenv("TROMBI_SORT", "perhaps")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "TROMBI_WORKERS")
	assert.Contains(t, err.Error(), "TROMBI_SORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults with archive", func(c *Config) {}, true},
		{"no archive", func(c *Config) { c.Archive = "" }, false},
		{"negative columns", func(c *Config) { c.Columns = -1 }, false},
		{"zero ratio", func(c *Config) { c.GridRatio = 0 }, false},
		{"zero ratio with fixed columns", func(c *Config) { c.GridRatio = 0; c.Columns = 3 }, true},
		{"unknown mode", func(c *Config) { c.Mode = "stretch" }, false},
		{"fit mode", func(c *Config) { c.Mode = "fit" }, true},
		{"mode in capitals", func(c *Config) { c.Mode = "Fit" }, true},
		{"mode with spaces", func(c *Config) { c.Mode = " cover " }, true},
		{"negative margin", func(c *Config) { c.Margins.InnerV = -1 }, false},
		{"bad dpi", func(c *Config) { c.DPI = "0" }, false},
		{"zero caption size", func(c *Config) { c.CaptionSize = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Archive = "class.zip"
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}
