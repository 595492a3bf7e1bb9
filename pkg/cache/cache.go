// Package cache stores cropped and resampled poster images on disk so that
// repeated runs only decode and encode each (image, crop, DPI) once.
//
// Entries are never invalidated. If the crop policy, the resampling filter or
// the JPEG quality changes, the cache directory must be cleared.
package cache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio"
	"golang.org/x/sync/singleflight"

	"github.com/alde/trombinoscope/internal/logging"
	"github.com/alde/trombinoscope/internal/metrics"
	"github.com/alde/trombinoscope/pkg/codec"
	"github.com/alde/trombinoscope/pkg/planner"
)

const (
	entrySuffix = ".jpg"
	cropMarker  = "-cropped("
)

// ErrEncode is returned when a transformed image cannot be encoded.
var ErrEncode = errors.New("encode failed")

// Result describes how a transform was obtained.
type Result struct {
	Hit     bool
	DPI     int // native DPI of the cropped image at its printed width
	Resized bool
	Width   int
	Height  int
}

// EffectiveDPI is the resolution of the returned image at its printed width.
func (r Result) EffectiveDPI(maxDPI *int) int {
	if r.Resized && maxDPI != nil {
		return *maxDPI
	}
	return r.DPI
}

// Stats summarizes the content of a cache directory.
type Stats struct {
	Entries int
	Bytes   int64
}

// Cache is a directory of transformed images. An empty Dir disables
// persistence and every call computes.
type Cache struct {
	Dir   string
	codec codec.Codec
	group singleflight.Group
}

// New creates a cache rooted at dir using c to transform images.
func New(dir string, c codec.Codec) *Cache {
	return &Cache{Dir: dir, codec: c}
}

// Key returns the file name of the entry for identity, crop and maxDPI.
func Key(identity string, crop planner.CropRectangle, maxDPI *int) string {
	dpi := "native"
	if maxDPI != nil {
		dpi = strconv.Itoa(*maxDPI)
	}
	return fmt.Sprintf("%s%s%d,%d,%d,%d)-dpi(%s)%s",
		SanitizeFilename(identity), cropMarker,
		crop.X, crop.Y, crop.Width, crop.Height, dpi, entrySuffix)
}

// SanitizeFilename replaces characters that are not allowed in file names on
// common filesystems with an underscore.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '<', '>', ':', '/', '\\', '|', '?', '*':
			return '_'
		}
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, name)
}

// GetOrCompute returns the JPEG bytes of img cropped to crop and downsampled
// to at most maxDPI when printed printedWidthPt wide. A nil maxDPI keeps the
// native resolution.
func (c *Cache) GetOrCompute(ctx context.Context, img *codec.SourceImage, crop planner.CropRectangle, maxDPI *int, printedWidthPt float64) ([]byte, Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, Result{}, err
	}

	plan := planner.PlanDownscale(crop.Width, crop.Height, printedWidthPt, maxDPI)
	result := Result{
		DPI:     plan.DPI,
		Resized: plan.Resize,
		Width:   plan.Width,
		Height:  plan.Height,
	}

	key := Key(img.Identity, crop, maxDPI)

	if data, ok := c.load(key); ok {
		metrics.CacheHitsTotal.Inc()
		result.Hit = true
		return data, result, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// another caller may have finished between the lookup and here
		if data, ok := c.load(key); ok {
			return data, nil
		}
		metrics.CacheMissesTotal.Inc()
		data, err := c.compute(img, crop, plan)
		if err != nil {
			return nil, err
		}
		c.store(key, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, Result{}, res.Err
		}
		return res.Val.([]byte), result, nil
	}
}

func (c *Cache) compute(img *codec.SourceImage, crop planner.CropRectangle, plan planner.Downscale) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.TransformDuration.Observe(time.Since(start).Seconds())
	}()

	decoded, err := c.codec.Decode(img.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Identity, err)
	}

	var out image.Image = c.codec.Crop(decoded, crop.Rect())
	if plan.Resize {
		logging.Debug("Resampling %s from %dx%d to %dx%d (%d dpi)",
			img.Identity, crop.Width, crop.Height, plan.Width, plan.Height, plan.DPI)
		out = c.codec.Resize(out, plan.Width, plan.Height)
	}

	data, err := c.codec.Encode(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, img.Identity, err)
	}
	return data, nil
}

func (c *Cache) load(key string) ([]byte, bool) {
	if c.Dir == "" {
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(c.Dir, key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Failed to read cache entry %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

// store persists data atomically. Failures are logged and otherwise ignored.
func (c *Cache) store(key string, data []byte) {
	if c.Dir == "" {
		return
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		metrics.CacheWriteErrorsTotal.Inc()
		logging.Warn("Failed to create cache directory %s: %v", c.Dir, err)
		return
	}
	if err := renameio.WriteFile(filepath.Join(c.Dir, key), data, 0o644); err != nil {
		metrics.CacheWriteErrorsTotal.Inc()
		logging.Warn("Failed to write cache entry %s: %v", key, err)
	}
}

// Stats counts the entries in the cache directory. A missing directory is an
// empty cache.
func (c *Cache) Stats() (Stats, error) {
	var stats Stats
	err := c.walk(func(path string, info os.FileInfo) error {
		stats.Entries++
		stats.Bytes += info.Size()
		return nil
	})
	return stats, err
}

// Clear removes every cache entry and returns how many were removed. Files
// that are not cache entries are left alone.
func (c *Cache) Clear() (int, error) {
	removed := 0
	err := c.walk(func(path string, _ os.FileInfo) error {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
		return nil
	})
	return removed, err
}

func (c *Cache) walk(fn func(path string, info os.FileInfo) error) error {
	if c.Dir == "" {
		return nil
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isEntry(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", name, err)
		}
		if err := fn(filepath.Join(c.Dir, name), info); err != nil {
			return err
		}
	}
	return nil
}

func isEntry(name string) bool {
	return strings.HasSuffix(name, entrySuffix) && strings.Contains(name, cropMarker)
}
