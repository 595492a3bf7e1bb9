package poster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alde/trombinoscope/pkg/geometry"
)

// ErrConfig is returned for render settings that cannot produce a poster.
var ErrConfig = errors.New("invalid poster configuration")

// Mode selects how an image fills its cell.
type Mode string

const (
	// ModeCover crops the image to the cell ratio and fills the cell.
	ModeCover Mode = "cover"
	// ModeFit keeps the whole image and fits it inside the cell.
	ModeFit Mode = "fit"
)

// ParseMode accepts "cover" or "fit", case-insensitively. An empty string
// selects cover.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCover:
		return ModeCover, nil
	case ModeFit:
		return ModeFit, nil
	}
	return "", fmt.Errorf("%w: unknown layout mode %q", ErrConfig, s)
}

// DefaultCaptionSizePt is the caption font size used when none is set.
const DefaultCaptionSizePt = 12

// debugLabelSizePt is the size of the cell index printed in debug mode.
const debugLabelSizePt = 10

// RenderConfig holds the page margins and per-run rendering options. All
// lengths are in points.
type RenderConfig struct {
	PageHMarginPt  float64
	PageVMarginPt  float64
	InnerHMarginPt float64
	InnerVMarginPt float64

	// MaxDPI caps image resolution; nil keeps native resolution.
	MaxDPI *int

	Mode          Mode
	Captions      bool
	CaptionSizePt float64
	Debug         bool
}

// WithMaxDPI returns a copy of c with a different resolution ceiling.
func (c RenderConfig) WithMaxDPI(dpi *int) RenderConfig {
	c.MaxDPI = dpi
	return c
}

// PageGeometry combines the margins with a page size.
func (c RenderConfig) PageGeometry(widthPt, heightPt float64) geometry.PageGeometry {
	return geometry.PageGeometry{
		WidthPt:        widthPt,
		HeightPt:       heightPt,
		HMarginPt:      c.PageHMarginPt,
		VMarginPt:      c.PageVMarginPt,
		InnerHMarginPt: c.InnerHMarginPt,
		InnerVMarginPt: c.InnerVMarginPt,
	}
}

func (c RenderConfig) captionSize() float64 {
	if c.CaptionSizePt > 0 {
		return c.CaptionSizePt
	}
	return DefaultCaptionSizePt
}

// Validate rejects negative margins, unknown modes and non-positive DPI
// ceilings.
func (c RenderConfig) Validate() error {
	if c.PageHMarginPt < 0 || c.PageVMarginPt < 0 || c.InnerHMarginPt < 0 || c.InnerVMarginPt < 0 {
		return fmt.Errorf("%w: margins must not be negative", ErrConfig)
	}
	if c.Mode != ModeCover && c.Mode != ModeFit {
		return fmt.Errorf("%w: unknown layout mode %q", ErrConfig, c.Mode)
	}
	if c.MaxDPI != nil && *c.MaxDPI <= 0 {
		return fmt.Errorf("%w: DPI ceiling must be positive, got %d", ErrConfig, *c.MaxDPI)
	}
	if c.CaptionSizePt < 0 {
		return fmt.Errorf("%w: caption size must not be negative", ErrConfig)
	}
	return nil
}
