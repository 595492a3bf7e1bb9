package planner

import (
	"github.com/alde/trombinoscope/pkg/geometry"
)

// Downscale is the outcome of PlanDownscale.
type Downscale struct {
	// DPI is the native resolution of the source at the printed size.
	DPI int
	// Resize reports whether the image must be resampled.
	Resize bool
	// Width and Height are the target pixel dimensions. They equal the
	// source dimensions when Resize is false.
	Width  int
	Height int
}

// PlanDownscale decides whether a srcW×srcH image printed printedWidthPt wide
// exceeds maxDPI and, if so, the dimensions that bring it down to maxDPI.
// A nil maxDPI means native resolution. Images are never upscaled.
func PlanDownscale(srcW, srcH int, printedWidthPt float64, maxDPI *int) Downscale {
	plan := Downscale{Width: srcW, Height: srcH}
	if srcW <= 0 || srcH <= 0 || printedWidthPt <= 0 {
		return plan
	}

	plan.DPI = geometry.ComputeDPI(srcW, geometry.PointsToCM(printedWidthPt))
	if maxDPI == nil || *maxDPI <= 0 || plan.DPI <= *maxDPI {
		return plan
	}

	ratio := float64(*maxDPI) / float64(plan.DPI)
	plan.Resize = true
	plan.Width = max(int(float64(srcW)*ratio), 1)
	plan.Height = max(int(float64(srcH)*ratio), 1)
	return plan
}
