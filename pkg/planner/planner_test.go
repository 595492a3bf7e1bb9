package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alde/trombinoscope/pkg/geometry"
)

func intPtr(v int) *int { return &v }

func TestPlanCropLandscapeIntoSquare(t *testing.T) {
	crop := PlanCrop(4000, 3000, 1.0)

	assert.Equal(t, CropRectangle{X: 500, Y: 0, Width: 3000, Height: 3000}, crop)
}

func TestPlanCropPortraitIntoSquareKeepsTop(t *testing.T) {
	crop := PlanCrop(3000, 4000, 1.0)

	assert.Equal(t, CropRectangle{X: 0, Y: 0, Width: 3000, Height: 3000}, crop)
}

func TestPlanCropExactRatio(t *testing.T) {
	crop := PlanCrop(300, 400, 4.0/3.0)

	assert.Equal(t, CropRectangle{X: 0, Y: 0, Width: 300, Height: 400}, crop)
}

func TestPlanCropProperties(t *testing.T) {
	sizes := []int{1, 7, 64, 333, 1000, 3024, 4032}
	ratios := []float64{0.1, 0.5, 0.75, 1, 1.2345, 4.0 / 3.0, 1.5, 3, 12}

	for _, w := range sizes {
		for _, h := range sizes {
			for _, ratio := range ratios {
				crop := PlanCrop(w, h, ratio)

				require.GreaterOrEqual(t, crop.X, 0)
				require.GreaterOrEqual(t, crop.Y, 0)
				require.LessOrEqual(t, crop.X+crop.Width, w, "w=%d h=%d ratio=%f", w, h, ratio)
				require.LessOrEqual(t, crop.Y+crop.Height, h, "w=%d h=%d ratio=%f", w, h, ratio)
				require.Positive(t, crop.Width)
				require.Positive(t, crop.Height)

				imageRatio := float64(h) / float64(w)
				if ratio <= imageRatio {
					require.Zero(t, crop.Y, "crop must keep the top of the image")
				}

				// One pixel of rounding on the cropped axis, unless the
				// crop had to be clamped to a single pixel.
				if crop.Width > 1 && crop.Height > 1 {
					got := float64(crop.Height) / float64(crop.Width)
					tolerance := math.Max(ratio, 1)/float64(crop.Width) + 1e-9
					require.InDelta(t, ratio, got, tolerance, "w=%d h=%d ratio=%f", w, h, ratio)
				}
			}
		}
	}
}

func TestPlanCropDegenerateInput(t *testing.T) {
	assert.Equal(t, CropRectangle{Width: 0, Height: 10}, PlanCrop(0, 10, 1))
	assert.Equal(t, CropRectangle{Width: 10, Height: 10}, PlanCrop(10, 10, 0))
}

func TestCropRectangleRect(t *testing.T) {
	crop := CropRectangle{X: 5, Y: 0, Width: 10, Height: 20}

	assert.Equal(t, 10, crop.Rect().Dx())
	assert.Equal(t, 20, crop.Rect().Dy())
	assert.Equal(t, "(5,0,10,20)", crop.String())
}

func TestPlanDownscaleNativeKeepsDimensions(t *testing.T) {
	plan := PlanDownscale(3000, 4000, geometry.CMToPoints(10), nil)

	assert.False(t, plan.Resize)
	assert.Equal(t, 762, plan.DPI)
	assert.Equal(t, 3000, plan.Width)
	assert.Equal(t, 4000, plan.Height)
}

func TestPlanDownscaleBelowCeiling(t *testing.T) {
	plan := PlanDownscale(3000, 4000, geometry.CMToPoints(10), intPtr(762))

	assert.False(t, plan.Resize)
	assert.Equal(t, 3000, plan.Width)
	assert.Equal(t, 4000, plan.Height)
}

func TestPlanDownscaleAboveCeiling(t *testing.T) {
	maxDPI := intPtr(300)
	plan := PlanDownscale(3000, 4000, geometry.CMToPoints(10), maxDPI)

	require.True(t, plan.Resize)
	assert.Equal(t, 762, plan.DPI)
	ratio := 300.0 / 762.0
	assert.Equal(t, int(3000*ratio), plan.Width)
	assert.Equal(t, int(4000*ratio), plan.Height)

	// Resampled dimensions bring the print back to the ceiling.
	assert.InDelta(t, 300, geometry.ComputeDPI(plan.Width, 10), 1)
}

func TestPlanDownscaleNeverUpscales(t *testing.T) {
	for _, dpi := range []int{72, 150, 300, 600, 1200, 2400} {
		plan := PlanDownscale(1200, 1600, geometry.CMToPoints(5), intPtr(dpi))
		assert.LessOrEqual(t, plan.Width, 1200)
		assert.LessOrEqual(t, plan.Height, 1600)
	}
}

func TestPlanDownscaleInvalidInput(t *testing.T) {
	plan := PlanDownscale(100, 100, 0, intPtr(300))
	assert.False(t, plan.Resize)
	assert.Equal(t, 100, plan.Width)
}
