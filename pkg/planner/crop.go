// Package planner decides how a source image is cropped and downsampled
// before it is placed in a poster cell.
package planner

import (
	"fmt"
	"image"
	"math"
)

// CropRectangle is a pixel rectangle inside a source image.
type CropRectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rect returns the crop as an image.Rectangle.
func (c CropRectangle) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

func (c CropRectangle) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", c.X, c.Y, c.Width, c.Height)
}

// PlanCrop returns the largest rectangle of the source image with the cell's
// height/width ratio.
//
// When the cell is proportionally taller than the image, the full height is
// kept and the crop is centered horizontally. Otherwise the full width is kept
// and the crop is anchored at the top of the image: subjects are portraits, so
// the excess is always taken from the bottom and never from the top of the head.
func PlanCrop(srcW, srcH int, cellRatio float64) CropRectangle {
	if srcW <= 0 || srcH <= 0 || cellRatio <= 0 {
		return CropRectangle{Width: max(srcW, 0), Height: max(srcH, 0)}
	}

	imageRatio := float64(srcH) / float64(srcW)

	if cellRatio > imageRatio {
		width := clamp(int(math.Round(float64(srcH)/cellRatio)), 1, srcW)
		return CropRectangle{
			X:      (srcW - width) / 2,
			Y:      0,
			Width:  width,
			Height: srcH,
		}
	}

	height := clamp(int(math.Round(float64(srcW)*cellRatio)), 1, srcH)
	return CropRectangle{
		X:      0,
		Y:      0,
		Width:  srcW,
		Height: height,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
