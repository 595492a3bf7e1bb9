// Package geometry converts physical units and computes the poster grid.
//
// All lengths are PDF points (1/72 inch) unless a name says otherwise. Page
// coordinates use the PDF convention: the origin is the bottom-left corner of
// the page, x grows to the right and y grows upwards.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MMPerInch is the number of millimeters in an inch.
	MMPerInch = 25.4
	// PointsPerInch is the number of PDF points in an inch.
	PointsPerInch = 72.0
)

var (
	// ErrInvalidGrid is returned for grids without at least one row and column.
	ErrInvalidGrid = errors.New("invalid grid")
	// ErrInvalidCell is returned when margins leave no room for the cells.
	ErrInvalidCell = errors.New("invalid cell geometry")
)

// MMToPoints converts millimeters to points.
func MMToPoints(mm float64) float64 {
	return mm / MMPerInch * PointsPerInch
}

// PointsToMM converts points to millimeters.
func PointsToMM(pt float64) float64 {
	return pt / PointsPerInch * MMPerInch
}

// PointsToCM converts points to centimeters.
func PointsToCM(pt float64) float64 {
	return PointsToMM(pt) / 10
}

// CMToPoints converts centimeters to points.
func CMToPoints(cm float64) float64 {
	return MMToPoints(cm * 10)
}

// ComputeDPI returns the resolution (pixels per printed inch) of pixelSize
// pixels printed over printedSizeCm centimeters. printedSizeCm must be > 0.
func ComputeDPI(pixelSize int, printedSizeCm float64) int {
	return int(math.Round(float64(pixelSize) * 2.54 / printedSizeCm))
}

// GridSpec is the shape of the poster grid.
type GridSpec struct {
	Rows    int
	Columns int
}

// Cells returns the number of cells in the grid.
func (g GridSpec) Cells() int {
	return g.Rows * g.Columns
}

// Position returns the row-major (row, column) of the i-th cell.
func (g GridSpec) Position(i int) (row, column int) {
	return i / g.Columns, i % g.Columns
}

func (g GridSpec) String() string {
	return fmt.Sprintf("%dx%d", g.Columns, g.Rows)
}

// GridFor returns the grid that lays out count images in the given number of
// columns. Rows are derived as ceil(count/columns), with at least one row.
func GridFor(count, columns int) (GridSpec, error) {
	if columns <= 0 {
		return GridSpec{}, fmt.Errorf("%w: columns must be positive, got %d", ErrInvalidGrid, columns)
	}
	if count < 0 {
		return GridSpec{}, fmt.Errorf("%w: negative image count %d", ErrInvalidGrid, count)
	}

	rows := (count + columns - 1) / columns
	if rows < 1 {
		rows = 1
	}
	return GridSpec{Rows: rows, Columns: columns}, nil
}

// ColumnsForRatio picks a column count so that the grid of count cells has
// roughly the targetRatio (rows/columns) proportions. 1/√2 approximates an
// A-series sheet in landscape.
func ColumnsForRatio(count int, targetRatio float64) int {
	if count <= 0 || targetRatio <= 0 {
		return 1
	}
	columns := int(math.Round(math.Sqrt(float64(count) / targetRatio)))
	if columns < 1 {
		return 1
	}
	return columns
}

// PageGeometry holds the page size and its margins.
type PageGeometry struct {
	WidthPt        float64
	HeightPt       float64
	HMarginPt      float64 // left and right page margin
	VMarginPt      float64 // top and bottom page margin
	InnerHMarginPt float64 // horizontal gutter between cells
	InnerVMarginPt float64 // vertical gutter between cells
}

// CellGeometry is the size of one grid cell.
type CellGeometry struct {
	WidthPt  float64
	HeightPt float64
}

// Ratio returns the height/width ratio of the cell.
func (c CellGeometry) Ratio() float64 {
	return c.HeightPt / c.WidthPt
}

// Cell computes the size of one cell for the grid.
func (p PageGeometry) Cell(grid GridSpec) (CellGeometry, error) {
	if grid.Rows <= 0 || grid.Columns <= 0 {
		return CellGeometry{}, fmt.Errorf("%w: %d rows, %d columns", ErrInvalidGrid, grid.Rows, grid.Columns)
	}

	width := ((p.WidthPt - 2*p.HMarginPt) - float64(grid.Columns-1)*p.InnerHMarginPt) / float64(grid.Columns)
	height := ((p.HeightPt - 2*p.VMarginPt) - float64(grid.Rows-1)*p.InnerVMarginPt) / float64(grid.Rows)

	if width <= 0 || height <= 0 {
		return CellGeometry{}, fmt.Errorf("%w: %.2fx%.2fpt cells for a %s grid on a %.2fx%.2fpt page",
			ErrInvalidCell, width, height, grid, p.WidthPt, p.HeightPt)
	}
	return CellGeometry{WidthPt: width, HeightPt: height}, nil
}

// CellOrigin returns the bottom-left corner of the cell at (row, column).
func (p PageGeometry) CellOrigin(cell CellGeometry, row, column int) (leftPt, bottomPt float64) {
	leftPt = p.HMarginPt + float64(column)*(cell.WidthPt+p.InnerHMarginPt)
	bottomPt = p.HeightPt - (p.VMarginPt + cell.HeightPt + float64(row)*(cell.HeightPt+p.InnerVMarginPt))
	return leftPt, bottomPt
}
