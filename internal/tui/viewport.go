/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tui

import (
	"math"

	"github.com/Seednode/charades/internal/skeleton"
)

// cellAspect is how much taller a terminal cell is than it is wide.
const cellAspect = 2.0

// Viewport maps canvas coordinates onto a grid of terminal cells, keeping
// the canvas undistorted and centered.
type Viewport struct {
	Cols, Rows int
	Origin     skeleton.Point // canvas point at the top-left corner of cell (0, 0)
	Scale      float64        // canvas units per cell column
}

// Fit centers the square canvas area of side extent around center in a
// cols by rows grid.
func Fit(cols, rows int, center skeleton.Point, extent float64) Viewport {
	cols = max(cols, 1)
	rows = max(rows, 1)

	scale := math.Max(extent/float64(cols), extent/(float64(rows)*cellAspect))

	return Viewport{
		Cols: cols,
		Rows: rows,
		Origin: skeleton.Point{
			X: center.X - float64(cols)*scale/2,
			Y: center.Y - float64(rows)*scale*cellAspect/2,
		},
		Scale: scale,
	}
}

// ToCell returns the cell containing p. It may be outside the grid.
func (v Viewport) ToCell(p skeleton.Point) (col, row int) {
	x, y := v.toGrid(p)

	return int(math.Floor(x)), int(math.Floor(y))
}

// toGrid returns p in fractional cell units.
func (v Viewport) toGrid(p skeleton.Point) (x, y float64) {
	return (p.X - v.Origin.X) / v.Scale, (p.Y - v.Origin.Y) / (v.Scale * cellAspect)
}

// ToCanvas returns the canvas point at the center of a cell.
func (v Viewport) ToCanvas(col, row int) skeleton.Point {
	return skeleton.Point{
		X: v.Origin.X + (float64(col)+0.5)*v.Scale,
		Y: v.Origin.Y + (float64(row)+0.5)*v.Scale*cellAspect,
	}
}

func (v Viewport) Contains(col, row int) bool {
	return col >= 0 && col < v.Cols && row >= 0 && row < v.Rows
}
