/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tui

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/Seednode/charades/internal/skeleton"
)

const (
	runeRoot   = '@'
	runeJoint  = '+'
	runeCircle = 'o'
)

type Theme struct {
	Limb   tcell.Style
	Head   tcell.Style
	Joint  tcell.Style
	Root   tcell.Style
	Status tcell.Style
	Notice tcell.Style
}

var DefaultTheme = Theme{
	Limb:   tcell.StyleDefault.Foreground(tcell.ColorWhite),
	Head:   tcell.StyleDefault.Foreground(tcell.ColorYellow),
	Joint:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
	Root:   tcell.StyleDefault.Foreground(tcell.ColorRed),
	Status: tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite),
	Notice: tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed),
}

// Rasterize draws render instructions into the viewport's cells of screen.
// Later instructions overwrite earlier ones, so markers land on top of the
// limbs that lead to them.
func Rasterize(screen tcell.Screen, v Viewport, theme Theme, instructions []skeleton.Instruction) {
	for _, in := range instructions {
		switch in.Op {
		case skeleton.OpLine:
			line(screen, v, theme.Limb, in.From, in.To)

		case skeleton.OpCircle:
			circle(screen, v, theme.Head, in.Center, in.Diameter/2)

		case skeleton.OpMarker:
			x, y := v.toGrid(in.At)
			if in.Root {
				plot(screen, v, x, y, runeRoot, theme.Root)
			} else {
				plot(screen, v, x, y, runeJoint, theme.Joint)
			}
		}
	}
}

func set(screen tcell.Screen, v Viewport, col, row int, r rune, style tcell.Style) {
	if !v.Contains(col, row) {
		return
	}
	screen.SetContent(col, row, r, nil, style)
}

// plot sets the cell at a fractional grid position. Positions off the grid
// are dropped before they are converted to ints.
func plot(screen tcell.Screen, v Viewport, x, y float64, r rune, style tcell.Style) {
	if !(x >= 0 && x < float64(v.Cols) && y >= 0 && y < float64(v.Rows)) {
		return
	}
	set(screen, v, int(x), int(y), r, style)
}

// line clips the segment to the grid, then walks the cells between the
// clipped endpoints with Bresenham's algorithm.
func line(screen tcell.Screen, v Viewport, style tcell.Style, from, to skeleton.Point) {
	x0, y0 := v.toGrid(from)
	x1, y1 := v.toGrid(to)

	x0, y0, x1, y1, ok := clip(x0, y0, x1, y1, -1, -1, float64(v.Cols+1), float64(v.Rows+1))
	if !ok {
		return
	}

	c0, r0 := int(math.Floor(x0)), int(math.Floor(y0))
	c1, r1 := int(math.Floor(x1)), int(math.Floor(y1))
	r := slopeRune(c1-c0, r1-r0)

	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr

	for {
		set(screen, v, c0, r0, r, style)
		if c0 == c1 && r0 == r1 {
			return
		}

		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

// clip trims a segment to the rectangle with Liang-Barsky. It reports false
// when nothing of the segment is inside or any coordinate is not finite.
func clip(x0, y0, x1, y1, xmin, ymin, xmax, ymax float64) (float64, float64, float64, float64, bool) {
	dx, dy := x1-x0, y1-y0
	for _, f := range []float64{x0, y0, dx, dy} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, 0, 0, 0, false
		}
	}

	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0 - xmin},
		{dx, xmax - x0},
		{-dy, y0 - ymin},
		{dy, ymax - y0},
	}
	for _, edge := range edges {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}

		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, t)
		}
	}

	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// slopeRune picks the character closest to the segment's direction. Rows
// grow downward, so a segment going right and down is a backslash.
func slopeRune(dc, dr int) rune {
	switch {
	case dc == 0 && dr == 0:
		return runeJoint
	case 2*abs(dr) < abs(dc):
		return '-'
	case 2*abs(dc) < abs(dr):
		return '|'
	case (dc > 0) == (dr > 0):
		return '\\'
	default:
		return '/'
	}
}

// circle samples the outline. Circles whose bounding box misses the grid are
// skipped, and the sample count never exceeds what the grid can show.
func circle(screen tcell.Screen, v Viewport, style tcell.Style, center skeleton.Point, radius float64) {
	cx, cy := v.toGrid(center)
	rx := radius / v.Scale
	ry := rx / cellAspect

	if !(cx+rx >= -1 && cx-rx <= float64(v.Cols+1) && cy+ry >= -1 && cy-ry <= float64(v.Rows+1)) {
		return
	}

	steps := int(math.Min(math.Max(16, 4*math.Pi*rx), float64(8*(v.Cols+v.Rows))))

	for i := range steps {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		plot(screen, v, cx+rx*math.Sin(theta), cy+ry*math.Cos(theta), runeCircle, style)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
