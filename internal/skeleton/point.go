/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

import "math"

// Point is a 2D coordinate in canvas space, with y growing downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// SquaredDistanceTo avoids the square root; it is only ever compared.
func (p Point) SquaredDistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

func (p Point) finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
