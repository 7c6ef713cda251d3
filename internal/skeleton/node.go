/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

// Node is implemented by the two kinds of tree member: the root (*Skeleton)
// and every *Joint. The unexported method keeps the set closed, so dragging
// can dispatch on the node without inspecting its concrete type.
type Node interface {
	X() float64
	Y() float64
	Position() Point
	SquaredDistanceTo(p Point) float64

	follow(target Point)
}
