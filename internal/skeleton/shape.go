/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

import "fmt"

// Shape decides how the limb between a joint and its parent is drawn.
// It has no effect on positions or hit-testing.
type Shape uint8

const (
	Line Shape = iota
	Circle
)

func (s Shape) String() string {
	switch s {
	case Line:
		return "line"
	case Circle:
		return "circle"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

func (s Shape) Valid() bool {
	return s == Line || s == Circle
}

// ParseShape is the inverse of String for the two known shapes.
func ParseShape(name string) (Shape, bool) {
	switch name {
	case "line":
		return Line, true
	case "circle":
		return Circle, true
	default:
		return 0, false
	}
}
