/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

import "iter"

type Op uint8

const (
	// OpLine is a straight segment from From to To.
	OpLine Op = iota
	// OpCircle is a circle of Diameter centred on Center.
	OpCircle
	// OpMarker is a joint dot at At; Root is set for the figure's origin.
	OpMarker
)

func (o Op) String() string {
	switch o {
	case OpLine:
		return "line"
	case OpCircle:
		return "circle"
	case OpMarker:
		return "marker"
	default:
		return "op(?)"
	}
}

// Instruction is one drawing step. Only the fields relevant to Op are set.
type Instruction struct {
	Op       Op
	From     Point
	To       Point
	Center   Point
	Diameter float64
	At       Point
	Root     bool
}

// Render describes how to draw s. The root is drawn as a marker only; every
// joint then contributes its limb followed by its marker, in pre-order with
// children in declaration order. The sequence is lazy and can be ranged over
// any number of times; each pass reads the tree as it is at that moment.
func Render(s *Skeleton) iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		if s == nil {
			return
		}
		if !yield(Instruction{Op: OpMarker, At: s.origin, Root: true}) {
			return
		}
		renderJoints(s.origin, s.limbs, yield)
	}
}

func renderJoints(from Point, joints []*Joint, yield func(Instruction) bool) bool {
	for _, j := range joints {
		to := j.Position()
		if !yield(limb(j, from, to)) {
			return false
		}
		if !yield(Instruction{Op: OpMarker, At: to}) {
			return false
		}
		if !renderJoints(to, j.children, yield) {
			return false
		}
	}

	return true
}

func limb(j *Joint, from, to Point) Instruction {
	if j.shape == Circle {
		return Instruction{
			Op:       OpCircle,
			Center:   Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2},
			Diameter: j.length,
		}
	}

	return Instruction{Op: OpLine, From: from, To: to}
}
