/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

import (
	"fmt"
	"iter"
	"math"
)

// Skeleton is the root of a stick figure: an origin in world space and the
// limbs attached directly to it.
type Skeleton struct {
	origin Point
	limbs  []*Joint
}

func New(origin Point) (*Skeleton, error) {
	if !origin.finite() {
		return nil, fmt.Errorf("%w: origin %v is not finite", ErrInvalidGeometry, origin)
	}

	return &Skeleton{origin: origin}, nil
}

// Attach appends a top-level limb after any existing ones.
func (s *Skeleton) Attach(length, angle float64, shape Shape) (*Joint, error) {
	limb, err := newJoint(s, length, angle, shape)
	if err != nil {
		return nil, err
	}
	s.limbs = append(s.limbs, limb)

	return limb, nil
}

func (s *Skeleton) Origin() Point { return s.origin }

// Limbs is returned in declaration order and must not be modified.
func (s *Skeleton) Limbs() []*Joint { return s.limbs }

// MoveTo translates the whole figure.
func (s *Skeleton) MoveTo(p Point) {
	s.origin = p
}

func (s *Skeleton) X() float64      { return s.origin.X }
func (s *Skeleton) Y() float64      { return s.origin.Y }
func (s *Skeleton) Position() Point { return s.origin }

func (s *Skeleton) SquaredDistanceTo(p Point) float64 {
	return s.origin.SquaredDistanceTo(p)
}

func (s *Skeleton) follow(target Point) {
	s.origin = target
}

// Nodes yields the root followed by every joint in pre-order, children in
// declaration order. The position of a node in this sequence is its id.
func (s *Skeleton) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if !yield(s) {
			return
		}
		walk(s.limbs, func(j *Joint) bool { return yield(j) })
	}
}

func walk(joints []*Joint, fn func(*Joint) bool) bool {
	for _, j := range joints {
		if !fn(j) || !walk(j.children, fn) {
			return false
		}
	}

	return true
}

// Len counts the root and every joint.
func (s *Skeleton) Len() int {
	n := 0
	for range s.Nodes() {
		n++
	}

	return n
}

// Node returns the node with the given pre-order id; 0 is the root.
func (s *Skeleton) Node(id int) (Node, bool) {
	if id < 0 {
		return nil, false
	}

	i := 0
	for n := range s.Nodes() {
		if i == id {
			return n, true
		}
		i++
	}

	return nil, false
}

// Joint is Node for callers that know id is not the root.
func (s *Skeleton) Joint(id int) (*Joint, bool) {
	n, ok := s.Node(id)
	if !ok {
		return nil, false
	}
	j, ok := n.(*Joint)

	return j, ok
}

// Equal reports whether a and b have the same topology and shapes, lengths and
// angles within tolerance. Origins must match exactly.
func Equal(a, b *Skeleton, tolerance float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.origin != b.origin {
		return false
	}

	return equalJoints(a.limbs, b.limbs, tolerance)
}

func equalJoints(a, b []*Joint, tolerance float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.shape != y.shape ||
			math.Abs(x.length-y.length) > tolerance ||
			math.Abs(x.angle-y.angle) > tolerance {
			return false
		}
		if !equalJoints(x.children, y.children, tolerance) {
			return false
		}
	}

	return true
}
