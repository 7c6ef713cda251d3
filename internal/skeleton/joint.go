/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

import (
	"fmt"
	"math"
)

// Joint is a point in the tree positioned relative to its parent by a fixed
// limb length and a mutable angle. The world position is never stored; every
// read walks the parent chain, so changing an ancestor moves the whole subtree.
type Joint struct {
	length   float64
	angle    float64
	shape    Shape
	children []*Joint

	// parent is used to resolve the world position only; children are owned
	// by their parent's slice, not by this reference.
	parent Node
}

func newJoint(parent Node, length, angle float64, shape Shape) (*Joint, error) {
	if !isFinite(length) || length <= 0 {
		return nil, fmt.Errorf("%w: length %v must be positive", ErrInvalidGeometry, length)
	}
	if !isFinite(angle) {
		return nil, fmt.Errorf("%w: angle %v is not finite", ErrInvalidGeometry, angle)
	}
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: unknown %s", ErrInvalidGeometry, shape)
	}

	return &Joint{
		length: length,
		angle:  angle,
		shape:  shape,
		parent: parent,
	}, nil
}

// Attach appends a child joint after any existing children.
func (j *Joint) Attach(length, angle float64, shape Shape) (*Joint, error) {
	child, err := newJoint(j, length, angle, shape)
	if err != nil {
		return nil, err
	}
	j.children = append(j.children, child)

	return child, nil
}

func (j *Joint) Length() float64 { return j.length }
func (j *Joint) Angle() float64  { return j.angle }
func (j *Joint) Shape() Shape    { return j.shape }
func (j *Joint) Parent() Node    { return j.parent }

// Children is returned in declaration order and must not be modified.
func (j *Joint) Children() []*Joint { return j.children }

// SetAngle stores the angle and does nothing else.
func (j *Joint) SetAngle(angle float64) {
	j.angle = angle
}

func (j *Joint) X() float64 {
	return j.parent.X() + j.length*math.Sin(j.angle)
}

func (j *Joint) Y() float64 {
	return j.parent.Y() + j.length*math.Cos(j.angle)
}

func (j *Joint) Position() Point {
	p := j.parent.Position()
	return Point{
		X: p.X + j.length*math.Sin(j.angle),
		Y: p.Y + j.length*math.Cos(j.angle),
	}
}

func (j *Joint) SquaredDistanceTo(p Point) float64 {
	return j.Position().SquaredDistanceTo(p)
}

// follow turns the joint to face target from its parent's current position.
// The length is rigid; descendants move with it on their next read.
func (j *Joint) follow(target Point) {
	p := j.parent.Position()
	j.angle = math.Atan2(target.X-p.X, target.Y-p.Y)
}
