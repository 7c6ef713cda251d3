/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

import (
	"fmt"
	"math"
)

// Pre-order ids of the joints produced by Generate.
const (
	JointRoot = iota
	JointTorso
	JointHead
	JointLeftUpperArm
	JointLeftHand
	JointRightUpperArm
	JointRightHand
	JointLeftUpperLeg
	JointLeftFoot
	JointRightUpperLeg
	JointRightFoot

	StickmanJoints
)

// Proportions relative to the base limb length.
const (
	headRatio = 0.5
	armRatio  = 0.6
	legRatio  = 0.75
)

// Angles are measured from the parent: 0 points down the screen, π points up.
// Left is toward negative x.
type bone struct {
	ratio    float64
	angle    float64
	shape    Shape
	children []bone
}

var stickman = []bone{
	{ratio: 1, angle: math.Pi, shape: Line, children: []bone{
		{ratio: headRatio, angle: math.Pi, shape: Circle},
		{ratio: armRatio, angle: -math.Pi / 4, shape: Line, children: []bone{
			{ratio: armRatio, angle: -math.Pi / 8, shape: Line},
		}},
		{ratio: armRatio, angle: math.Pi / 4, shape: Line, children: []bone{
			{ratio: armRatio, angle: math.Pi / 8, shape: Line},
		}},
	}},
	{ratio: legRatio, angle: -math.Pi / 8, shape: Line, children: []bone{
		{ratio: legRatio, angle: 0, shape: Line},
	}},
	{ratio: legRatio, angle: math.Pi / 8, shape: Line, children: []bone{
		{ratio: legRatio, angle: 0, shape: Line},
	}},
}

// Generate builds the canonical upright stick figure rooted at the hip. The
// same inputs always produce the same tree, so peers that start a round
// independently draw the same figure before any update arrives.
func Generate(center Point, limbLength float64) (*Skeleton, error) {
	if !isFinite(limbLength) || limbLength <= 0 {
		return nil, fmt.Errorf("%w: limb length %v must be positive", ErrInvalidGeometry, limbLength)
	}

	s, err := New(center)
	if err != nil {
		return nil, err
	}

	for _, b := range stickman {
		limb, err := s.Attach(b.ratio*limbLength, b.angle, b.shape)
		if err != nil {
			return nil, err
		}
		if err := attachBones(limb, b.children, limbLength); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func attachBones(parent *Joint, bones []bone, limbLength float64) error {
	for _, b := range bones {
		j, err := parent.Attach(b.ratio*limbLength, b.angle, b.shape)
		if err != nil {
			return err
		}
		if err := attachBones(j, b.children, limbLength); err != nil {
			return err
		}
	}

	return nil
}
