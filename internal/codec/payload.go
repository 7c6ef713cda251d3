/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codec

// Payload is the wire form of a skeleton: the root position plus every node
// in pre-order. The root is node 0 and the only one without a parent.
type Payload struct {
	Origin *Origin `json:"origin" jsonschema:"title=Origin,description=World position of the root"`
	Nodes  []Node  `json:"nodes" jsonschema:"title=Nodes,description=Root first then every joint in pre-order,minItems=1,maxItems=1024"`
}

type Origin struct {
	X *float64 `json:"x" jsonschema:"title=X"`
	Y *float64 `json:"y" jsonschema:"title=Y"`
}

// Node describes one tree member. Joints carry length, angle and shape;
// the root carries only its id.
type Node struct {
	ID       *int     `json:"id" jsonschema:"title=Node id,minimum=0"`
	ParentID *int     `json:"parentId" jsonschema:"title=Parent id,description=null for the root,oneof_type=integer;null"`
	Length   *float64 `json:"length,omitempty" jsonschema:"title=Limb length,exclusiveMinimum=0"`
	Angle    *float64 `json:"angle,omitempty" jsonschema:"title=Angle,description=Radians measured from the parent"`
	Shape    string   `json:"shape,omitempty" jsonschema:"title=Limb shape,enum=line,enum=circle"`
}
