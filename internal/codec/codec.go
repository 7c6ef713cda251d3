/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Seednode/charades/internal/skeleton"
)

// MaxNodes bounds the size of a decoded tree.
const MaxNodes = 1024

var ErrMalformedPayload = errors.New("malformed payload")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}

// Encode serialises s. Node ids are pre-order positions, matching
// skeleton.Skeleton.Node.
func Encode(s *skeleton.Skeleton) ([]byte, error) {
	p, err := FromSkeleton(s)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode skeleton: %w", err)
	}

	return data, nil
}

func FromSkeleton(s *skeleton.Skeleton) (Payload, error) {
	if s == nil {
		return Payload{}, skeleton.ErrEmptySkeleton
	}

	origin := s.Origin()
	p := Payload{
		Origin: &Origin{X: &origin.X, Y: &origin.Y},
		Nodes:  []Node{{ID: ptr(0)}},
	}

	var add func(parent int, joints []*skeleton.Joint)
	add = func(parent int, joints []*skeleton.Joint) {
		for _, j := range joints {
			id := len(p.Nodes)
			p.Nodes = append(p.Nodes, Node{
				ID:       ptr(id),
				ParentID: ptr(parent),
				Length:   ptr(j.Length()),
				Angle:    ptr(j.Angle()),
				Shape:    j.Shape().String(),
			})
			add(id, j.Children())
		}
	}
	add(0, s.Limbs())

	return p, nil
}

// Decode rebuilds a skeleton from data. The payload is fully validated before
// anything is built, and on error no skeleton is returned, so a caller that
// only assigns on success never holds a partial tree.
func Decode(data []byte) (*skeleton.Skeleton, error) {
	if len(data) == 0 {
		return nil, malformed("empty")
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	return p.Skeleton()
}

// attacher is satisfied by both the root and joints.
type attacher interface {
	Attach(length, angle float64, shape skeleton.Shape) (*skeleton.Joint, error)
}

type entry struct {
	length, angle float64
	shape         skeleton.Shape
}

// Skeleton validates p and builds the tree it describes.
func (p Payload) Skeleton() (*skeleton.Skeleton, error) {
	if p.Origin == nil || p.Origin.X == nil || p.Origin.Y == nil {
		return nil, malformed("missing origin")
	}
	origin := skeleton.Point{X: *p.Origin.X, Y: *p.Origin.Y}
	if !finite(origin.X) || !finite(origin.Y) {
		return nil, malformed("origin is not finite")
	}

	switch {
	case len(p.Nodes) == 0:
		return nil, malformed("no nodes")
	case len(p.Nodes) > MaxNodes:
		return nil, malformed("%d nodes exceeds limit of %d", len(p.Nodes), MaxNodes)
	}

	entries := make(map[int]entry, len(p.Nodes))
	children := make(map[int][]int, len(p.Nodes))
	root := -1

	for i, n := range p.Nodes {
		if n.ID == nil {
			return nil, malformed("node %d: missing id", i)
		}
		id := *n.ID
		if _, dup := entries[id]; dup {
			return nil, malformed("node %d: duplicate id %d", i, id)
		}

		if n.ParentID == nil {
			if root >= 0 {
				return nil, malformed("node %d: second root", id)
			}
			root = id
			entries[id] = entry{}
			continue
		}

		if n.Length == nil || n.Angle == nil {
			return nil, malformed("node %d: missing length or angle", id)
		}
		if !finite(*n.Length) || !finite(*n.Angle) {
			return nil, malformed("node %d: non-finite length or angle", id)
		}
		if *n.Length <= 0 {
			return nil, malformed("node %d: length %v must be positive", id, *n.Length)
		}
		shape, ok := skeleton.ParseShape(n.Shape)
		if !ok {
			return nil, malformed("node %d: unknown shape %q", id, n.Shape)
		}

		entries[id] = entry{length: *n.Length, angle: *n.Angle, shape: shape}
		children[*n.ParentID] = append(children[*n.ParentID], id)
	}

	if root < 0 {
		return nil, malformed("no root")
	}
	for parent := range children {
		if _, ok := entries[parent]; !ok {
			return nil, malformed("parent %d does not exist", parent)
		}
	}

	s, err := skeleton.New(origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	built := 1
	var attach func(parent attacher, id int) error
	attach = func(parent attacher, id int) error {
		for _, child := range children[id] {
			e := entries[child]
			j, err := parent.Attach(e.length, e.angle, e.shape)
			if err != nil {
				return fmt.Errorf("%w: node %d: %w", ErrMalformedPayload, child, err)
			}
			built++
			if err := attach(j, child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := attach(s, root); err != nil {
		return nil, err
	}

	// Nodes on a parent cycle are never reached from the root.
	if built != len(p.Nodes) {
		return nil, malformed("%d of %d nodes are not connected to the root", len(p.Nodes)-built, len(p.Nodes))
	}

	return s, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func ptr[T any](v T) *T {
	return &v
}
