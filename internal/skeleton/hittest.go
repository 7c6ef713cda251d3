/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

// Nearest returns the node whose world position is closest to p, root
// included. Nodes are visited in pre-order and only a strictly smaller
// distance replaces the current best, so on an exact tie the node visited
// first wins.
func Nearest(s *Skeleton, p Point) (Node, error) {
	if s == nil {
		if debug {
			panic(ErrEmptySkeleton)
		}
		return nil, ErrEmptySkeleton
	}

	var best Node
	bestDistance := 0.0

	for n := range s.Nodes() {
		d := n.SquaredDistanceTo(p)
		if best == nil || d < bestDistance {
			best = n
			bestDistance = d
		}
	}

	return best, nil
}
