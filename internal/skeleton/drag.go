/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

// Drag moves n toward target. The root is translated to target; a joint is
// turned to face target from its parent, keeping its length. Only n itself
// is written to; descendants follow because their positions are derived.
// Nothing is clamped.
func Drag(n Node, target Point) {
	if n == nil {
		return
	}
	n.follow(target)
}
