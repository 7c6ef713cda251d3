/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Seednode/charades/internal/skeleton"
)

type viewBox struct {
	X, Y, W, H float64
}

// figureBox is the square area that holds a figure of the given limb length
// in any pose reachable without moving the root.
func figureBox(center skeleton.Point, limbLength float64) viewBox {
	side := 5 * limbLength

	return viewBox{X: center.X - side/2, Y: center.Y - side/2, W: side, H: side}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// renderSVG draws the figure the same way the terminal viewer does: limbs
// first, markers on top, the root in red.
func renderSVG(s *skeleton.Skeleton, box viewBox, stroke float64, size int) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="%s %s %s %s">`,
		size, size, num(box.X), num(box.Y), num(box.W), num(box.H))
	fmt.Fprintf(&b, `<g stroke="#222" stroke-width="%s" stroke-linecap="round" fill="none">`, num(stroke))

	for in := range skeleton.Render(s) {
		switch in.Op {
		case skeleton.OpLine:
			fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s"/>`,
				num(in.From.X), num(in.From.Y), num(in.To.X), num(in.To.Y))

		case skeleton.OpCircle:
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s"/>`,
				num(in.Center.X), num(in.Center.Y), num(in.Diameter/2))

		case skeleton.OpMarker:
			fill := "#36c"
			if in.Root {
				fill = "#c33"
			}
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="%s" stroke="none"/>`,
				num(in.At.X), num(in.At.Y), num(stroke), fill)
		}
	}

	b.WriteString(`</g></svg>`)

	return b.String()
}
