// Package curve computes cubic Bezier path data for connector rendering.
//
// A connector between two ports is drawn as a single cubic curve whose two
// control points are offset horizontally from the endpoints. The offset is
// proportional to the horizontal distance between the endpoints, scaled by a
// curvature factor. The Mode selects the sign policy for the offsets, which
// matters for multi-segment paths routed through waypoints: consecutive
// segments joined at a waypoint must curve in compatible directions or the
// joint looks kinked.
//
// All functions are pure: the same inputs always produce the same path
// string, and no state is kept between calls.
package curve

import (
	"math"
	"strconv"
	"strings"
)

// Mode selects the control-point sign policy for a curve segment.
type Mode int

const (
	// ModeSymmetric offsets both control points toward each other by the
	// same amount regardless of the relative x order of the endpoints.
	// Produces a smooth S or C shape. This is the default for standalone
	// connectors and interior waypoint segments.
	ModeSymmetric Mode = iota

	// ModeOpen keeps the start-side offset fixed and flips the end-side
	// offset when the start lies right of the end. Used for the final
	// segment of a rerouted path.
	ModeOpen

	// ModeClose keeps the end-side offset fixed and flips the start-side
	// offset when the start lies right of the end. Used for the first
	// segment of a rerouted path.
	ModeClose
)

// Path returns SVG path data for a cubic Bezier from (x1,y1) to (x2,y2).
// The control points sit at the endpoint y coordinates, offset horizontally
// by curvature*|x2-x1| with signs chosen by mode.
func Path(x1, y1, x2, y2, curvature float64, mode Mode) string {
	offset := math.Abs(x1-x2) * curvature

	var hx1, hx2 float64
	switch mode {
	case ModeOpen:
		hx1 = x1 + offset
		if x1 >= x2 {
			hx2 = x2 + offset
		} else {
			hx2 = x2 - offset
		}
	case ModeClose:
		if x1 >= x2 {
			hx1 = x1 - offset
		} else {
			hx1 = x1 + offset
		}
		hx2 = x2 - offset
	default:
		hx1 = x1 + offset
		hx2 = x2 - offset
	}

	var b strings.Builder
	b.WriteString("M ")
	writeCoord(&b, x1, y1)
	b.WriteString(" C ")
	writeCoord(&b, hx1, y1)
	b.WriteByte(' ')
	writeCoord(&b, hx2, y2)
	b.WriteByte(' ')
	writeCoord(&b, x2, y2)
	return b.String()
}

func writeCoord(b *strings.Builder, x, y float64) {
	b.WriteString(fmtFloat(x))
	b.WriteByte(' ')
	b.WriteString(fmtFloat(y))
}

// fmtFloat renders a coordinate with minimal digits, avoiding the "-0"
// artifact that breaks string comparison of otherwise identical paths.
func fmtFloat(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
