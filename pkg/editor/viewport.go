package editor

import "github.com/flowgrid/flowgrid/pkg/flow"

// Viewport tracks the zoom level and canvas pan offset of one editor
// session and converts between screen and logical canvas coordinates.
type Viewport struct {
	zoom     float64
	zoomMin  float64
	zoomMax  float64
	zoomStep float64
	pan      flow.Position
	origin   flow.Position // canvas element's bounding-box origin in screen coordinates
}

// NewViewport creates a viewport at zoom 1.0 with zero pan.
func NewViewport(opts Options) *Viewport {
	return &Viewport{
		zoom:     1.0,
		zoomMin:  opts.ZoomMin,
		zoomMax:  opts.ZoomMax,
		zoomStep: opts.ZoomStep,
	}
}

// Zoom returns the current zoom level.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan returns the current canvas pan offset in screen units.
func (v *Viewport) Pan() flow.Position { return v.pan }

// SetOrigin records where the canvas element sits in screen coordinates.
// Hosts with a real rendering surface call this whenever the surface moves
// or resizes; headless hosts can leave it at zero.
func (v *Viewport) SetOrigin(x, y float64) {
	v.origin = flow.Position{X: x, Y: y}
}

// SetPan replaces the pan offset.
func (v *Viewport) SetPan(p flow.Position) { v.pan = p }

// ZoomIn raises zoom by one step, clamped to the maximum. Reports whether
// the level changed.
func (v *Viewport) ZoomIn() bool { return v.setZoom(v.zoom + v.zoomStep) }

// ZoomOut lowers zoom by one step, clamped to the minimum. Reports whether
// the level changed.
func (v *Viewport) ZoomOut() bool { return v.setZoom(v.zoom - v.zoomStep) }

// Reset restores zoom 1.0, rescaling the pan like any other zoom change.
// Reports whether the level changed.
func (v *Viewport) Reset() bool { return v.setZoom(1.0) }

// setZoom clamps and applies a new zoom level, scaling the existing pan by
// zoom/previousZoom. This keeps the visual center stable relative to the
// prior pan; it is deliberately not point-under-cursor zoom.
func (v *Viewport) setZoom(z float64) bool {
	if z < v.zoomMin {
		z = v.zoomMin
	}
	if z > v.zoomMax {
		z = v.zoomMax
	}
	if z == v.zoom {
		return false
	}
	prev := v.zoom
	v.zoom = z
	v.pan.X = v.pan.X * z / prev
	v.pan.Y = v.pan.Y * z / prev
	return true
}

// ScreenToCanvas converts a screen-space pointer position into logical
// canvas coordinates by inverting the pan and zoom transform relative to
// the canvas element's bounding box.
func (v *Viewport) ScreenToCanvas(sx, sy float64) flow.Position {
	return flow.Position{
		X: (sx - v.origin.X - v.pan.X) / v.zoom,
		Y: (sy - v.origin.Y - v.pan.Y) / v.zoom,
	}
}

// CanvasToScreen is the forward transform, useful to hosts positioning
// overlay chrome next to logical coordinates.
func (v *Viewport) CanvasToScreen(p flow.Position) (float64, float64) {
	return p.X*v.zoom + v.pan.X + v.origin.X, p.Y*v.zoom + v.pan.Y + v.origin.Y
}
