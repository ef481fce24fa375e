// Package viewport owns the pan/zoom transform of the canvas surface.
//
// The canvas is a fixed CanvasSize x CanvasSize square in canvas space. The
// viewport maps it to screen space as screen = canvas*Zoom + (X, Y) and is kept
// clamped so the scaled canvas always covers the whole visible area.
package viewport

import (
	"math"

	"image-workspace/pkg/geometry"
)

const (
	// CanvasSize is the side of the logical canvas square.
	CanvasSize = 5000.0

	// MaxZoom is the largest allowed zoom factor.
	MaxZoom = 5.0

	// MinZoomFloor is the smallest zoom allowed regardless of viewport size.
	MinZoomFloor = 0.1
)

// State is the affine transform applied to the canvas surface.
type State struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Controller owns the viewport state for one mounted canvas.
type Controller struct {
	state  State
	width  float64
	height float64

	onChange func(State)
}

// New creates a controller for a visible area of the given pixel size, at zoom 1
// with the canvas origin in the top-left corner.
func New(width, height float64) *Controller {
	c := &Controller{
		state:  State{Zoom: 1},
		width:  math.Max(width, 0),
		height: math.Max(height, 0),
	}
	c.state = c.clamped(c.state)
	return c
}

// OnChange sets the callback invoked after every committed viewport change.
func (c *Controller) OnChange(callback func(State)) {
	c.onChange = callback
}

// State returns the current viewport state.
func (c *Controller) State() State {
	return c.state
}

// Zoom returns the current zoom factor.
func (c *Controller) Zoom() float64 {
	return c.state.Zoom
}

// Size returns the visible area size in screen pixels.
func (c *Controller) Size() geometry.Size {
	return geometry.NewSize(c.width, c.height)
}

// MinZoom returns the smallest zoom at which the canvas still covers the
// visible area.
func (c *Controller) MinZoom() float64 {
	return math.Max(math.Max(c.width/CanvasSize, c.height/CanvasSize), MinZoomFloor)
}

// SetSize updates the visible area size (a resize event) and re-clamps.
func (c *Controller) SetSize(width, height float64) bool {
	width = math.Max(width, 0)
	height = math.Max(height, 0)
	if width == c.width && height == c.height {
		return false
	}
	c.width, c.height = width, height
	return c.commit(c.state)
}

// Pan moves the canvas by a screen-space delta.
func (c *Controller) Pan(dx, dy float64) bool {
	next := c.state
	next.X += dx
	next.Y += dy
	return c.commit(next)
}

// ZoomAt changes the zoom by delta while keeping the canvas point under
// screenPoint fixed on screen.
func (c *Controller) ZoomAt(screenPoint geometry.Point2D, delta float64) bool {
	return c.ZoomTo(screenPoint, c.state.Zoom+delta)
}

// ZoomTo sets the zoom to an absolute value anchored at screenPoint.
func (c *Controller) ZoomTo(screenPoint geometry.Point2D, zoom float64) bool {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return false
	}
	anchor := c.ScreenToCanvas(screenPoint)
	newZoom := clampFloat(zoom, c.MinZoom(), MaxZoom)
	if newZoom == c.state.Zoom {
		return false
	}
	return c.commit(State{
		X:    screenPoint.X - anchor.X*newZoom,
		Y:    screenPoint.Y - anchor.Y*newZoom,
		Zoom: newZoom,
	})
}

// Clamp re-applies the zoom and coverage limits to the current state.
func (c *Controller) Clamp() bool {
	return c.commit(c.state)
}

// CenterOn resets zoom to 1 and centers the canvas in the visible area.
func (c *Controller) CenterOn() bool {
	return c.commit(State{
		X:    (c.width - CanvasSize) / 2,
		Y:    (c.height - CanvasSize) / 2,
		Zoom: 1,
	})
}

// CenterOnPoint scrolls so the given canvas point sits in the middle of the
// visible area, keeping the zoom.
func (c *Controller) CenterOnPoint(p geometry.Point2D) bool {
	z := c.state.Zoom
	return c.commit(State{
		X:    c.width/2 - p.X*z,
		Y:    c.height/2 - p.Y*z,
		Zoom: z,
	})
}

// Restore applies a previously committed state, clamped to the current size.
func (c *Controller) Restore(s State) bool {
	if s.Zoom <= 0 || math.IsNaN(s.Zoom) {
		return false
	}
	return c.commit(s)
}

// ScreenToCanvas converts a point in screen space to canvas space.
func (c *Controller) ScreenToCanvas(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X - c.state.X) / c.state.Zoom,
		Y: (p.Y - c.state.Y) / c.state.Zoom,
	}
}

// CanvasToScreen converts a point in canvas space to screen space.
func (c *Controller) CanvasToScreen(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: p.X*c.state.Zoom + c.state.X,
		Y: p.Y*c.state.Zoom + c.state.Y,
	}
}

// Transform returns the canvas-to-screen transform.
func (c *Controller) Transform() geometry.AffineTransform {
	return geometry.Translation(c.state.X, c.state.Y).
		Compose(geometry.Scale(c.state.Zoom, c.state.Zoom))
}

// CanvasBounds returns the canvas square in screen space.
func (c *Controller) CanvasBounds() geometry.Rect {
	return c.Transform().ApplyRect(geometry.NewRect(0, 0, CanvasSize, CanvasSize))
}

// VisibleRect returns the visible area in canvas space.
func (c *Controller) VisibleRect() geometry.Rect {
	inv, ok := c.Transform().Inverse()
	if !ok {
		return geometry.Rect{}
	}
	return inv.ApplyRect(geometry.NewRect(0, 0, c.width, c.height))
}

// Frame zooms and scrolls so r, in canvas space, fills the visible area with
// padding screen pixels on each side. The zoom limits still apply.
func (c *Controller) Frame(r geometry.Rect, padding float64) bool {
	if r.Empty() || c.width <= 0 || c.height <= 0 {
		return false
	}
	availW := math.Max(c.width-2*padding, 1)
	availH := math.Max(c.height-2*padding, 1)
	z := clampFloat(math.Min(availW/r.Width, availH/r.Height), c.MinZoom(), MaxZoom)
	center := r.Center()
	return c.commit(State{
		X:    c.width/2 - center.X*z,
		Y:    c.height/2 - center.Y*z,
		Zoom: z,
	})
}

// commit clamps next and stores it, notifying the listener if anything changed.
func (c *Controller) commit(next State) bool {
	next = c.clamped(next)
	if next == c.state {
		return false
	}
	c.state = next
	if c.onChange != nil {
		c.onChange(next)
	}
	return true
}

func (c *Controller) clamped(s State) State {
	s.Zoom = clampFloat(s.Zoom, c.MinZoom(), MaxZoom)
	scaled := CanvasSize * s.Zoom
	s.X = clampFloat(s.X, c.width-scaled, 0)
	s.Y = clampFloat(s.Y, c.height-scaled, 0)
	return s
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
