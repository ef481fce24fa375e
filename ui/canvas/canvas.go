// Package canvas provides the fyne widget hosting the workspace canvas.
package canvas

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"image-workspace/internal/app"
	"image-workspace/internal/interaction"
	"image-workspace/internal/render"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
)

// wheelScale converts fyne scroll steps to wheel deltas.
const wheelScale = 10.0

// WorkspaceCanvas forwards pointer, wheel and resize events to an interaction
// machine and draws the resulting scene.
type WorkspaceCanvas struct {
	widget.BaseWidget

	mu       sync.Mutex
	state    *app.State
	machine  *interaction.Machine
	renderer *render.Renderer
	raster   *fynecanvas.Raster

	pressed bool
	last    geometry.Point2D

	onToolChange func(interaction.Tool)
}

// New creates a canvas widget over state driven by machine.
func New(state *app.State, machine *interaction.Machine) *WorkspaceCanvas {
	c := &WorkspaceCanvas{
		state:    state,
		machine:  machine,
		renderer: render.NewRenderer(),
	}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScalePixels
	c.ExtendBaseWidget(c)
	return c
}

// OnToolChange sets the callback invoked after SetTool.
func (c *WorkspaceCanvas) OnToolChange(callback func(interaction.Tool)) {
	c.onToolChange = callback
}

// SetTool switches the active tool.
func (c *WorkspaceCanvas) SetTool(t interaction.Tool) {
	c.mu.Lock()
	c.machine.SetTool(t)
	c.mu.Unlock()
	if c.onToolChange != nil {
		c.onToolChange(t)
	}
	c.Refresh()
}

// Tool returns the active tool.
func (c *WorkspaceCanvas) Tool() interaction.Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Tool()
}

// Cancel abandons the current interaction (Escape).
func (c *WorkspaceCanvas) Cancel() {
	c.mu.Lock()
	c.machine.Cancel()
	c.mu.Unlock()
	c.Refresh()
}

// WithViewport runs fn with exclusive access to the viewport controller.
func (c *WorkspaceCanvas) WithViewport(fn func(v *viewport.Controller)) {
	c.mu.Lock()
	fn(c.machine.Viewport())
	c.mu.Unlock()
	c.Refresh()
}

// Forget drops per-image resources of a removed image.
func (c *WorkspaceCanvas) Forget(imageID string) {
	c.mu.Lock()
	c.machine.Masks().Release(imageID)
	c.mu.Unlock()
	c.Refresh()
}

// VisibleCenter returns the canvas-space point at the center of the widget.
func (c *WorkspaceCanvas) VisibleCenter() geometry.Point2D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Viewport().VisibleRect().Center()
}

// Snapshot renders the current scene at widget resolution.
func (c *WorkspaceCanvas) Snapshot() image.Image {
	size := c.Size()
	return c.draw(int(size.Width), int(size.Height))
}

// Refresh redraws the canvas.
func (c *WorkspaceCanvas) Refresh() {
	c.raster.Refresh()
}

// Resize keeps the viewport in sync with the widget size.
func (c *WorkspaceCanvas) Resize(size fyne.Size) {
	c.BaseWidget.Resize(size)
	c.mu.Lock()
	c.machine.Viewport().SetSize(float64(size.Width), float64(size.Height))
	c.mu.Unlock()
	c.Refresh()
}

// MinSize returns a usable minimum canvas size.
func (c *WorkspaceCanvas) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

// CreateRenderer implements fyne.Widget.
func (c *WorkspaceCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MouseDown implements desktop.Mouseable.
func (c *WorkspaceCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	p := toPoint(ev.Position)
	c.mu.Lock()
	c.pressed = true
	c.last = p
	c.machine.PointerDown(p)
	c.mu.Unlock()
	c.Refresh()
}

// MouseUp implements desktop.Mouseable.
func (c *WorkspaceCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.release(toPoint(ev.Position))
}

// Dragged implements fyne.Draggable.
func (c *WorkspaceCanvas) Dragged(ev *fyne.DragEvent) {
	c.move(toPoint(ev.Position))
}

// DragEnd implements fyne.Draggable. Some drivers deliver DragEnd instead of
// MouseUp when the button is released after a drag.
func (c *WorkspaceCanvas) DragEnd() {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	c.release(last)
}

// MouseIn implements desktop.Hoverable.
func (c *WorkspaceCanvas) MouseIn(ev *desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable.
func (c *WorkspaceCanvas) MouseMoved(ev *desktop.MouseEvent) {
	c.move(toPoint(ev.Position))
}

// MouseOut implements desktop.Hoverable.
func (c *WorkspaceCanvas) MouseOut() {}

// Scrolled implements fyne.Scrollable: the wheel zooms at the pointer.
func (c *WorkspaceCanvas) Scrolled(ev *fyne.ScrollEvent) {
	c.mu.Lock()
	changed := c.machine.Wheel(toPoint(ev.Position), -float64(ev.Scrolled.DY)*wheelScale)
	c.mu.Unlock()
	if changed {
		c.Refresh()
	}
}

func (c *WorkspaceCanvas) move(p geometry.Point2D) {
	c.mu.Lock()
	c.last = p
	c.machine.PointerMove(p)
	c.mu.Unlock()
	c.Refresh()
}

func (c *WorkspaceCanvas) release(p geometry.Point2D) {
	c.mu.Lock()
	if !c.pressed {
		c.mu.Unlock()
		return
	}
	c.pressed = false
	c.machine.PointerUp(p)
	c.mu.Unlock()
	c.Refresh()
}

// draw is the raster drawing function. w and h are in device pixels.
func (c *WorkspaceCanvas) draw(w, h int) image.Image {
	c.mu.Lock()
	scene := render.BuildScene(c.state.Images(), c.state.Selected(), c.machine.Viewport(), c.machine)
	c.mu.Unlock()

	if size := c.Size(); size.Width > 0 {
		s := float64(w) / float64(size.Width)
		v := scene.Viewport
		scene.Viewport = viewport.State{X: v.X * s, Y: v.Y * s, Zoom: v.Zoom * s}
	}
	return c.renderer.Draw(scene, w, h)
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.NewPoint2D(float64(p.X), float64(p.Y))
}
