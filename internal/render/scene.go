// Package render lays out and rasterizes the canvas: images, their selection
// and mask overlays, and the lineage and link arrows between them.
package render

import (
	stdimage "image"

	"image-workspace/internal/image"
	"image-workspace/internal/interaction"
	"image-workspace/internal/links"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
)

// ArrowSize is the barb length of arrowheads, in screen pixels.
const ArrowSize = 12.0

// ArrowKind selects how an arrow is drawn.
type ArrowKind int

const (
	ArrowLineage ArrowKind = iota // dashed, parent to derived
	ArrowLink                     // solid, link source to target
	ArrowPreview                  // dashed, link in progress
)

// Arrow is a connector in canvas space.
type Arrow struct {
	From, To geometry.Point2D
	Kind     ArrowKind
}

// Head returns the two barb points of the arrowhead at To for the given zoom.
func (a Arrow) Head(zoom float64) (left, right geometry.Point2D) {
	if zoom <= 0 {
		zoom = 1
	}
	return geometry.Arrowhead(a.From, a.To, ArrowSize/zoom)
}

// Selection is a selection rectangle in canvas space.
type Selection struct {
	ImageID string
	Rect    geometry.Rect
	Pending bool // still being dragged out
}

// Scene is everything needed to draw one frame.
type Scene struct {
	Viewport     viewport.State
	CanvasBounds geometry.Rect  // canvas space
	Visible      geometry.Rect  // canvas space; images outside it are skipped
	Images       []*image.Image // bottom to top
	SelectedID   string
	Arrows       []Arrow
	Selections   []Selection

	// LiveMasks holds in-progress brush surfaces keyed by image id.
	LiveMasks map[string]stdimage.Image
}

// BuildScene lays out a frame from the store contents and the interaction
// state. m may be nil for a static snapshot.
func BuildScene(images []*image.Image, selectedID string, view *viewport.Controller, m *interaction.Machine) Scene {
	scene := Scene{
		Viewport:     view.State(),
		CanvasBounds: geometry.NewRect(0, 0, viewport.CanvasSize, viewport.CanvasSize),
		Visible:      view.VisibleRect(),
		Images:       images,
		SelectedID:   selectedID,
		LiveMasks:    make(map[string]stdimage.Image),
	}

	byID := make(map[string]*image.Image, len(images))
	for _, img := range images {
		byID[img.ID] = img
	}

	for _, e := range links.Edges(images) {
		from, to := geometry.Connector(byID[e.From].Bounds(), byID[e.To].Bounds())
		kind := ArrowLink
		if e.Kind == links.EdgeLineage {
			kind = ArrowLineage
		}
		scene.Arrows = append(scene.Arrows, Arrow{From: from, To: to, Kind: kind})
	}

	for _, img := range images {
		if img.Selection != nil {
			scene.Selections = append(scene.Selections, Selection{
				ImageID: img.ID,
				Rect:    img.Selection.Translate(geometry.NewPoint2D(img.X, img.Y)),
			})
		}
	}

	if m == nil {
		return scene
	}

	if id, rect, ok := m.PendingSelection(); ok {
		if img, found := byID[id]; found {
			scene.Selections = append(scene.Selections, Selection{
				ImageID: id,
				Rect:    rect.Translate(geometry.NewPoint2D(img.X, img.Y)),
				Pending: true,
			})
		}
	}
	if from, to, ok := m.LinkPreview(); ok {
		scene.Arrows = append(scene.Arrows, Arrow{From: from, To: to, Kind: ArrowPreview})
	}
	if b, ok := m.State().(interaction.Brushing); ok {
		if p, found := m.Masks().Get(b.ImageID); found {
			if snap := p.Snapshot(); snap != nil {
				scene.LiveMasks[b.ImageID] = snap
			}
		}
	}
	return scene
}
