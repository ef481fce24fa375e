package interaction

import (
	"log"

	"image-workspace/internal/app"
	"image-workspace/internal/image"
	"image-workspace/internal/mask"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
)

// DefaultWheelSensitivity converts wheel deltaY to a zoom delta.
const DefaultWheelSensitivity = 0.001

// Store is the image store the machine reads and proposes updates to.
type Store interface {
	Images() []*image.Image
	Image(id string) (*image.Image, bool)
	Apply(u app.Update) error
	Select(id string)
	BringToFront(id string) bool
}

// Linker commits links between images.
type Linker interface {
	Link(sourceID, targetID string) (bool, error)
}

// Machine is the pointer-driven interaction state machine of one canvas.
type Machine struct {
	store Store
	links Linker
	view  *viewport.Controller
	masks *mask.Surfaces

	tool        Tool
	state       State
	pointer     geometry.Point2D // last known pointer position, screen space
	sensitivity float64

	onUpscale func(imageID string)
}

// New creates a machine in the Idle state with no tool.
func New(store Store, links Linker, view *viewport.Controller, masks *mask.Surfaces) *Machine {
	return &Machine{
		store:       store,
		links:       links,
		view:        view,
		masks:       masks,
		state:       Idle{},
		sensitivity: DefaultWheelSensitivity,
	}
}

// SetWheelSensitivity sets the wheel deltaY to zoom factor.
func (m *Machine) SetWheelSensitivity(s float64) {
	if s > 0 {
		m.sensitivity = s
	}
}

// OnUpscale sets the callback invoked when the upscale tool hits an image.
func (m *Machine) OnUpscale(callback func(imageID string)) {
	m.onUpscale = callback
}

// Viewport returns the controller the machine drives.
func (m *Machine) Viewport() *viewport.Controller {
	return m.view
}

// Masks returns the mask surfaces the machine paints on.
func (m *Machine) Masks() *mask.Surfaces {
	return m.masks
}

// Tool returns the active tool.
func (m *Machine) Tool() Tool {
	return m.tool
}

// State returns the current interaction state.
func (m *Machine) State() State {
	return m.state
}

// Pointer returns the last pointer position in canvas space.
func (m *Machine) Pointer() geometry.Point2D {
	return m.view.ScreenToCanvas(m.pointer)
}

// SetTool switches tools, abandoning whatever interaction was in progress.
func (m *Machine) SetTool(t Tool) {
	if t == m.tool {
		return
	}
	m.Cancel()
	m.tool = t
}

// Cancel abandons the current interaction without committing it.
func (m *Machine) Cancel() {
	switch s := m.state.(type) {
	case Brushing:
		if p, ok := m.masks.Get(s.ImageID); ok {
			p.End()
			if img, ok := m.store.Image(s.ImageID); ok {
				p.Prime(img.Mask)
			}
		}
	case Linking:
		log.Printf("Interaction: link from %s cancelled", s.SourceID)
	}
	m.state = Idle{}
}

// PointerDown starts an interaction at a screen position.
func (m *Machine) PointerDown(screen geometry.Point2D) {
	if _, ok := m.state.(Linking); !ok {
		m.Cancel()
	}
	m.pointer = screen
	at := m.view.ScreenToCanvas(screen)
	hit := m.hitTest(at)

	if hit == nil {
		if _, ok := m.state.(Linking); ok {
			m.Cancel()
		}
		m.store.Select("")
		m.masks.Retain(nil)
		m.state = Panning{Last: screen}
		return
	}

	switch m.tool {
	case ToolSelect:
		m.selectImage(hit)
		m.state = Selecting{
			ImageID: hit.ID,
			Start:   hit.LocalBounds().ClampPoint(hit.ToLocal(at)),
		}

	case ToolBrush:
		m.selectImage(hit)
		p := m.masks.Acquire(hit)
		if !p.Begin(hit.LocalBounds().ClampPoint(hit.ToLocal(at))) {
			// Surface missing or still loading its stored mask.
			m.state = Idle{}
			return
		}
		m.state = Brushing{ImageID: hit.ID}

	case ToolLink:
		s, linking := m.state.(Linking)
		if !linking {
			m.selectImage(hit)
			m.state = Linking{SourceID: hit.ID}
			return
		}
		if s.SourceID == hit.ID {
			return
		}
		if _, err := m.links.Link(s.SourceID, hit.ID); err != nil {
			log.Printf("Interaction: link %s -> %s failed: %v", s.SourceID, hit.ID, err)
		}
		m.state = Idle{}

	case ToolUpscale:
		if m.onUpscale != nil {
			m.onUpscale(hit.ID)
		}
		m.state = Idle{}

	default:
		m.selectImage(hit)
		m.store.BringToFront(hit.ID)
		m.state = Dragging{
			ImageID: hit.ID,
			Offset:  at.Sub(geometry.NewPoint2D(hit.X, hit.Y)),
		}
	}
}

// PointerMove continues the current interaction.
func (m *Machine) PointerMove(screen geometry.Point2D) {
	m.pointer = screen
	at := m.view.ScreenToCanvas(screen)

	switch s := m.state.(type) {
	case Panning:
		m.view.Pan(screen.X-s.Last.X, screen.Y-s.Last.Y)
		m.state = Panning{Last: screen}

	case Dragging:
		pos := at.Sub(s.Offset)
		if err := m.store.Apply(app.Update{ID: s.ImageID, Position: &pos}); err != nil {
			m.state = Idle{}
		}

	case Selecting:
		img, ok := m.store.Image(s.ImageID)
		if !ok {
			m.state = Idle{}
			return
		}
		r := geometry.RectFromPoints(s.Start, img.LocalBounds().ClampPoint(img.ToLocal(at)))
		s.Rect = &r
		m.state = s

	case Brushing:
		img, ok := m.store.Image(s.ImageID)
		if !ok {
			m.state = Idle{}
			return
		}
		if p, ok := m.masks.Get(s.ImageID); ok {
			p.StrokeTo(img.LocalBounds().ClampPoint(img.ToLocal(at)))
		}
	}
}

// PointerUp commits the current interaction. Linking stays active until a
// second image is clicked or the link is cancelled.
func (m *Machine) PointerUp(screen geometry.Point2D) {
	m.pointer = screen

	switch s := m.state.(type) {
	case Selecting:
		if s.Rect != nil && !s.Rect.Empty() {
			if err := m.store.Apply(app.Update{ID: s.ImageID, Selection: s.Rect}); err != nil {
				log.Printf("Interaction: selection on %s dropped: %v", s.ImageID, err)
			}
		}

	case Brushing:
		m.commitMask(s.ImageID)

	case Linking:
		return
	}
	m.state = Idle{}
}

func (m *Machine) commitMask(imageID string) {
	p, ok := m.masks.Get(imageID)
	if !ok {
		return
	}
	p.End()
	data, err := p.Export()
	if err != nil {
		log.Printf("Interaction: mask export for %s failed: %v", imageID, err)
		return
	}
	if err := m.store.Apply(app.Update{ID: imageID, Mask: &data}); err != nil {
		log.Printf("Interaction: mask on %s dropped: %v", imageID, err)
	}
}

// Wheel zooms at the pointer. It is ignored while dragging, selecting or
// brushing.
func (m *Machine) Wheel(screen geometry.Point2D, deltaY float64) bool {
	switch m.state.(type) {
	case Dragging, Selecting, Brushing:
		return false
	}
	m.pointer = screen
	return m.view.ZoomAt(screen, -deltaY*m.sensitivity)
}

// PendingSelection returns the selection being dragged out, if any.
func (m *Machine) PendingSelection() (imageID string, rect geometry.Rect, ok bool) {
	s, selecting := m.state.(Selecting)
	if !selecting || s.Rect == nil {
		return "", geometry.Rect{}, false
	}
	return s.ImageID, *s.Rect, true
}

// LinkPreview returns the live link arrow from the source image's border to
// the pointer, in canvas space.
func (m *Machine) LinkPreview() (from, to geometry.Point2D, ok bool) {
	s, linking := m.state.(Linking)
	if !linking {
		return from, to, false
	}
	src, found := m.store.Image(s.SourceID)
	if !found {
		return from, to, false
	}
	to = m.Pointer()
	from, _ = geometry.BorderAnchor(src.Bounds(), to)
	return from, to, true
}

// selectImage selects img and starts priming its mask surface so a stored
// mask is loaded before the first stroke. Surfaces of other images are
// dropped; committed masks live in the store.
func (m *Machine) selectImage(img *image.Image) {
	m.store.Select(img.ID)
	m.masks.Retain([]string{img.ID})
	m.masks.Acquire(img)
}

// hitTest returns the topmost image containing the canvas point.
func (m *Machine) hitTest(at geometry.Point2D) *image.Image {
	images := m.store.Images()
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].Bounds().Contains(at) {
			return images[i]
		}
	}
	return nil
}
