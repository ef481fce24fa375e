// Package app holds the host-side workspace state: the ordered list of canvas
// images, the current selection and the last committed viewport, plus a small
// event hub the UI subscribes to.
package app

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"image-workspace/internal/image"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
)

var (
	// ErrNotFound is returned when an update or lookup names an unknown image.
	ErrNotFound = errors.New("image not found")

	// ErrDuplicateID is returned when adding an image whose id is already present.
	ErrDuplicateID = errors.New("duplicate image id")

	// ErrConflictingUpdate is returned when an update sets both a selection and a mask.
	ErrConflictingUpdate = errors.New("update sets both selection and mask")
)

// EventType identifies different workspace events.
type EventType int

const (
	EventImageAdded EventType = iota
	EventImageUpdated
	EventImageRemoved
	EventSelectionChanged
	EventViewportChanged
	EventUpscaleRequested
)

// EventListener is called when an event occurs. Image events carry the image
// id, EventViewportChanged carries a viewport.State.
type EventListener func(data interface{})

// Update is a partial change proposed for one image. Nil fields are left alone.
type Update struct {
	ID string

	Position *geometry.Point2D

	// Setting Selection clears the mask, setting Mask clears the selection.
	Selection      *geometry.Rect
	Mask           *image.ImageData
	ClearSelection bool
	ClearMask      bool

	LinkedTo   *[]string
	LinkedFrom *[]string
}

// State holds the workspace images. Index order is z-order: the last image is
// drawn on top and wins hit tests.
type State struct {
	mu sync.RWMutex

	images     []*image.Image
	selectedID string
	viewport   viewport.State

	listeners map[EventType][]EventListener
}

// NewState creates an empty workspace state.
func NewState() *State {
	return &State{
		viewport:  viewport.State{Zoom: 1},
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Images returns a snapshot of all images in z-order.
func (s *State) Images() []*image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*image.Image, len(s.images))
	for i, img := range s.images {
		out[i] = img.Clone()
	}
	return out
}

// Image returns a snapshot of the image with the given id.
func (s *State) Image(id string) (*image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.images[i].Clone(), true
	}
	return nil, false
}

// Len returns the number of images.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// Add places a new image on top of the stack.
func (s *State) Add(img *image.Image) error {
	if img == nil || img.ID == "" {
		return fmt.Errorf("cannot add image without id")
	}
	s.mu.Lock()
	if s.indexOf(img.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, img.ID)
	}
	s.images = append(s.images, img.Clone())
	s.mu.Unlock()

	s.Emit(EventImageAdded, img.ID)
	return nil
}

// Apply applies a partial update to one image.
func (s *State) Apply(u Update) error {
	if u.Selection != nil && u.Mask != nil {
		return ErrConflictingUpdate
	}

	s.mu.Lock()
	i := s.indexOf(u.ID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, u.ID)
	}
	img := s.images[i]

	if u.Position != nil {
		img.X, img.Y = u.Position.X, u.Position.Y
	}
	if u.ClearSelection {
		img.Selection = nil
	}
	if u.ClearMask {
		img.Mask = nil
	}
	if u.Selection != nil {
		sel := *u.Selection
		img.Selection = &sel
		img.Mask = nil
	}
	if u.Mask != nil {
		m := *u.Mask
		img.Mask = &m
		img.Selection = nil
	}
	if u.LinkedTo != nil {
		img.LinkedTo = slices.Clone(*u.LinkedTo)
	}
	if u.LinkedFrom != nil {
		img.LinkedFrom = slices.Clone(*u.LinkedFrom)
	}
	s.mu.Unlock()

	s.Emit(EventImageUpdated, u.ID)
	return nil
}

// Remove drops an image from the stack. It does not touch references held by
// other images; links.Graph.RemoveImage does that before calling Remove.
func (s *State) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.images = slices.Delete(s.images, i, i+1)
	deselected := s.selectedID == id
	if deselected {
		s.selectedID = ""
	}
	s.mu.Unlock()

	s.Emit(EventImageRemoved, id)
	if deselected {
		s.Emit(EventSelectionChanged, "")
	}
	return true
}

// BringToFront moves an image to the top of the z-order.
func (s *State) BringToFront(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || i == len(s.images)-1 {
		s.mu.Unlock()
		return false
	}
	img := s.images[i]
	s.images = append(slices.Delete(s.images, i, i+1), img)
	s.mu.Unlock()

	s.Emit(EventImageUpdated, id)
	return true
}

// Select marks an image as selected; an empty id clears the selection.
func (s *State) Select(id string) {
	s.mu.Lock()
	if id != "" && s.indexOf(id) < 0 {
		id = ""
	}
	if s.selectedID == id {
		s.mu.Unlock()
		return
	}
	s.selectedID = id
	s.mu.Unlock()

	s.Emit(EventSelectionChanged, id)
}

// Selected returns the selected image id, or "".
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// SetViewport records the last committed viewport.
func (s *State) SetViewport(v viewport.State) {
	s.mu.Lock()
	s.viewport = v
	s.mu.Unlock()
	s.Emit(EventViewportChanged, v)
}

// Viewport returns the last committed viewport.
func (s *State) Viewport() viewport.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

func (s *State) indexOf(id string) int {
	for i, img := range s.images {
		if img.ID == id {
			return i
		}
	}
	return -1
}
