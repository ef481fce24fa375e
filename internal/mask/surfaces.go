package mask

import (
	canvasimage "image-workspace/internal/image"
)

// Surfaces keeps one Painter per image id. A painter is reused while its
// image keeps the same pixel size and stored mask, and re-primed otherwise.
//
// Surfaces is not safe for concurrent use; it is owned by the canvas event loop.
type Surfaces struct {
	brush    float64
	painters map[string]*Painter
}

// NewSurfaces creates an empty arena using the given brush width.
func NewSurfaces(brush float64) *Surfaces {
	return &Surfaces{
		brush:    brush,
		painters: make(map[string]*Painter),
	}
}

// Acquire returns the painter for img, creating or re-priming it when the
// image size or stored mask changed since the last call.
func (s *Surfaces) Acquire(img *canvasimage.Image) *Painter {
	w, h := img.PixelSize()
	if p, ok := s.painters[img.ID]; ok {
		pw, ph := p.Size()
		if pw == w && ph == h {
			if !p.reflects(img.Mask) {
				p.Prime(img.Mask)
			}
			return p
		}
	}
	p := NewPainter(img.ID, w, h, s.brush)
	p.Prime(img.Mask)
	s.painters[img.ID] = p
	return p
}

// Get returns the painter for id if one exists.
func (s *Surfaces) Get(id string) (*Painter, bool) {
	p, ok := s.painters[id]
	return p, ok
}

// Release drops the painter for id.
func (s *Surfaces) Release(id string) {
	delete(s.painters, id)
}

// Retain drops every painter whose id is not in ids.
func (s *Surfaces) Retain(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for id := range s.painters {
		if !keep[id] {
			delete(s.painters, id)
		}
	}
}

// Len returns the number of live painters.
func (s *Surfaces) Len() int {
	return len(s.painters)
}
