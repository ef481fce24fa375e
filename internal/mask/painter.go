// Package mask paints the black and white edit masks attached to canvas images.
//
// A Painter owns one raster surface sized to its image's display size. Strokes
// are white on a black background; white marks the region an edit may touch.
package mask

import (
	"fmt"
	stdimage "image"
	"image/color"
	"log"
	"sync"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	canvasimage "image-workspace/internal/image"
	"image-workspace/pkg/geometry"
)

// DefaultBrushWidth is the stroke width in image pixels.
const DefaultBrushWidth = 20.0

// Painter is the freehand raster painter for one image.
type Painter struct {
	mu sync.Mutex

	imageID string
	width   int
	height  int
	brush   float64

	dc      *gg.Context // nil when the surface could not be created
	loading bool
	ready   chan struct{}

	// generation is bumped by every Prime; a load only lands if it is
	// still current.
	generation uint64

	stroking bool
	last     geometry.Point2D

	// mask is the stored payload the surface currently reflects.
	mask string
}

// NewPainter creates a black surface of width x height pixels.
func NewPainter(imageID string, width, height int, brush float64) *Painter {
	if brush <= 0 {
		brush = DefaultBrushWidth
	}
	p := &Painter{
		imageID: imageID,
		width:   width,
		height:  height,
		brush:   brush,
		ready:   closedChan(),
	}
	if width > 0 && height > 0 {
		p.dc = blankContext(width, height)
	} else {
		log.Printf("Mask: no surface for image %s (%dx%d)", imageID, width, height)
	}
	return p
}

func blankContext(width, height int) *gg.Context {
	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	return dc
}

// ImageID returns the id of the image this surface belongs to.
func (p *Painter) ImageID() string {
	return p.imageID
}

// Size returns the surface size in pixels.
func (p *Painter) Size() (width, height int) {
	return p.width, p.height
}

// Prime resets the surface and, when existing is non-nil, repaints it from the
// stored mask. Decoding runs in the background; until it finishes Begin and
// StrokeTo are no-ops. Ready is closed when the surface can be painted.
func (p *Painter) Prime(existing *canvasimage.ImageData) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dc == nil {
		return
	}
	p.generation++
	p.dc = blankContext(p.width, p.height)
	p.stroking = false
	if existing == nil || existing.IsZero() {
		p.mask = ""
		p.loading = false
		p.ready = closedChan()
		return
	}

	p.loading = true
	p.ready = make(chan struct{})
	go p.load(*existing, p.generation, p.ready)
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (p *Painter) load(data canvasimage.ImageData, generation uint64, done chan struct{}) {
	defer close(done)

	src, err := data.Decode()

	p.mu.Lock()
	defer p.mu.Unlock()
	if generation != p.generation {
		return
	}
	p.loading = false
	if err != nil {
		log.Printf("Mask: failed to load stored mask for %s: %v", p.imageID, err)
		return
	}
	dst := stdimage.NewRGBA(stdimage.Rect(0, 0, p.width, p.height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	p.dc = gg.NewContextForRGBA(dst)
	p.mask = data.Base64
}

// Ready returns a channel closed once the surface is ready for painting.
func (p *Painter) Ready() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Available reports whether the surface exists and is not loading.
func (p *Painter) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dc != nil && !p.loading
}

// Begin starts a new stroke at a point in image-local pixels.
func (p *Painter) Begin(local geometry.Point2D) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dc == nil || p.loading {
		return false
	}
	p.stroking = true
	p.last = local
	return true
}

// StrokeTo extends the current stroke with a round-capped white segment.
func (p *Painter) StrokeTo(local geometry.Point2D) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dc == nil || p.loading || !p.stroking {
		return false
	}
	p.dc.SetRGB(1, 1, 1)
	p.dc.SetLineWidth(p.brush)
	p.dc.SetLineCapRound()
	p.dc.SetLineJoinRound()
	p.dc.MoveTo(p.last.X, p.last.Y)
	p.dc.LineTo(local.X, local.Y)
	p.dc.Stroke()
	p.last = local
	return true
}

// End finishes the current stroke.
func (p *Painter) End() {
	p.mu.Lock()
	p.stroking = false
	p.mu.Unlock()
}

// Clear paints the whole surface black.
func (p *Painter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dc == nil || p.loading {
		return
	}
	p.dc.SetRGB(0, 0, 0)
	p.dc.Clear()
}

// Snapshot returns a copy of the surface for drawing live feedback.
func (p *Painter) Snapshot() stdimage.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dc == nil {
		return nil
	}
	src := p.dc.Image()
	dst := stdimage.NewRGBA(src.Bounds())
	xdraw.Copy(dst, stdimage.Point{}, src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Export serializes the surface as a strictly black and white PNG.
func (p *Painter) Export() (canvasimage.ImageData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dc == nil {
		return canvasimage.ImageData{}, fmt.Errorf("mask surface unavailable for image %s", p.imageID)
	}
	data, err := canvasimage.EncodePNG(binarize(p.dc.Image()))
	if err != nil {
		return canvasimage.ImageData{}, err
	}
	p.mask = data.Base64
	return data, nil
}

// reflects reports whether the surface already shows the given stored mask.
func (p *Painter) reflects(stored *canvasimage.ImageData) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stored == nil {
		return p.mask == ""
	}
	return p.mask == stored.Base64
}

// FromSelection renders a selection rectangle as a mask of width x height.
func FromSelection(width, height int, sel geometry.Rect) (canvasimage.ImageData, error) {
	if width <= 0 || height <= 0 {
		return canvasimage.ImageData{}, fmt.Errorf("invalid mask size %dx%d", width, height)
	}
	dc := blankContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(sel.X, sel.Y, sel.Width, sel.Height)
	dc.Fill()
	return canvasimage.EncodePNG(binarize(dc.Image()))
}

func binarize(src stdimage.Image) *stdimage.Gray {
	b := src.Bounds()
	out := stdimage.NewGray(stdimage.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			if g.Y >= 128 {
				out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: 255})
			}
		}
	}
	return out
}
