package render

import (
	stdimage "image"
	"image/color"
	"log"
	"sync"

	"github.com/fogleman/gg"

	"image-workspace/internal/image"
	"image-workspace/pkg/colorutil"
	"image-workspace/pkg/geometry"
)

const maskAlpha = 110

type cachedImage struct {
	key string
	img stdimage.Image
}

// Renderer rasterizes scenes. Decoded images and mask tints are cached by
// image id and reused while the underlying payload is unchanged.
type Renderer struct {
	mu     sync.Mutex
	images map[string]cachedImage
	masks  map[string]cachedImage
}

// NewRenderer creates a renderer with empty caches.
func NewRenderer() *Renderer {
	return &Renderer{
		images: make(map[string]cachedImage),
		masks:  make(map[string]cachedImage),
	}
}

// Draw rasterizes scene into a width x height frame in screen space.
func (r *Renderer) Draw(scene Scene, width, height int) *stdimage.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width <= 0 || height <= 0 {
		return stdimage.NewRGBA(stdimage.Rect(0, 0, 0, 0))
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(colorutil.Background)
	dc.Clear()

	v := scene.Viewport
	dc.Translate(v.X, v.Y)
	dc.Scale(v.Zoom, v.Zoom)

	cb := scene.CanvasBounds
	dc.DrawRectangle(cb.X, cb.Y, cb.Width, cb.Height)
	dc.SetColor(colorutil.Canvas)
	dc.FillPreserve()
	dc.SetColor(colorutil.Border)
	dc.SetLineWidth(2)
	dc.SetDash(10, 6)
	dc.Stroke()
	dc.SetDash()

	live := make(map[string]bool, len(scene.Images))
	for _, img := range scene.Images {
		live[img.ID] = true
		if !scene.Visible.Empty() && !img.Bounds().Intersects(scene.Visible) {
			continue
		}
		r.drawImage(dc, img, scene.LiveMasks[img.ID])
		if img.ID == scene.SelectedID {
			dc.DrawRectangle(img.X, img.Y, img.Width, img.Height)
			dc.SetColor(colorutil.Highlight)
			dc.SetLineWidth(3)
			dc.Stroke()
		}
	}
	r.prune(live)

	for _, sel := range scene.Selections {
		dc.DrawRectangle(sel.Rect.X, sel.Rect.Y, sel.Rect.Width, sel.Rect.Height)
		dc.SetColor(colorutil.WithAlpha(colorutil.Highlight, 40))
		dc.FillPreserve()
		dc.SetColor(colorutil.Highlight)
		dc.SetLineWidth(2)
		if sel.Pending {
			dc.SetDash(6, 4)
		}
		dc.Stroke()
		dc.SetDash()
	}

	for _, a := range scene.Arrows {
		drawArrow(dc, a, v.Zoom)
	}

	out, ok := dc.Image().(*stdimage.RGBA)
	if !ok {
		log.Printf("Render: unexpected surface type %T", dc.Image())
		return stdimage.NewRGBA(stdimage.Rect(0, 0, width, height))
	}
	return out
}

func (r *Renderer) drawImage(dc *gg.Context, img *image.Image, liveMask stdimage.Image) {
	if img.Width <= 0 || img.Height <= 0 {
		return
	}
	src := r.decoded(img)
	if src == nil {
		dc.DrawRectangle(img.X, img.Y, img.Width, img.Height)
		dc.SetColor(colorutil.Border)
		dc.Fill()
		return
	}
	drawScaled(dc, src, img.Bounds())

	var overlay stdimage.Image
	if liveMask != nil {
		overlay = tint(liveMask)
	} else if img.Mask != nil {
		overlay = r.maskOverlay(img)
	}
	if overlay != nil {
		drawScaled(dc, overlay, img.Bounds())
	}
}

// drawScaled draws src stretched over dst in the current transform.
func drawScaled(dc *gg.Context, src stdimage.Image, dst geometry.Rect) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	dc.Push()
	dc.Translate(dst.X, dst.Y)
	dc.Scale(dst.Width/float64(b.Dx()), dst.Height/float64(b.Dy()))
	dc.DrawImage(src, -b.Min.X, -b.Min.Y)
	dc.Pop()
}

func (r *Renderer) decoded(img *image.Image) stdimage.Image {
	if c, ok := r.images[img.ID]; ok && c.key == img.ImageData.Base64 {
		return c.img
	}
	src, err := img.ImageData.Decode()
	if err != nil {
		log.Printf("Render: cannot decode image %s: %v", img.ID, err)
		src = nil
	}
	r.images[img.ID] = cachedImage{key: img.ImageData.Base64, img: src}
	return src
}

func (r *Renderer) maskOverlay(img *image.Image) stdimage.Image {
	if c, ok := r.masks[img.ID]; ok && c.key == img.Mask.Base64 {
		return c.img
	}
	var overlay stdimage.Image
	if src, err := img.Mask.Decode(); err != nil {
		log.Printf("Render: cannot decode mask of %s: %v", img.ID, err)
	} else {
		overlay = tint(src)
	}
	r.masks[img.ID] = cachedImage{key: img.Mask.Base64, img: overlay}
	return overlay
}

func (r *Renderer) prune(live map[string]bool) {
	for id := range r.images {
		if !live[id] {
			delete(r.images, id)
		}
	}
	for id := range r.masks {
		if !live[id] {
			delete(r.masks, id)
		}
	}
}

// tint turns the white region of a mask into a translucent overlay.
func tint(mask stdimage.Image) *stdimage.NRGBA {
	b := mask.Bounds()
	out := stdimage.NewNRGBA(stdimage.Rect(0, 0, b.Dx(), b.Dy()))
	c := color.NRGBA{R: colorutil.MaskTint.R, G: colorutil.MaskTint.G, B: colorutil.MaskTint.B, A: maskAlpha}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(mask.At(x, y)).(color.Gray).Y >= 128 {
				out.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
			}
		}
	}
	return out
}

func drawArrow(dc *gg.Context, a Arrow, zoom float64) {
	var c color.RGBA
	switch a.Kind {
	case ArrowLineage:
		c = colorutil.Lineage
		dc.SetDash(8, 5)
	case ArrowPreview:
		c = colorutil.Highlight
		dc.SetDash(4, 4)
	default:
		c = colorutil.Link
	}
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.DrawLine(a.From.X, a.From.Y, a.To.X, a.To.Y)
	dc.Stroke()
	dc.SetDash()

	left, right := a.Head(zoom)
	dc.MoveTo(a.To.X, a.To.Y)
	dc.LineTo(left.X, left.Y)
	dc.LineTo(right.X, right.Y)
	dc.ClosePath()
	dc.Fill()
}
