package image

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"image-workspace/pkg/geometry"
)

// Image is one raster placed on the canvas.
//
// Selection and Mask are mutually exclusive. OriginalImageID, LinkedTo and
// LinkedFrom are weak references by id; they may point at images that no
// longer exist and readers must tolerate that.
type Image struct {
	ID        string    `json:"id"`
	ImageData ImageData `json:"imageData"`

	// Position and display size in canvas space.
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Selection is in image-local space, (0,0) = top-left of the image.
	Selection *geometry.Rect `json:"selection,omitempty"`
	Mask      *ImageData     `json:"mask,omitempty"`

	OriginalImageID string   `json:"originalImageId,omitempty"`
	IsOriginal      bool     `json:"isOriginal,omitempty"`
	LinkedTo        []string `json:"linkedTo,omitempty"`
	LinkedFrom      []string `json:"linkedFrom,omitempty"`

	Prompt      string     `json:"prompt,omitempty"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

// NewID returns a fresh image id.
func NewID() string {
	return uuid.NewString()
}

// New creates an original image from uploaded data, centered at center and
// scaled down to fit within maxSize.
func New(data ImageData, center geometry.Point2D, maxSize float64) (*Image, error) {
	w, h, err := data.Dimensions()
	if err != nil {
		return nil, err
	}
	size := geometry.NewSize(float64(w), float64(h)).FitWithin(maxSize)
	return &Image{
		ID:         NewID(),
		ImageData:  data,
		X:          center.X - size.Width/2,
		Y:          center.Y - size.Height/2,
		Width:      size.Width,
		Height:     size.Height,
		IsOriginal: true,
	}, nil
}

// NewDerived creates the result of an edit of parent, placed gap units to its
// right with the same display height.
func NewDerived(parent *Image, data ImageData, prompt string, now time.Time, gap float64) (*Image, error) {
	if parent == nil {
		return nil, fmt.Errorf("derived image needs a parent")
	}
	w, h, err := data.Dimensions()
	if err != nil {
		return nil, err
	}
	height := parent.Height
	width := parent.Width
	if h > 0 {
		width = math.Round(height * float64(w) / float64(h))
	}
	generated := now
	return &Image{
		ID:              NewID(),
		ImageData:       data,
		X:               parent.X + parent.Width + gap,
		Y:               parent.Y,
		Width:           width,
		Height:          height,
		OriginalImageID: parent.ID,
		Prompt:          prompt,
		GeneratedAt:     &generated,
	}, nil
}

// Bounds returns the image rectangle in canvas space.
func (img *Image) Bounds() geometry.Rect {
	return geometry.NewRect(img.X, img.Y, img.Width, img.Height)
}

// BoundsOf returns the smallest canvas rectangle containing every image, and
// false when there are none.
func BoundsOf(images []*Image) (geometry.Rect, bool) {
	if len(images) == 0 {
		return geometry.Rect{}, false
	}
	r := images[0].Bounds()
	for _, img := range images[1:] {
		r = r.Union(img.Bounds())
	}
	return r, true
}

// LocalBounds returns the image rectangle in its own local space.
func (img *Image) LocalBounds() geometry.Rect {
	return geometry.NewRect(0, 0, img.Width, img.Height)
}

// ToLocal converts a canvas-space point to image-local space.
func (img *Image) ToLocal(p geometry.Point2D) geometry.Point2D {
	return geometry.NewPoint2D(p.X-img.X, p.Y-img.Y)
}

// PixelSize returns the mask raster size for this image.
func (img *Image) PixelSize() (width, height int) {
	return int(math.Round(img.Width)), int(math.Round(img.Height))
}

// LinksTo reports whether id is in LinkedTo.
func (img *Image) LinksTo(id string) bool {
	return slices.Contains(img.LinkedTo, id)
}

// LinkedFromID reports whether id is in LinkedFrom.
func (img *Image) LinkedFromID(id string) bool {
	return slices.Contains(img.LinkedFrom, id)
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	if img == nil {
		return nil
	}
	c := *img
	if img.Selection != nil {
		sel := *img.Selection
		c.Selection = &sel
	}
	if img.Mask != nil {
		m := *img.Mask
		c.Mask = &m
	}
	if img.GeneratedAt != nil {
		ts := *img.GeneratedAt
		c.GeneratedAt = &ts
	}
	c.LinkedTo = slices.Clone(img.LinkedTo)
	c.LinkedFrom = slices.Clone(img.LinkedFrom)
	return &c
}
