// Package replay drives the canvas engine headlessly from a YAML script of
// pointer, wheel and tool events.
package replay

import (
	"errors"
	"fmt"
	stdimage "image"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"image-workspace/internal/image"
	"image-workspace/internal/interaction"
	"image-workspace/internal/mask"
	"image-workspace/pkg/colorutil"
	"image-workspace/pkg/geometry"
)

// Script is a replayable canvas session.
type Script struct {
	Viewport         ViewportSpec `yaml:"viewport"`
	BrushWidth       float64      `yaml:"brush_width,omitempty"`
	WheelSensitivity float64      `yaml:"wheel_sensitivity,omitempty"`
	Images           []ImageSpec  `yaml:"images"`
	Steps            []Step       `yaml:"steps"`

	// baseDir resolves relative image paths.
	baseDir string
}

// ViewportSpec is the visible area size in screen pixels.
type ViewportSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ImageSpec places one image. The pixels come from File or, when empty, a
// solid Color raster of PixelWidth x PixelHeight.
type ImageSpec struct {
	ID              string   `yaml:"id"`
	File            string   `yaml:"file,omitempty"`
	Color           string   `yaml:"color,omitempty"`
	PixelWidth      int      `yaml:"pixel_width,omitempty"`
	PixelHeight     int      `yaml:"pixel_height,omitempty"`
	X               float64  `yaml:"x"`
	Y               float64  `yaml:"y"`
	Width           float64  `yaml:"width"`
	Height          float64  `yaml:"height"`
	OriginalImageID string   `yaml:"original_image_id,omitempty"`
	LinkedTo        []string `yaml:"linked_to,omitempty"`
}

// Step is one scripted event. Exactly one field must be set.
type Step struct {
	Tool   *string           `yaml:"tool,omitempty"`
	Down   *geometry.Point2D `yaml:"down,omitempty"`
	Move   *geometry.Point2D `yaml:"move,omitempty"`
	Up     *geometry.Point2D `yaml:"up,omitempty"`
	Wheel  *WheelStep        `yaml:"wheel,omitempty"`
	Cancel bool              `yaml:"cancel,omitempty"`
	Link   []string          `yaml:"link,omitempty"`
	Unlink []string          `yaml:"unlink,omitempty"`
	Remove string            `yaml:"remove,omitempty"`
	Center bool              `yaml:"center,omitempty"`
	Fit    bool              `yaml:"fit,omitempty"`
}

// WheelStep is a wheel event at a screen point.
type WheelStep struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	DeltaY float64 `yaml:"delta_y"`
}

var (
	// ErrEmptyStep is returned for a step with no action.
	ErrEmptyStep = errors.New("step has no action")

	// ErrAmbiguousStep is returned for a step with more than one action.
	ErrAmbiguousStep = errors.New("step has more than one action")
)

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.baseDir = filepath.Dir(path)
	return s, nil
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the script for structural errors.
func (s *Script) Validate() error {
	if s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		return fmt.Errorf("viewport size must be positive, got %vx%v", s.Viewport.Width, s.Viewport.Height)
	}
	ids := make(map[string]bool, len(s.Images))
	for i, img := range s.Images {
		if img.ID == "" {
			return fmt.Errorf("image %d: missing id", i)
		}
		if ids[img.ID] {
			return fmt.Errorf("image %d: duplicate id %q", i, img.ID)
		}
		ids[img.ID] = true
		if img.File == "" && img.Color == "" {
			return fmt.Errorf("image %q: needs file or color", img.ID)
		}
	}
	for i, step := range s.Steps {
		n, err := step.actions()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if n == 0 {
			return fmt.Errorf("step %d: %w", i, ErrEmptyStep)
		}
		if n > 1 {
			return fmt.Errorf("step %d: %w", i, ErrAmbiguousStep)
		}
	}
	return nil
}

func (st Step) actions() (int, error) {
	n := 0
	count := func(set bool) {
		if set {
			n++
		}
	}
	count(st.Tool != nil)
	count(st.Down != nil)
	count(st.Move != nil)
	count(st.Up != nil)
	count(st.Wheel != nil)
	count(st.Cancel)
	count(st.Link != nil)
	count(st.Unlink != nil)
	count(st.Remove != "")
	count(st.Center)
	count(st.Fit)

	if st.Tool != nil {
		if _, err := interaction.ParseTool(*st.Tool); err != nil {
			return n, err
		}
	}
	if st.Link != nil && len(st.Link) != 2 {
		return n, fmt.Errorf("link needs [source, target], got %v", st.Link)
	}
	if st.Unlink != nil && len(st.Unlink) != 2 {
		return n, fmt.Errorf("unlink needs [source, target], got %v", st.Unlink)
	}
	return n, nil
}

// build creates the canvas image for a spec.
func (s *Script) build(spec ImageSpec) (*image.Image, error) {
	var data image.ImageData
	if spec.File != "" {
		path := spec.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.baseDir, path)
		}
		var err error
		if data, err = image.Load(path); err != nil {
			return nil, fmt.Errorf("image %q: %w", spec.ID, err)
		}
	} else {
		c, err := colorutil.ParseHex(spec.Color)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", spec.ID, err)
		}
		w, h := spec.PixelWidth, spec.PixelHeight
		if w <= 0 {
			w = max(1, int(spec.Width))
		}
		if h <= 0 {
			h = max(1, int(spec.Height))
		}
		raster := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
		for i := 0; i < len(raster.Pix); i += 4 {
			raster.Pix[i], raster.Pix[i+1], raster.Pix[i+2], raster.Pix[i+3] = c.R, c.G, c.B, c.A
		}
		if data, err = image.EncodePNG(raster); err != nil {
			return nil, fmt.Errorf("image %q: %w", spec.ID, err)
		}
	}

	img := &image.Image{
		ID:              spec.ID,
		ImageData:       data,
		X:               spec.X,
		Y:               spec.Y,
		Width:           spec.Width,
		Height:          spec.Height,
		OriginalImageID: spec.OriginalImageID,
		IsOriginal:      spec.OriginalImageID == "",
	}
	if img.Width <= 0 || img.Height <= 0 {
		w, h, err := data.Dimensions()
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", spec.ID, err)
		}
		img.Width, img.Height = float64(w), float64(h)
	}
	return img, nil
}

func (s *Script) brushWidth() float64 {
	if s.BrushWidth > 0 {
		return s.BrushWidth
	}
	return mask.DefaultBrushWidth
}
