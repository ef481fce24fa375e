// Package aiedit assembles AI edit requests from canvas images and turns the
// responses into derived images.
package aiedit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"image-workspace/internal/image"
	"image-workspace/internal/mask"
)

// DefaultGap is the horizontal distance between a parent and its edit result.
const DefaultGap = 40.0

var (
	// ErrNoImage is returned when the image to edit does not exist.
	ErrNoImage = errors.New("no image to edit")

	// ErrEmptyPrompt is returned when the prompt is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// Request is the payload sent to an edit/generate service.
type Request struct {
	Prompt       string            `json:"prompt"`
	Image        image.ImageData   `json:"image"`
	Mask         *image.ImageData  `json:"mask,omitempty"`
	LinkedImages []image.ImageData `json:"linkedImages,omitempty"`
	AspectRatio  string            `json:"aspectRatio,omitempty"`
}

// Response is the reply of an edit/generate service. Either field may be nil.
type Response struct {
	Text  *string          `json:"text"`
	Image *image.ImageData `json:"image"`
}

// UpscaleRequest is emitted once a model was chosen in the upscale flow.
type UpscaleRequest struct {
	ImageID string `json:"imageId"`
	ModelID string `json:"modelId"`
}

// Reader looks up images by id.
type Reader interface {
	Image(id string) (*image.Image, bool)
}

// Writer adds images to the workspace.
type Writer interface {
	Add(img *image.Image) error
}

// BuildRequest assembles the request for editing imageID.
//
// The mask is the image's painted mask or, when it has a selection instead, a
// mask rendered from the selection. Linked images are the image's live link
// targets in link order.
func BuildRequest(store Reader, imageID, prompt, aspectRatio string) (*Request, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	img, ok := store.Image(imageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoImage, imageID)
	}

	req := &Request{
		Prompt:      prompt,
		Image:       img.ImageData,
		AspectRatio: aspectRatio,
	}

	switch {
	case img.Mask != nil:
		m := *img.Mask
		req.Mask = &m
	case img.Selection != nil:
		w, h := img.PixelSize()
		m, err := mask.FromSelection(w, h, *img.Selection)
		if err != nil {
			return nil, fmt.Errorf("failed to render selection mask: %w", err)
		}
		req.Mask = &m
	}

	for _, id := range img.LinkedTo {
		if target, ok := store.Image(id); ok {
			req.LinkedImages = append(req.LinkedImages, target.ImageData)
		}
	}
	return req, nil
}

// ApplyResponse adds the response image, if any, as a derived image of
// parentID, gap units to its right, and returns it together with the response
// text. A non-positive gap uses DefaultGap.
func ApplyResponse(store interface {
	Reader
	Writer
}, parentID, prompt string, resp *Response, now time.Time, gap float64) (*image.Image, string, error) {
	if resp == nil {
		return nil, "", nil
	}
	var text string
	if resp.Text != nil {
		text = *resp.Text
	}
	if resp.Image == nil {
		return nil, text, nil
	}

	parent, ok := store.Image(parentID)
	if !ok {
		return nil, text, fmt.Errorf("%w: %s", ErrNoImage, parentID)
	}
	if gap <= 0 {
		gap = DefaultGap
	}
	derived, err := image.NewDerived(parent, *resp.Image, prompt, now, gap)
	if err != nil {
		return nil, text, fmt.Errorf("failed to create derived image: %w", err)
	}
	if err := store.Add(derived); err != nil {
		return nil, text, err
	}
	return derived, text, nil
}
