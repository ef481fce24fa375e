// Package interaction turns pointer and wheel events into viewport changes,
// image updates, mask strokes and links.
//
// Handlers run to completion on the caller's goroutine; the Machine is not
// safe for concurrent use.
package interaction

import (
	"fmt"
	"strings"

	"image-workspace/pkg/geometry"
)

// Tool represents the active canvas tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolSelect
	ToolBrush
	ToolLink
	ToolUpscale
)

var toolNames = map[Tool]string{
	ToolNone:    "none",
	ToolSelect:  "select",
	ToolBrush:   "brush",
	ToolLink:    "link",
	ToolUpscale: "upscale",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool returns the tool with the given name.
func ParseTool(name string) (Tool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ToolNone, nil
	}
	for t, n := range toolNames {
		if n == name {
			return t, nil
		}
	}
	return ToolNone, fmt.Errorf("unknown tool %q", name)
}

// State is the interaction mode. Exactly one of Idle, Panning, Dragging,
// Selecting, Brushing or Linking.
type State interface {
	Name() string
	isState()
}

// Idle waits for the next pointer-down.
type Idle struct{}

// Panning moves the viewport with the pointer.
type Panning struct {
	Last geometry.Point2D // screen position of the previous event
}

// Dragging moves an image with the pointer.
type Dragging struct {
	ImageID string
	Offset  geometry.Point2D // pointer position relative to the image origin
}

// Selecting rubber-bands a rectangle inside an image.
type Selecting struct {
	ImageID string
	Start   geometry.Point2D // image-local
	Rect    *geometry.Rect   // image-local, nil until the pointer moves
}

// Brushing paints a mask stroke on an image.
type Brushing struct {
	ImageID string
}

// Linking waits for a second image to link the source to.
type Linking struct {
	SourceID string
}

func (Idle) Name() string      { return "idle" }
func (Panning) Name() string   { return "panning" }
func (Dragging) Name() string  { return "dragging" }
func (Selecting) Name() string { return "selecting" }
func (Brushing) Name() string  { return "brushing" }
func (Linking) Name() string   { return "linking" }

func (Idle) isState()      {}
func (Panning) isState()   {}
func (Dragging) isState()  {}
func (Selecting) isState() {}
func (Brushing) isState()  {}
func (Linking) isState()   {}
