package replay

import (
	"errors"
	"fmt"
	stdimage "image"
	"log"

	"image-workspace/internal/app"
	"image-workspace/internal/image"
	"image-workspace/internal/interaction"
	"image-workspace/internal/links"
	"image-workspace/internal/mask"
	"image-workspace/internal/render"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
)

// fitPadding is the screen margin kept around images by a fit step.
const fitPadding = 40

// ErrLineageCycle is returned when scripted images derive from each other in
// a loop.
var ErrLineageCycle = errors.New("image derives from itself")

// Session is the engine state after replaying a script.
type Session struct {
	State    *app.State
	Graph    *links.Graph
	Machine  *interaction.Machine
	Upscales []string // image ids the upscale tool was used on

	width, height int
}

// Dump is the JSON summary of a finished session.
type Dump struct {
	Viewport viewport.State `json:"viewport"`
	Selected string         `json:"selected,omitempty"`
	State    string         `json:"state"`
	Tool     string         `json:"tool"`
	Images   []*image.Image `json:"images"`
	Upscales []string       `json:"upscales,omitempty"`
}

// Run replays s and returns the resulting session. On a failing step the
// session so far is returned with the error.
func Run(s *Script) (*Session, error) {
	state := app.NewState()
	sess := &Session{
		State:  state,
		Graph:  links.New(state),
		width:  int(s.Viewport.Width),
		height: int(s.Viewport.Height),
	}

	for _, spec := range s.Images {
		img, err := s.build(spec)
		if err != nil {
			return nil, err
		}
		if err := state.Add(img); err != nil {
			return nil, err
		}
	}
	for _, spec := range s.Images {
		if spec.OriginalImageID != "" && sess.Graph.WouldCycle(spec.ID, spec.OriginalImageID) {
			return nil, fmt.Errorf("image %q: %w", spec.ID, ErrLineageCycle)
		}
		for _, target := range spec.LinkedTo {
			if _, err := sess.Graph.Link(spec.ID, target); err != nil {
				return nil, fmt.Errorf("image %q: %w", spec.ID, err)
			}
		}
	}

	view := viewport.New(s.Viewport.Width, s.Viewport.Height)
	sess.Machine = interaction.New(state, sess.Graph, view, mask.NewSurfaces(s.brushWidth()))
	if s.WheelSensitivity > 0 {
		sess.Machine.SetWheelSensitivity(s.WheelSensitivity)
	}
	sess.Machine.OnUpscale(func(id string) {
		sess.Upscales = append(sess.Upscales, id)
	})

	for i, step := range s.Steps {
		if err := sess.apply(step); err != nil {
			return sess, fmt.Errorf("step %d: %w", i, err)
		}
	}
	log.Printf("Replay: %d steps, %d images, state %s", len(s.Steps), state.Len(), sess.Machine.State().Name())
	return sess, nil
}

func (sess *Session) apply(st Step) error {
	m := sess.Machine
	switch {
	case st.Tool != nil:
		t, err := interaction.ParseTool(*st.Tool)
		if err != nil {
			return err
		}
		m.SetTool(t)
	case st.Down != nil:
		m.PointerDown(*st.Down)
	case st.Move != nil:
		m.PointerMove(*st.Move)
	case st.Up != nil:
		m.PointerUp(*st.Up)
	case st.Wheel != nil:
		m.Wheel(geometry.NewPoint2D(st.Wheel.X, st.Wheel.Y), st.Wheel.DeltaY)
	case st.Cancel:
		m.Cancel()
	case st.Link != nil:
		_, err := sess.Graph.Link(st.Link[0], st.Link[1])
		return err
	case st.Unlink != nil:
		_, err := sess.Graph.Unlink(st.Unlink[0], st.Unlink[1])
		return err
	case st.Remove != "":
		if _, err := sess.Graph.RemoveImage(st.Remove); err != nil {
			return err
		}
		m.Masks().Release(st.Remove)
	case st.Center:
		m.Viewport().CenterOn()
	case st.Fit:
		if bounds, ok := image.BoundsOf(sess.State.Images()); ok {
			m.Viewport().Frame(bounds, fitPadding)
		}
	default:
		return ErrEmptyStep
	}
	return nil
}

// Snapshot renders the final scene at the script's viewport size.
func (sess *Session) Snapshot() *stdimage.RGBA {
	scene := render.BuildScene(sess.State.Images(), sess.State.Selected(), sess.Machine.Viewport(), sess.Machine)
	return render.NewRenderer().Draw(scene, sess.width, sess.height)
}

// Dump summarizes the session. Without data, image and mask payloads are
// left out.
func (sess *Session) Dump(withData bool) Dump {
	images := sess.State.Images()
	if !withData {
		for _, img := range images {
			img.ImageData.Base64 = ""
			if img.Mask != nil {
				img.Mask.Base64 = ""
			}
		}
	}
	return Dump{
		Viewport: sess.Machine.Viewport().State(),
		Selected: sess.State.Selected(),
		State:    sess.Machine.State().Name(),
		Tool:     sess.Machine.Tool().String(),
		Images:   images,
		Upscales: sess.Upscales,
	}
}
