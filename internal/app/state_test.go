package app

import (
	"errors"
	"testing"

	"image-workspace/internal/image"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
)

func newTestState(t *testing.T, ids ...string) *State {
	t.Helper()
	s := NewState()
	for i, id := range ids {
		img := &image.Image{ID: id, X: float64(i * 300), Width: 200, Height: 200}
		if err := s.Add(img); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}
	return s
}

func TestState_AddRejectsDuplicates(t *testing.T) {
	s := newTestState(t, "a")
	if err := s.Add(&image.Image{ID: "a"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if err := s.Add(&image.Image{}); err == nil {
		t.Error("expected error for image without id")
	}
}

func TestState_SnapshotsAreIsolated(t *testing.T) {
	s := newTestState(t, "a")
	img, _ := s.Image("a")
	img.X = 999
	again, _ := s.Image("a")
	if again.X == 999 {
		t.Error("expected store copy to be unaffected by snapshot mutation")
	}
}

func TestState_SelectionClearsMask(t *testing.T) {
	s := newTestState(t, "a")
	mask := image.ImageData{Base64: "AAAA", MimeType: image.MimePNG}
	if err := s.Apply(Update{ID: "a", Mask: &mask}); err != nil {
		t.Fatal(err)
	}
	sel := geometry.NewRect(10, 10, 40, 30)
	if err := s.Apply(Update{ID: "a", Selection: &sel}); err != nil {
		t.Fatal(err)
	}
	img, _ := s.Image("a")
	if img.Mask != nil {
		t.Error("expected mask to be cleared by selection")
	}
	if img.Selection == nil || *img.Selection != sel {
		t.Errorf("expected selection %+v, got %+v", sel, img.Selection)
	}

	if err := s.Apply(Update{ID: "a", Mask: &mask}); err != nil {
		t.Fatal(err)
	}
	img, _ = s.Image("a")
	if img.Selection != nil || img.Mask == nil {
		t.Errorf("expected mask to replace selection, got %+v / %+v", img.Selection, img.Mask)
	}
}

func TestState_ApplyErrors(t *testing.T) {
	s := newTestState(t, "a")
	sel := geometry.NewRect(0, 0, 1, 1)
	mask := image.ImageData{Base64: "AAAA"}
	if err := s.Apply(Update{ID: "a", Selection: &sel, Mask: &mask}); !errors.Is(err, ErrConflictingUpdate) {
		t.Errorf("expected ErrConflictingUpdate, got %v", err)
	}
	if err := s.Apply(Update{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestState_ApplyPosition(t *testing.T) {
	s := newTestState(t, "a")
	var updated []string
	s.On(EventImageUpdated, func(data interface{}) { updated = append(updated, data.(string)) })

	pos := geometry.NewPoint2D(42, 24)
	if err := s.Apply(Update{ID: "a", Position: &pos}); err != nil {
		t.Fatal(err)
	}
	img, _ := s.Image("a")
	if img.X != 42 || img.Y != 24 {
		t.Errorf("expected (42,24), got (%v,%v)", img.X, img.Y)
	}
	if len(updated) != 1 || updated[0] != "a" {
		t.Errorf("expected one update event for a, got %v", updated)
	}
}

func TestState_BringToFront(t *testing.T) {
	s := newTestState(t, "a", "b", "c")
	if !s.BringToFront("a") {
		t.Fatal("expected a to move")
	}
	imgs := s.Images()
	if imgs[len(imgs)-1].ID != "a" {
		t.Errorf("expected a on top, got %s", imgs[len(imgs)-1].ID)
	}
	if s.BringToFront("a") {
		t.Error("expected no-op for topmost image")
	}
}

func TestState_RemoveClearsSelection(t *testing.T) {
	s := newTestState(t, "a", "b")
	s.Select("a")
	var got []interface{}
	s.On(EventSelectionChanged, func(data interface{}) { got = append(got, data) })

	if !s.Remove("a") {
		t.Fatal("expected remove to succeed")
	}
	if s.Selected() != "" {
		t.Errorf("expected selection cleared, got %q", s.Selected())
	}
	if len(got) != 1 || got[0] != "" {
		t.Errorf("expected one deselect event, got %v", got)
	}
	if s.Remove("a") {
		t.Error("expected second remove to fail")
	}
}

func TestState_SelectUnknownClears(t *testing.T) {
	s := newTestState(t, "a")
	s.Select("a")
	s.Select("nope")
	if s.Selected() != "" {
		t.Errorf("expected unknown id to clear selection, got %q", s.Selected())
	}
}

func TestState_Viewport(t *testing.T) {
	s := NewState()
	var got viewport.State
	s.On(EventViewportChanged, func(data interface{}) { got = data.(viewport.State) })
	v := viewport.State{X: -10, Y: -20, Zoom: 2}
	s.SetViewport(v)
	if s.Viewport() != v || got != v {
		t.Errorf("expected %+v, got %+v / %+v", v, s.Viewport(), got)
	}
}
