package interaction

import (
	stdimage "image"
	"image/color"
	"testing"
	"time"

	"image-workspace/internal/app"
	"image-workspace/internal/image"
	"image-workspace/internal/links"
	"image-workspace/internal/mask"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
)

// newTestMachine builds a machine over a 1000x800 viewport at zoom 1 with the
// canvas origin at the screen origin, so screen and canvas coordinates agree.
func newTestMachine(t *testing.T, images ...*image.Image) (*Machine, *app.State) {
	t.Helper()
	store := app.NewState()
	for _, img := range images {
		if err := store.Add(img); err != nil {
			t.Fatalf("Add(%s) failed: %v", img.ID, err)
		}
	}
	m := New(store, links.New(store), viewport.New(1000, 800), mask.NewSurfaces(mask.DefaultBrushWidth))
	return m, store
}

func imageAt(id string, x, y, w, h float64) *image.Image {
	return &image.Image{ID: id, X: x, Y: y, Width: w, Height: h, IsOriginal: true}
}

func pt(x, y float64) geometry.Point2D {
	return geometry.NewPoint2D(x, y)
}

func TestSelectDragNormalizesRect(t *testing.T) {
	tests := []struct {
		name       string
		start, end geometry.Point2D
	}{
		{"forward", pt(110, 110), pt(150, 140)},
		{"backward", pt(150, 140), pt(110, 110)},
		{"mixed", pt(110, 140), pt(150, 110)},
	}
	want := geometry.NewRect(10, 10, 40, 30)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestMachine(t, imageAt("a", 100, 100, 200, 200))
			m.SetTool(ToolSelect)

			m.PointerDown(tt.start)
			if _, ok := m.State().(Selecting); !ok {
				t.Fatalf("expected selecting, got %s", m.State().Name())
			}
			m.PointerMove(tt.end)
			m.PointerUp(tt.end)

			img, _ := store.Image("a")
			if img.Selection == nil {
				t.Fatal("expected selection to be committed")
			}
			if *img.Selection != want {
				t.Errorf("expected %+v, got %+v", want, *img.Selection)
			}
			if store.Selected() != "a" {
				t.Errorf("expected a to be selected, got %q", store.Selected())
			}
			if _, ok := m.State().(Idle); !ok {
				t.Errorf("expected idle after pointer-up, got %s", m.State().Name())
			}
		})
	}
}

func TestSelectClampsToImage(t *testing.T) {
	m, store := newTestMachine(t, imageAt("a", 100, 100, 200, 200))
	m.SetTool(ToolSelect)
	m.PointerDown(pt(250, 250))
	m.PointerMove(pt(900, 700))

	_, pending, ok := m.PendingSelection()
	if !ok {
		t.Fatal("expected a pending selection")
	}
	want := geometry.NewRect(150, 150, 50, 50)
	if pending != want {
		t.Errorf("expected %+v, got %+v", want, pending)
	}
	m.PointerUp(pt(900, 700))
	img, _ := store.Image("a")
	if img.Selection == nil || *img.Selection != want {
		t.Errorf("expected committed %+v, got %+v", want, img.Selection)
	}
}

func TestSelectClickDoesNotCommit(t *testing.T) {
	m, store := newTestMachine(t, imageAt("a", 100, 100, 200, 200))
	m.SetTool(ToolSelect)
	m.PointerDown(pt(150, 150))
	m.PointerUp(pt(150, 150))

	img, _ := store.Image("a")
	if img.Selection != nil {
		t.Errorf("expected no selection, got %+v", *img.Selection)
	}
}

func TestSelectionClearsMask(t *testing.T) {
	a := imageAt("a", 0, 0, 100, 100)
	existing, err := mask.FromSelection(100, 100, geometry.NewRect(0, 0, 10, 10))
	if err != nil {
		t.Fatalf("FromSelection failed: %v", err)
	}
	a.Mask = &existing
	m, store := newTestMachine(t, a)

	m.SetTool(ToolSelect)
	m.PointerDown(pt(10, 10))
	m.PointerMove(pt(60, 60))
	m.PointerUp(pt(60, 60))

	img, _ := store.Image("a")
	if img.Mask != nil {
		t.Error("expected mask to be cleared by selection")
	}
	if img.Selection == nil {
		t.Error("expected selection to be set")
	}
}

func TestBrushCommitsMask(t *testing.T) {
	a := imageAt("a", 100, 100, 400, 300)
	a.Selection = &geometry.Rect{X: 1, Y: 1, Width: 5, Height: 5}
	m, store := newTestMachine(t, a)

	m.SetTool(ToolBrush)
	m.PointerDown(pt(120, 120))
	if _, ok := m.State().(Brushing); !ok {
		t.Fatalf("expected brushing, got %s", m.State().Name())
	}
	m.PointerMove(pt(300, 250))
	m.PointerUp(pt(300, 250))

	img, _ := store.Image("a")
	if img.Mask == nil {
		t.Fatal("expected mask to be committed")
	}
	if img.Selection != nil {
		t.Error("expected selection to be cleared by mask")
	}
	w, h, err := img.Mask.Dimensions()
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if w != 400 || h != 300 {
		t.Errorf("expected 400x300 mask, got %dx%d", w, h)
	}
}

func TestBrushUnavailableSurfaceIsNoop(t *testing.T) {
	m, store := newTestMachine(t, imageAt("a", 100, 100, 0.2, 0.2))
	m.SetTool(ToolBrush)
	m.PointerDown(pt(100.1, 100.1))
	if _, ok := m.State().(Idle); !ok {
		t.Errorf("expected idle, got %s", m.State().Name())
	}
	m.PointerUp(pt(100.1, 100.1))
	img, _ := store.Image("a")
	if img.Mask != nil {
		t.Error("expected no mask on unavailable surface")
	}
}

func TestDragMovesTopmostImage(t *testing.T) {
	m, store := newTestMachine(t,
		imageAt("bottom", 100, 100, 200, 200),
		imageAt("top", 150, 150, 200, 200),
		imageAt("other", 600, 600, 50, 50),
	)

	m.PointerDown(pt(200, 200))
	d, ok := m.State().(Dragging)
	if !ok {
		t.Fatalf("expected dragging, got %s", m.State().Name())
	}
	if d.ImageID != "top" {
		t.Errorf("expected topmost image, got %s", d.ImageID)
	}
	m.PointerMove(pt(250, 220))
	m.PointerUp(pt(250, 220))

	img, _ := store.Image("top")
	if img.X != 200 || img.Y != 170 {
		t.Errorf("expected (200,170), got (%v,%v)", img.X, img.Y)
	}
	images := store.Images()
	if images[len(images)-1].ID != "top" {
		t.Errorf("expected dragged image on top, got %s", images[len(images)-1].ID)
	}
}

func TestDragBringsToFront(t *testing.T) {
	m, store := newTestMachine(t,
		imageAt("a", 100, 100, 100, 100),
		imageAt("b", 500, 500, 100, 100),
	)
	m.PointerDown(pt(150, 150))
	m.PointerUp(pt(150, 150))

	images := store.Images()
	if images[len(images)-1].ID != "a" {
		t.Errorf("expected a on top, got %s", images[len(images)-1].ID)
	}
}

func TestEmptyCanvasPansAndDeselects(t *testing.T) {
	m, store := newTestMachine(t, imageAt("a", 100, 100, 100, 100))
	before := m.Viewport().State()

	m.PointerDown(pt(150, 150))
	m.PointerUp(pt(150, 150))
	if store.Selected() != "a" {
		t.Fatalf("expected a selected after click")
	}

	m.PointerDown(pt(900, 700))
	if _, ok := m.State().(Panning); !ok {
		t.Fatalf("expected panning, got %s", m.State().Name())
	}
	if store.Selected() != "" {
		t.Errorf("expected deselection, got %q", store.Selected())
	}
	m.PointerMove(pt(880, 690))
	m.PointerUp(pt(880, 690))

	after := m.Viewport().State()
	if after.X != before.X-20 || after.Y != before.Y-10 {
		t.Errorf("expected pan by (-20,-10), got (%v,%v)", after.X-before.X, after.Y-before.Y)
	}
}

func TestLinkFlow(t *testing.T) {
	m, store := newTestMachine(t,
		imageAt("img1", 100, 100, 100, 100),
		imageAt("img2", 400, 100, 100, 100),
	)
	m.SetTool(ToolLink)

	m.PointerDown(pt(150, 150))
	m.PointerUp(pt(150, 150))
	l, ok := m.State().(Linking)
	if !ok || l.SourceID != "img1" {
		t.Fatalf("expected linking from img1, got %#v", m.State())
	}

	// Clicking the source again does nothing.
	m.PointerDown(pt(160, 160))
	if _, ok := m.State().(Linking); !ok {
		t.Fatalf("expected still linking, got %s", m.State().Name())
	}

	m.PointerMove(pt(300, 150))
	from, to, ok := m.LinkPreview()
	if !ok {
		t.Fatal("expected a link preview")
	}
	if from.Distance(pt(200, 150)) > 1e-9 || to != pt(300, 150) {
		t.Errorf("expected preview (200,150)->(300,150), got %v->%v", from, to)
	}

	m.PointerDown(pt(450, 150))
	if _, ok := m.State().(Idle); !ok {
		t.Errorf("expected idle after link, got %s", m.State().Name())
	}
	img1, _ := store.Image("img1")
	img2, _ := store.Image("img2")
	if len(img1.LinkedTo) != 1 || img1.LinkedTo[0] != "img2" {
		t.Errorf("expected img1.LinkedTo=[img2], got %v", img1.LinkedTo)
	}
	if len(img2.LinkedFrom) != 1 || img2.LinkedFrom[0] != "img1" {
		t.Errorf("expected img2.LinkedFrom=[img1], got %v", img2.LinkedFrom)
	}

	// Linking the same pair again keeps a single entry.
	m.PointerDown(pt(150, 150))
	m.PointerDown(pt(450, 150))
	img1, _ = store.Image("img1")
	if len(img1.LinkedTo) != 1 {
		t.Errorf("expected 1 link, got %v", img1.LinkedTo)
	}
}

func TestLinkCancelledByEmptyClick(t *testing.T) {
	m, store := newTestMachine(t,
		imageAt("img1", 100, 100, 100, 100),
		imageAt("img2", 400, 100, 100, 100),
	)
	m.SetTool(ToolLink)
	m.PointerDown(pt(150, 150))
	m.PointerUp(pt(150, 150))

	m.PointerDown(pt(800, 700))
	if _, ok := m.State().(Panning); !ok {
		t.Fatalf("expected panning, got %s", m.State().Name())
	}
	m.PointerUp(pt(800, 700))
	m.PointerDown(pt(450, 150))

	img1, _ := store.Image("img1")
	if len(img1.LinkedTo) != 0 {
		t.Errorf("expected no link, got %v", img1.LinkedTo)
	}
	if l, ok := m.State().(Linking); !ok || l.SourceID != "img2" {
		t.Errorf("expected new link from img2, got %#v", m.State())
	}
}

func TestSetToolCancelsLink(t *testing.T) {
	m, _ := newTestMachine(t, imageAt("img1", 100, 100, 100, 100))
	m.SetTool(ToolLink)
	m.PointerDown(pt(150, 150))
	m.SetTool(ToolSelect)
	if _, ok := m.State().(Idle); !ok {
		t.Errorf("expected idle, got %s", m.State().Name())
	}
	if _, _, ok := m.LinkPreview(); ok {
		t.Error("expected no link preview")
	}
}

func TestCancelLink(t *testing.T) {
	m, _ := newTestMachine(t, imageAt("img1", 100, 100, 100, 100))
	m.SetTool(ToolLink)
	m.PointerDown(pt(150, 150))
	m.Cancel()
	if _, ok := m.State().(Idle); !ok {
		t.Errorf("expected idle, got %s", m.State().Name())
	}
}

func TestUpscaleTool(t *testing.T) {
	m, _ := newTestMachine(t, imageAt("a", 100, 100, 100, 100))
	var requested string
	m.OnUpscale(func(id string) { requested = id })
	m.SetTool(ToolUpscale)

	m.PointerDown(pt(150, 150))
	if requested != "a" {
		t.Errorf("expected upscale request for a, got %q", requested)
	}
	if _, ok := m.State().(Idle); !ok {
		t.Errorf("expected idle, got %s", m.State().Name())
	}
}

func TestWheel(t *testing.T) {
	m, _ := newTestMachine(t, imageAt("a", 100, 100, 100, 100))

	m.PointerDown(pt(150, 150))
	before := m.Viewport().State()
	if m.Wheel(pt(500, 400), -200) {
		t.Error("expected wheel to be ignored while dragging")
	}
	if m.Viewport().State() != before {
		t.Error("expected viewport unchanged while dragging")
	}
	m.PointerUp(pt(150, 150))

	if !m.Wheel(pt(500, 400), -200) {
		t.Fatal("expected wheel to zoom")
	}
	if got := m.Viewport().Zoom(); got < 1.2-1e-9 || got > 1.2+1e-9 {
		t.Errorf("expected zoom 1.2, got %v", got)
	}
	if m.Wheel(pt(500, 400), 0) {
		t.Error("expected zero delta to be a no-op")
	}
}

func TestSelectionReleasesOtherSurfaces(t *testing.T) {
	m, _ := newTestMachine(t, imageAt("a", 100, 100, 100, 100), imageAt("b", 300, 100, 100, 100))
	m.SetTool(ToolSelect)

	m.PointerDown(pt(150, 150))
	m.PointerUp(pt(150, 150))
	if _, ok := m.Masks().Get("a"); !ok {
		t.Fatal("expected a surface for the selected image")
	}

	m.PointerDown(pt(350, 150))
	m.PointerUp(pt(350, 150))
	if m.Masks().Len() != 1 {
		t.Errorf("expected 1 surface, got %d", m.Masks().Len())
	}
	if _, ok := m.Masks().Get("a"); ok {
		t.Error("expected surface of a to be released")
	}
	if _, ok := m.Masks().Get("b"); !ok {
		t.Error("expected surface of b")
	}

	m.PointerDown(pt(900, 700))
	m.PointerUp(pt(900, 700))
	if m.Masks().Len() != 0 {
		t.Errorf("expected no surfaces after deselect, got %d", m.Masks().Len())
	}
}

func TestWheelIgnoredDuringGestures(t *testing.T) {
	tests := []struct {
		name  string
		tool  Tool
		state string
	}{
		{"dragging", ToolNone, "dragging"},
		{"selecting", ToolSelect, "selecting"},
		{"brushing", ToolBrush, "brushing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMachine(t, imageAt("a", 100, 100, 100, 100))
			m.SetTool(tt.tool)
			m.PointerDown(pt(150, 150))
			if got := m.State().Name(); got != tt.state {
				t.Fatalf("expected %s, got %s", tt.state, got)
			}

			before := m.Viewport().State()
			if m.Wheel(pt(150, 150), -100) {
				t.Errorf("expected wheel to be ignored while %s", tt.state)
			}
			if m.Viewport().State() != before {
				t.Errorf("expected viewport unchanged while %s", tt.state)
			}
			if got := m.State().Name(); got != tt.state {
				t.Errorf("expected to stay %s, got %s", tt.state, got)
			}
		})
	}
}

func waitPainter(t *testing.T, p *mask.Painter) {
	t.Helper()
	select {
	case <-p.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("mask surface never became ready")
	}
}

func gray(t *testing.T, img stdimage.Image, x, y int) uint8 {
	t.Helper()
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func TestCancelBrushDiscardsStroke(t *testing.T) {
	stored, err := mask.FromSelection(200, 100, geometry.NewRect(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("FromSelection failed: %v", err)
	}

	tests := []struct {
		name   string
		stored *image.ImageData
		left   uint8
	}{
		{"without stored mask", nil, 0},
		{"with stored mask", &stored, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := imageAt("a", 100, 100, 200, 100)
			img.Mask = tt.stored
			m, store := newTestMachine(t, img)
			waitPainter(t, m.Masks().Acquire(img))

			m.SetTool(ToolBrush)
			m.PointerDown(pt(250, 150))
			if _, ok := m.State().(Brushing); !ok {
				t.Fatalf("expected brushing, got %s", m.State().Name())
			}
			m.PointerMove(pt(290, 150))
			m.Cancel()

			if _, ok := m.State().(Idle); !ok {
				t.Errorf("expected idle after cancel, got %s", m.State().Name())
			}
			got, _ := store.Image("a")
			if (got.Mask == nil) != (tt.stored == nil) {
				t.Errorf("expected stored mask untouched, got %v", got.Mask != nil)
			}

			p, ok := m.Masks().Get("a")
			if !ok {
				t.Fatal("expected a mask surface for a")
			}
			waitPainter(t, p)
			snap := p.Snapshot()
			if v := gray(t, snap, 170, 50); v != 0 {
				t.Errorf("expected cancelled stroke discarded, got pixel %d", v)
			}
			if v := gray(t, snap, 50, 50); v != tt.left {
				t.Errorf("expected stored mask pixel %d, got %d", tt.left, v)
			}
		})
	}
}

func TestParseTool(t *testing.T) {
	tests := []struct {
		in   string
		want Tool
		err  bool
	}{
		{"", ToolNone, false},
		{"select", ToolSelect, false},
		{" Brush ", ToolBrush, false},
		{"link", ToolLink, false},
		{"upscale", ToolUpscale, false},
		{"lasso", ToolNone, true},
	}
	for _, tt := range tests {
		got, err := ParseTool(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseTool(%q): unexpected error state %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTool(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}
