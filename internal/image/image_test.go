package image

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"image-workspace/pkg/geometry"
)

func solidPNG(t *testing.T, w, h int) ImageData {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	return data
}

func TestImageData_Dimensions(t *testing.T) {
	data := solidPNG(t, 40, 30)
	if data.MimeType != MimePNG {
		t.Errorf("expected mime %s, got %s", MimePNG, data.MimeType)
	}
	w, h, err := data.Dimensions()
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 40 || h != 30 {
		t.Errorf("expected 40x30, got %dx%d", w, h)
	}
}

func TestImageData_Empty(t *testing.T) {
	var d ImageData
	if _, err := d.Decode(); !errors.Is(err, ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}
}

func TestImageData_Garbage(t *testing.T) {
	d := NewImageData([]byte("definitely not an image"), "")
	if _, _, err := d.Dimensions(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNew_FitsAndCenters(t *testing.T) {
	data := solidPNG(t, 1024, 512)
	img, err := New(data, geometry.NewPoint2D(2500, 2500), 512)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !img.IsOriginal {
		t.Error("expected upload to be marked original")
	}
	if img.Width != 512 || img.Height != 256 {
		t.Errorf("expected 512x256, got %vx%v", img.Width, img.Height)
	}
	if c := img.Bounds().Center(); c != geometry.NewPoint2D(2500, 2500) {
		t.Errorf("expected centered at (2500,2500), got %+v", c)
	}
	if img.ID == "" {
		t.Error("expected an id")
	}
}

func TestNewDerived(t *testing.T) {
	parent := &Image{ID: "p", X: 100, Y: 50, Width: 200, Height: 100}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	img, err := NewDerived(parent, solidPNG(t, 60, 60), "make it blue", now, 40)
	if err != nil {
		t.Fatalf("NewDerived: %v", err)
	}
	if img.OriginalImageID != "p" || img.IsOriginal {
		t.Errorf("expected derived from p, got %+v", img)
	}
	if img.X != 340 || img.Y != 50 {
		t.Errorf("expected position (340,50), got (%v,%v)", img.X, img.Y)
	}
	if img.Width != 100 || img.Height != 100 {
		t.Errorf("expected 100x100, got %vx%v", img.Width, img.Height)
	}
	if img.Prompt != "make it blue" || img.GeneratedAt == nil || !img.GeneratedAt.Equal(now) {
		t.Errorf("expected provenance to be recorded, got %q %v", img.Prompt, img.GeneratedAt)
	}

	if _, err := NewDerived(nil, solidPNG(t, 1, 1), "", now, 0); err == nil {
		t.Error("expected error without parent")
	}
}

func TestImage_ToLocal(t *testing.T) {
	img := &Image{X: 100, Y: 200, Width: 50, Height: 50}
	if got := img.ToLocal(geometry.NewPoint2D(110, 240)); got != geometry.NewPoint2D(10, 40) {
		t.Errorf("expected (10,40), got %+v", got)
	}
}

func TestImage_CloneIsDeep(t *testing.T) {
	sel := geometry.NewRect(1, 2, 3, 4)
	img := &Image{ID: "a", Selection: &sel, LinkedTo: []string{"b"}}
	c := img.Clone()
	c.Selection.X = 99
	c.LinkedTo[0] = "z"
	if img.Selection.X != 1 || img.LinkedTo[0] != "b" {
		t.Error("expected clone to not share selection or link slices")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	raw, err := solidPNG(t, 8, 6).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "upload.png")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.MimeType != MimePNG {
		t.Errorf("expected %s, got %s", MimePNG, data.MimeType)
	}

	if _, err := Load(filepath.Join(dir, "notes.txt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	for _, p := range []string{"a.PNG", "b.jpeg", "c.webp", "d.tif"} {
		if !IsSupportedFormat(p) {
			t.Errorf("expected %s to be supported", p)
		}
	}
	if IsSupportedFormat("e.svg") {
		t.Error("expected svg to be unsupported")
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Error("expected no bounds for no images")
	}
	got, ok := BoundsOf([]*Image{
		{X: 100, Y: 50, Width: 200, Height: 100},
		{X: -20, Y: 300, Width: 40, Height: 40},
	})
	want := geometry.NewRect(-20, 50, 320, 290)
	if !ok || got != want {
		t.Errorf("expected %+v, got %+v (%v)", want, got, ok)
	}
}
