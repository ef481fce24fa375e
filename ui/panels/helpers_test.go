package panels

import (
	"strings"
	"testing"
	"time"

	"image-workspace/internal/image"
	"image-workspace/pkg/geometry"
)

func TestImageRows(t *testing.T) {
	sel := geometry.NewRect(0, 0, 10, 10)
	images := []*image.Image{
		{ID: "bottom-image", IsOriginal: true},
		{ID: "middle", Selection: &sel},
		{ID: "top", Prompt: "make the sky a dramatic sunset please", Mask: &image.ImageData{}},
	}

	rows := imageRows(images, "middle")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != "top" || rows[2].ID != "bottom-image" {
		t.Errorf("expected topmost first, got %s..%s", rows[0].ID, rows[2].ID)
	}
	if !rows[1].Selected || rows[0].Selected {
		t.Error("expected only middle selected")
	}

	tests := []struct {
		row  int
		want string
	}{
		{0, "top  make the sky a dramatic…  [mask]"},
		{1, "middle  [selection]"},
		{2, "bottom-i  original"},
	}
	for _, tt := range tests {
		if got := rows[tt.row].Label; got != tt.want {
			t.Errorf("row %d: expected %q, got %q", tt.row, tt.want, got)
		}
	}
}

func TestLinkEntries(t *testing.T) {
	img := &image.Image{ID: "a", LinkedTo: []string{"b", "gone"}, LinkedFrom: []string{"c"}}
	images := []*image.Image{img, {ID: "b"}, {ID: "c"}}

	entries := linkEntries(img, images)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if e := entries[0]; e.Source != "a" || e.Target != "b" || !e.Live {
		t.Errorf("unexpected outgoing entry: %+v", e)
	}
	if e := entries[1]; e.Live || !strings.HasSuffix(e.Label, "(missing)") {
		t.Errorf("expected dangling link marked missing, got %+v", e)
	}
	if e := entries[2]; e.Source != "c" || e.Target != "a" || !strings.HasPrefix(e.Label, "←") {
		t.Errorf("unexpected incoming entry: %+v", e)
	}
}

func TestImageDetails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	img := &image.Image{
		ID:              "child",
		X:               10,
		Y:               20,
		Width:           300,
		Height:          200,
		OriginalImageID: "parent",
		Prompt:          "add a hat",
		GeneratedAt:     &now,
	}

	got := imageDetails(img, []*image.Image{img})
	for _, want := range []string{
		"Position: 10, 20",
		"Size: 300 x 200 (300 x 200 px)",
		"Derived from: parent (deleted)",
		"Prompt: add a hat",
		"Generated: 2026-03-01 12:00:00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected details to contain %q, got:\n%s", want, got)
		}
	}
}
