package panels

import (
	"fmt"
	"strings"

	"image-workspace/internal/image"
)

// imageRow is one entry of the images list.
type imageRow struct {
	ID       string
	Label    string
	Selected bool
}

// linkEntry is one link of the selected image, in either direction.
type linkEntry struct {
	Source, Target string
	Label          string
	Live           bool
}

func shortID(id string) string {
	return id[:min(8, len(id))]
}

// imageRows lists images topmost first.
func imageRows(images []*image.Image, selectedID string) []imageRow {
	rows := make([]imageRow, 0, len(images))
	for i := len(images) - 1; i >= 0; i-- {
		img := images[i]
		label := shortID(img.ID)
		switch {
		case img.Prompt != "":
			label += "  " + truncate(img.Prompt, 24)
		case img.IsOriginal:
			label += "  original"
		}
		if img.Mask != nil {
			label += "  [mask]"
		} else if img.Selection != nil {
			label += "  [selection]"
		}
		rows = append(rows, imageRow{ID: img.ID, Label: label, Selected: img.ID == selectedID})
	}
	return rows
}

func imageDetails(img *image.Image, images []*image.Image) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", img.ID)
	fmt.Fprintf(&b, "Position: %.0f, %.0f\n", img.X, img.Y)
	w, h := img.PixelSize()
	fmt.Fprintf(&b, "Size: %.0f x %.0f (%d x %d px)\n", img.Width, img.Height, w, h)
	if img.OriginalImageID != "" {
		parent := shortID(img.OriginalImageID)
		if find(images, img.OriginalImageID) == nil {
			parent += " (deleted)"
		}
		fmt.Fprintf(&b, "Derived from: %s\n", parent)
	}
	if img.Prompt != "" {
		fmt.Fprintf(&b, "Prompt: %s\n", img.Prompt)
	}
	if img.GeneratedAt != nil {
		fmt.Fprintf(&b, "Generated: %s\n", img.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	if sel := img.Selection; sel != nil {
		fmt.Fprintf(&b, "Selection: %.0f, %.0f  %.0f x %.0f\n", sel.X, sel.Y, sel.Width, sel.Height)
	}
	if img.Mask != nil {
		b.WriteString("Mask: painted\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// linkEntries lists outgoing links followed by incoming ones. Targets that no
// longer exist are kept so they can still be unlinked.
func linkEntries(img *image.Image, images []*image.Image) []linkEntry {
	var out []linkEntry
	for _, target := range img.LinkedTo {
		live := find(images, target) != nil
		out = append(out, linkEntry{
			Source: img.ID,
			Target: target,
			Label:  "→ " + shortID(target) + missing(live),
			Live:   live,
		})
	}
	for _, source := range img.LinkedFrom {
		live := find(images, source) != nil
		out = append(out, linkEntry{
			Source: source,
			Target: img.ID,
			Label:  "← " + shortID(source) + missing(live),
			Live:   live,
		})
	}
	return out
}

func missing(live bool) string {
	if live {
		return ""
	}
	return " (missing)"
}

func find(images []*image.Image, id string) *image.Image {
	for _, img := range images {
		if img.ID == id {
			return img
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
