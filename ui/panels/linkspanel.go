package panels

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"image-workspace/internal/app"
	"image-workspace/internal/links"
)

// LinksPanel shows the links of the selected image and lets the user remove
// them one at a time.
type LinksPanel struct {
	state     *app.State
	graph     *links.Graph
	container *fyne.Container

	header *widget.Label
	rows   *fyne.Container
}

// NewLinksPanel creates a new links panel.
func NewLinksPanel(state *app.State, graph *links.Graph) *LinksPanel {
	lp := &LinksPanel{
		state:  state,
		graph:  graph,
		header: widget.NewLabel("No image selected"),
		rows:   container.NewVBox(),
	}
	lp.container = container.NewBorder(lp.header, nil, nil, nil, container.NewVScroll(lp.rows))
	lp.Refresh()
	return lp
}

// Container returns the panel container.
func (lp *LinksPanel) Container() fyne.CanvasObject {
	return lp.container
}

// Refresh rebuilds the rows for the selected image.
func (lp *LinksPanel) Refresh() {
	lp.rows.RemoveAll()

	id := lp.state.Selected()
	img, ok := lp.state.Image(id)
	if !ok {
		lp.header.SetText("No image selected")
		return
	}

	entries := linkEntries(img, lp.state.Images())
	if len(entries) == 0 {
		lp.header.SetText("No links")
		return
	}
	lp.header.SetText("Links of " + shortID(id))

	for _, e := range entries {
		e := e
		label := widget.NewLabel(e.Label)
		if !e.Live {
			label.Importance = widget.LowImportance
		}
		unlink := widget.NewButton("Unlink", func() {
			source, target := e.Source, e.Target
			if _, err := lp.graph.Unlink(source, target); err != nil {
				log.Printf("Links: unlink %s -> %s failed: %v", source, target, err)
			}
		})
		lp.rows.Add(container.NewBorder(nil, nil, nil, unlink, label))
	}
	lp.rows.Refresh()
}
