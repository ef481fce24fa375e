package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"image-workspace/internal/app"
)

// ImagesPanel lists the workspace images, topmost first.
type ImagesPanel struct {
	state     *app.State
	onDelete  func(id string)
	container fyne.CanvasObject

	list    *widget.List
	rows    []imageRow
	details *widget.Label

	// syncing suppresses OnSelected while the list follows state.
	syncing bool
}

// NewImagesPanel creates a new images panel.
func NewImagesPanel(state *app.State, onDelete func(id string)) *ImagesPanel {
	ip := &ImagesPanel{
		state:    state,
		onDelete: onDelete,
	}

	ip.details = widget.NewLabel("No image selected")
	ip.details.Wrapping = fyne.TextWrapWord

	ip.list = widget.NewList(
		func() int { return len(ip.rows) },
		func() fyne.CanvasObject { return widget.NewLabel("image") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < len(ip.rows) {
				o.(*widget.Label).SetText(ip.rows[i].Label)
			}
		},
	)
	ip.list.OnSelected = func(i widget.ListItemID) {
		if ip.syncing || i >= len(ip.rows) {
			return
		}
		ip.state.Select(ip.rows[i].ID)
	}

	toFront := widget.NewButton("Bring to Front", func() {
		if id := ip.state.Selected(); id != "" {
			ip.state.BringToFront(id)
		}
	})
	remove := widget.NewButton("Delete", func() {
		if id := ip.state.Selected(); id != "" && ip.onDelete != nil {
			ip.onDelete(id)
		}
	})

	ip.container = container.NewBorder(
		nil,
		container.NewVBox(widget.NewSeparator(), ip.details, container.NewGridWithColumns(2, toFront, remove)),
		nil, nil,
		ip.list,
	)
	ip.Refresh()
	return ip
}

// Container returns the panel container.
func (ip *ImagesPanel) Container() fyne.CanvasObject {
	return ip.container
}

// Refresh rebuilds the list and details from state.
func (ip *ImagesPanel) Refresh() {
	selected := ip.state.Selected()
	images := ip.state.Images()
	ip.rows = imageRows(images, selected)

	ip.syncing = true
	ip.list.Refresh()
	ip.list.UnselectAll()
	for i, row := range ip.rows {
		if row.Selected {
			ip.list.Select(i)
		}
	}
	ip.syncing = false

	if img, ok := ip.state.Image(selected); ok {
		ip.details.SetText(imageDetails(img, images))
	} else {
		ip.details.SetText("No image selected")
	}
}
