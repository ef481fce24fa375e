// Package panels provides UI panels for the application.
package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"image-workspace/internal/app"
	"image-workspace/internal/links"
)

// SidePanel provides the side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	imagesPanel *ImagesPanel
	linksPanel  *LinksPanel
}

// NewSidePanel creates a new side panel. onDelete is called with the id of an
// image the user asked to delete.
func NewSidePanel(state *app.State, graph *links.Graph, onDelete func(id string)) *SidePanel {
	sp := &SidePanel{state: state}

	sp.imagesPanel = NewImagesPanel(state, onDelete)
	sp.linksPanel = NewLinksPanel(state, graph)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Images", sp.imagesPanel.Container()),
		container.NewTabItem("Links", sp.linksPanel.Container()),
	)

	refresh := func(interface{}) { sp.Refresh() }
	state.On(app.EventImageAdded, refresh)
	state.On(app.EventImageUpdated, refresh)
	state.On(app.EventImageRemoved, refresh)
	state.On(app.EventSelectionChanged, refresh)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// Refresh rebuilds both tabs from state.
func (sp *SidePanel) Refresh() {
	sp.imagesPanel.Refresh()
	sp.linksPanel.Refresh()
}
