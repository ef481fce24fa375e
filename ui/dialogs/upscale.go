// Package dialogs provides application dialogs.
package dialogs

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"image-workspace/internal/aiedit"
	"image-workspace/internal/config"
)

// UpscaleDialog lets the user pick the model for upscaling one image.
type UpscaleDialog struct {
	imageID string
	models  []config.UpscaleModel
	window  fyne.Window

	modelSelect *widget.Select

	onChoose func(aiedit.UpscaleRequest)
}

// NewUpscaleDialog creates a model picker for imageID.
func NewUpscaleDialog(imageID string, models []config.UpscaleModel, window fyne.Window, onChoose func(aiedit.UpscaleRequest)) *UpscaleDialog {
	return &UpscaleDialog{
		imageID:  imageID,
		models:   models,
		window:   window,
		onChoose: onChoose,
	}
}

// Show displays the dialog.
func (d *UpscaleDialog) Show() {
	names := make([]string, len(d.models))
	for i, m := range d.models {
		names[i] = displayName(m)
	}
	d.modelSelect = widget.NewSelect(names, nil)
	if len(names) > 0 {
		d.modelSelect.SetSelectedIndex(0)
	}

	form := widget.NewForm(widget.NewFormItem("Model", d.modelSelect))
	dlg := dialog.NewCustomConfirm("Upscale Image", "Upscale", "Cancel", form, func(ok bool) {
		if !ok || d.onChoose == nil {
			return
		}
		i := d.modelSelect.SelectedIndex()
		if i < 0 || i >= len(d.models) {
			return
		}
		d.onChoose(aiedit.UpscaleRequest{ImageID: d.imageID, ModelID: d.models[i].ID})
	}, d.window)
	dlg.Show()
}

func displayName(m config.UpscaleModel) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
