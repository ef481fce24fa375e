package dialogs

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// AspectRatios offered in the edit dialog. The empty entry keeps the source ratio.
var AspectRatios = []string{"", "1:1", "3:4", "4:3", "9:16", "16:9"}

// EditDialog asks for an edit prompt and an optional aspect ratio.
type EditDialog struct {
	window fyne.Window

	promptEntry *widget.Entry
	aspect      *widget.Select

	onSubmit func(prompt, aspectRatio string)
}

// NewEditDialog creates an edit prompt dialog.
func NewEditDialog(window fyne.Window, defaultAspect string, onSubmit func(prompt, aspectRatio string)) *EditDialog {
	d := &EditDialog{window: window, onSubmit: onSubmit}
	d.promptEntry = widget.NewMultiLineEntry()
	d.promptEntry.SetPlaceHolder("Describe the edit...")
	d.aspect = widget.NewSelect(AspectRatios, nil)
	d.aspect.SetSelected(defaultAspect)
	return d
}

// Show displays the dialog.
func (d *EditDialog) Show() {
	form := widget.NewForm(
		widget.NewFormItem("Prompt", d.promptEntry),
		widget.NewFormItem("Aspect ratio", d.aspect),
	)
	dlg := dialog.NewCustomConfirm("AI Edit", "Generate", "Cancel", form, func(ok bool) {
		if ok && d.onSubmit != nil {
			d.onSubmit(d.promptEntry.Text, d.aspect.Selected)
		}
	}, d.window)
	dlg.Resize(fyne.NewSize(480, 260))
	dlg.Show()
}
