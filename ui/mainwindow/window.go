// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"image-workspace/internal/aiedit"
	"image-workspace/internal/app"
	"image-workspace/internal/config"
	"image-workspace/internal/image"
	"image-workspace/internal/interaction"
	"image-workspace/internal/links"
	"image-workspace/internal/mask"
	"image-workspace/internal/version"
	"image-workspace/internal/viewport"
	"image-workspace/pkg/geometry"
	"image-workspace/ui/canvas"
	"image-workspace/ui/dialogs"
	"image-workspace/ui/panels"
	"image-workspace/ui/prefs"
)

const aiTimeout = 2 * time.Minute

var toolLabels = []string{"Move", "Select", "Brush", "Link", "Upscale"}

var toolsByLabel = map[string]interaction.Tool{
	"Move":    interaction.ToolNone,
	"Select":  interaction.ToolSelect,
	"Brush":   interaction.ToolBrush,
	"Link":    interaction.ToolLink,
	"Upscale": interaction.ToolUpscale,
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs
	cfg   *config.Config
	ai    aiedit.Service

	graph     *links.Graph
	machine   *interaction.Machine
	canvas    *canvas.WorkspaceCanvas
	sidePanel *panels.SidePanel
	toolRadio *widget.RadioGroup
	statusBar *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, cfg *config.Config, ai aiedit.Service) *MainWindow {
	win := fyneApp.NewWindow("Image Workspace")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		cfg:    cfg,
		ai:     ai,
		graph:  links.New(state),
	}

	view := viewport.New(0, 0)
	if v, ok := p.Viewport(); ok {
		view.Restore(v)
	}
	view.OnChange(func(v viewport.State) {
		mw.prefs.SetViewport(v)
		mw.state.SetViewport(v)
	})

	mw.machine = interaction.New(state, mw.graph, view, mask.NewSurfaces(cfg.Canvas.BrushWidth))
	mw.machine.SetWheelSensitivity(cfg.Canvas.WheelSensitivity)
	mw.machine.OnUpscale(mw.onUpscaleImage)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	if t, err := interaction.ParseTool(p.Tool()); err == nil {
		mw.setTool(t)
	}

	win.SetCloseIntercept(func() {
		mw.SavePreferences()
		win.Close()
	})
	win.Resize(fyne.NewSize(1280, 800))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.state, mw.machine)
	mw.canvas.OnToolChange(func(t interaction.Tool) {
		mw.prefs.SetTool(t.String())
		mw.updateStatus("Tool: " + t.String())
	})

	mw.statusBar = widget.NewLabel("Ready")
	mw.sidePanel = panels.NewSidePanel(mw.state, mw.graph, mw.deleteImage)

	split := container.NewHSplit(mw.canvas, mw.sidePanel.Container())
	split.SetOffset(0.78)

	content := container.NewBorder(
		mw.createToolbar(),                // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)
	mw.SetContent(content)

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			mw.canvas.Cancel()
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeleteImage()
		}
	})
}

// createToolbar creates the tool selector and action buttons.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.toolRadio = widget.NewRadioGroup(toolLabels, func(label string) {
		if t, ok := toolsByLabel[label]; ok && t != mw.canvas.Tool() {
			mw.canvas.SetTool(t)
		}
	})
	mw.toolRadio.Horizontal = true
	mw.toolRadio.Required = true
	mw.toolRadio.SetSelected(toolLabels[0])

	return container.NewHBox(
		widget.NewButton("Upload...", mw.onUpload),
		widget.NewButton("AI Edit...", mw.onAIEdit),
		widget.NewButton("Clear Mask", mw.onClearMask),
		widget.NewButton("Delete", mw.onDeleteImage),
		widget.NewButton("Center", mw.onCenter),
		widget.NewSeparator(),
		mw.toolRadio,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Upload Image...", mw.onUpload),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			mw.SavePreferences()
			mw.app.Quit()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("AI Edit...", mw.onAIEdit),
		fyne.NewMenuItem("Clear Selection / Mask", mw.onClearMask),
		fyne.NewMenuItem("Unlink All", mw.onUnlinkAll),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Image", mw.onDeleteImage),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.zoomBy(0.25) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.zoomBy(-0.25) }),
		fyne.NewMenuItem("Center Canvas", mw.onCenter),
		fyne.NewMenuItem("Fit All Images", mw.onFitAll),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for workspace events.
func (mw *MainWindow) setupEventHandlers() {
	refresh := func(data interface{}) { mw.canvas.Refresh() }
	mw.state.On(app.EventImageAdded, refresh)
	mw.state.On(app.EventImageUpdated, refresh)
	mw.state.On(app.EventImageRemoved, refresh)

	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		id, _ := data.(string)
		if id == "" {
			mw.updateStatus("No image selected")
			return
		}
		if img, ok := mw.state.Image(id); ok {
			mw.updateStatus(describe(img))
		}
	})

	mw.state.On(app.EventViewportChanged, func(data interface{}) {
		if v, ok := data.(viewport.State); ok {
			mw.updateStatus(fmt.Sprintf("Zoom %.0f%%", v.Zoom*100))
		}
	})
}

func describe(img *image.Image) string {
	s := fmt.Sprintf("%s  %.0fx%.0f", img.ID[:min(8, len(img.ID))], img.Width, img.Height)
	switch {
	case img.Mask != nil:
		s += "  mask"
	case img.Selection != nil:
		s += fmt.Sprintf("  selection %.0fx%.0f", img.Selection.Width, img.Selection.Height)
	}
	if len(img.LinkedTo) > 0 {
		s += fmt.Sprintf("  %d link(s)", len(img.LinkedTo))
	}
	if img.Prompt != "" {
		s += "  \"" + img.Prompt + "\""
	}
	return s
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) setTool(t interaction.Tool) {
	for label, lt := range toolsByLabel {
		if lt == t {
			mw.toolRadio.SetSelected(label)
			return
		}
	}
}

// SavePreferences writes preferences to disk.
func (mw *MainWindow) SavePreferences() {
	if err := mw.prefs.SaveIfChanged(); err != nil {
		log.Printf("Prefs: save failed: %v", err)
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.LastDir()
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) onUpload() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.SetLastDir(path)

		if err := mw.AddImageFile(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// AddImageFile places an image file at the center of the visible area.
func (mw *MainWindow) AddImageFile(path string) error {
	data, err := image.Load(path)
	if err != nil {
		return err
	}
	img, err := image.New(data, mw.canvas.VisibleCenter(), mw.cfg.Canvas.DefaultImageSize)
	if err != nil {
		return fmt.Errorf("failed to place %s: %w", path, err)
	}
	if err := mw.state.Add(img); err != nil {
		return err
	}
	mw.state.Select(img.ID)
	log.Printf("Upload: added %s as %s", path, img.ID)
	return nil
}

func (mw *MainWindow) onAIEdit() {
	id := mw.state.Selected()
	if id == "" {
		mw.updateStatus("Select an image to edit")
		return
	}
	dialogs.NewEditDialog(mw.Window, mw.cfg.AI.AspectRatio, func(prompt, aspect string) {
		req, err := aiedit.BuildRequest(mw.state, id, prompt, aspect)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Generating...")
		go mw.runEdit(id, req)
	}).Show()
}

func (mw *MainWindow) runEdit(parentID string, req *aiedit.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
	defer cancel()

	resp, err := mw.ai.Generate(ctx, req)
	if err != nil {
		log.Printf("AI: edit of %s failed: %v", parentID, err)
		dialog.ShowError(err, mw.Window)
		mw.updateStatus("Edit failed")
		return
	}
	mw.applyResult(parentID, req.Prompt, resp)
}

func (mw *MainWindow) onUpscaleImage(imageID string) {
	dialogs.NewUpscaleDialog(imageID, mw.cfg.AI.UpscaleModels, mw.Window, func(req aiedit.UpscaleRequest) {
		mw.state.Emit(app.EventUpscaleRequested, req)
		mw.updateStatus("Upscaling...")
		go mw.runUpscale(req)
	}).Show()
}

func (mw *MainWindow) runUpscale(req aiedit.UpscaleRequest) {
	img, ok := mw.state.Image(req.ImageID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
	defer cancel()

	resp, err := mw.ai.Upscale(ctx, img.ImageData, req.ModelID)
	if err != nil {
		log.Printf("AI: upscale of %s failed: %v", req.ImageID, err)
		dialog.ShowError(err, mw.Window)
		mw.updateStatus("Upscale failed")
		return
	}
	mw.applyResult(req.ImageID, "upscale ("+req.ModelID+")", resp)
}

func (mw *MainWindow) applyResult(parentID, prompt string, resp *aiedit.Response) {
	derived, text, err := aiedit.ApplyResponse(mw.state, parentID, prompt, resp, time.Now(), mw.cfg.Canvas.DerivedGap)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if derived == nil {
		if text == "" {
			text = "The service returned no image"
		}
		mw.updateStatus(text)
		return
	}
	mw.state.Select(derived.ID)
	mw.canvas.WithViewport(func(v *viewport.Controller) {
		v.CenterOnPoint(derived.Bounds().Center())
	})
	if text != "" {
		mw.updateStatus(text)
	}
}

func (mw *MainWindow) onClearMask() {
	id := mw.state.Selected()
	if id == "" {
		return
	}
	if err := mw.state.Apply(app.Update{ID: id, ClearSelection: true, ClearMask: true}); err != nil {
		log.Printf("Edit: clear failed: %v", err)
	}
}

func (mw *MainWindow) onUnlinkAll() {
	id := mw.state.Selected()
	img, ok := mw.state.Image(id)
	if !ok {
		return
	}
	for _, target := range img.LinkedTo {
		if _, err := mw.graph.Unlink(id, target); err != nil {
			log.Printf("Links: unlink %s -> %s failed: %v", id, target, err)
		}
	}
}

func (mw *MainWindow) onDeleteImage() {
	if id := mw.state.Selected(); id != "" {
		mw.deleteImage(id)
	}
}

func (mw *MainWindow) deleteImage(id string) {
	removed, err := mw.graph.RemoveImage(id)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if removed {
		mw.canvas.Forget(id)
		mw.updateStatus("Image deleted")
	}
}

func (mw *MainWindow) onCenter() {
	mw.canvas.WithViewport(func(v *viewport.Controller) {
		v.CenterOn()
	})
}

// fitPadding is the screen margin kept around images by Fit All Images.
const fitPadding = 40

func (mw *MainWindow) onFitAll() {
	bounds, ok := image.BoundsOf(mw.state.Images())
	if !ok {
		return
	}
	mw.canvas.WithViewport(func(v *viewport.Controller) {
		v.Frame(bounds, fitPadding)
	})
}

func (mw *MainWindow) zoomBy(delta float64) {
	mw.canvas.WithViewport(func(v *viewport.Controller) {
		size := v.Size()
		v.ZoomAt(geometry.NewPoint2D(size.Width/2, size.Height/2), delta)
	})
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Image Workspace",
		fmt.Sprintf("Image Workspace v%s\n\n"+
			"An infinite canvas for placing, masking, linking\n"+
			"and AI-editing images.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
