// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/d1alecttt/mini-app/internal/editor"
	"github.com/d1alecttt/mini-app/internal/version"
	"github.com/d1alecttt/mini-app/ui/canvas"
	"github.com/d1alecttt/mini-app/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyWindowWidth  = "window.width"
	prefKeyWindowHeight = "window.height"
	prefKeyMaskOpacity  = "view.maskOpacity"

	defaultWidth  = 900
	defaultHeight = 700
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *editor.Session
	prefs   *prefs.Prefs
	canvas  *canvas.MaskCanvas

	statusBar  *widget.Label
	drawBtn    *widget.Button
	panBtn     *widget.Button
	brush      *widget.Slider
	brushValue *widget.Label
	resetBtn   *widget.Button
	undoBtn    *widget.Button
	confirmBtn *widget.Button

	undoItem *fyne.MenuItem
}

// New creates a new main window bound to session.
func New(fyneApp fyne.App, session *editor.Session, appPrefs *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Mask Editor")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   appPrefs,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.restoreGeometry()
	mw.syncControls()

	win.SetCloseIntercept(func() {
		mw.SavePreferences()
		win.Close()
	})
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMaskCanvas(mw.session)
	if mw.prefs != nil {
		mw.canvas.SetMaskOpacity(mw.prefs.FloatWithFallback(prefKeyMaskOpacity, canvas.DefaultMaskOpacity))
	}

	mw.statusBar = widget.NewLabel(mw.session.Status().Text)
	mw.statusBar.Wrapping = fyne.TextWrapWord

	toolbar := mw.createToolbar()

	content := container.NewBorder(
		toolbar,                           // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.canvas,                         // center
	)
	mw.SetContent(content)
}

// createToolbar creates the tool, brush and action controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.drawBtn = widget.NewButtonWithIcon("Draw", theme.DocumentCreateIcon(), func() {
		mw.session.SetTool(editor.ToolDraw)
	})
	mw.panBtn = widget.NewButtonWithIcon("Pan", theme.ViewFullScreenIcon(), func() {
		mw.session.SetTool(editor.ToolPan)
	})

	b := mw.session.Brush()
	mw.brush = widget.NewSlider(b.Min, b.Max)
	mw.brush.Step = 1
	mw.brush.SetValue(b.Thickness)
	mw.brush.OnChanged = func(v float64) {
		mw.session.SetBrushThickness(v)
	}
	mw.brushValue = widget.NewLabel(formatThickness(b.Thickness))

	mw.resetBtn = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), mw.session.ResetBrush)
	mw.undoBtn = widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), mw.onUndo)
	mw.confirmBtn = widget.NewButtonWithIcon("Confirm", theme.ConfirmIcon(), mw.onConfirm)
	mw.confirmBtn.Importance = widget.HighImportance

	brushRow := container.NewBorder(nil, nil,
		widget.NewLabel("Brush:"),
		container.NewHBox(mw.brushValue, mw.resetBtn),
		mw.brush,
	)

	return container.NewVBox(
		container.NewHBox(
			mw.drawBtn,
			mw.panBtn,
			widget.NewSeparator(),
			mw.undoBtn,
			layout.NewSpacer(),
			mw.confirmBtn,
		),
		brushRow,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	mw.undoItem = fyne.NewMenuItem("Undo", mw.onUndo)
	mw.undoItem.Shortcut = &fyne.ShortcutUndo{}

	editMenu := fyne.NewMenu("Edit",
		mw.undoItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Brush", mw.session.ResetBrush),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Draw Tool", func() { mw.session.SetTool(editor.ToolDraw) }),
		fyne.NewMenuItem("Pan Tool", func() { mw.session.SetTool(editor.ToolPan) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(editMenu, viewMenu, helpMenu))
}

// setupShortcuts binds the platform undo shortcut (Ctrl+Z, Cmd+Z on macOS).
func (mw *MainWindow) setupShortcuts() {
	mw.Canvas().AddShortcut(&fyne.ShortcutUndo{}, func(fyne.Shortcut) {
		mw.onUndo()
	})
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(editor.EventStatus, func(data interface{}) {
		if st, ok := data.(editor.Status); ok {
			mw.updateStatus(st)
		}
	})

	mw.session.On(editor.EventStateChanged, func(data interface{}) {
		mw.syncControls()
	})

	mw.session.On(editor.EventToolChanged, func(data interface{}) {
		mw.syncControls()
	})

	mw.session.On(editor.EventBrushChanged, func(data interface{}) {
		if v, ok := data.(float64); ok {
			mw.brushValue.SetText(formatThickness(v))
			if mw.brush.Value != v {
				mw.brush.SetValue(v)
			}
		}
	})

	mw.session.On(editor.EventRasterChanged, func(data interface{}) {
		mw.syncUndo()
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(st editor.Status) {
	if st.Error {
		mw.statusBar.Importance = widget.DangerImportance
	} else {
		mw.statusBar.Importance = widget.MediumImportance
	}
	mw.statusBar.SetText(st.Text)
}

// syncControls enables the controls that make sense in the current state.
func (mw *MainWindow) syncControls() {
	state := mw.session.State()
	usable := state == editor.StateReady || state == editor.StateDrawing

	setEnabled(mw.confirmBtn, state == editor.StateReady)
	for _, b := range []*widget.Button{mw.drawBtn, mw.panBtn, mw.resetBtn} {
		setEnabled(b, usable)
	}

	if mw.session.Tool() == editor.ToolDraw {
		mw.drawBtn.Importance = widget.HighImportance
		mw.panBtn.Importance = widget.MediumImportance
	} else {
		mw.drawBtn.Importance = widget.MediumImportance
		mw.panBtn.Importance = widget.HighImportance
	}
	mw.drawBtn.Refresh()
	mw.panBtn.Refresh()

	mw.syncUndo()
}

func (mw *MainWindow) syncUndo() {
	can := mw.session.CanUndo()
	setEnabled(mw.undoBtn, can)
	if mw.undoItem != nil && mw.undoItem.Disabled == can {
		mw.undoItem.Disabled = !can
		if menu := mw.MainMenu(); menu != nil {
			menu.Refresh()
		}
	}
}

func (mw *MainWindow) onUndo() {
	mw.session.Undo()
}

// onConfirm runs the export off the UI goroutine; the session refuses a
// second confirm until the first has finished.
func (mw *MainWindow) onConfirm() {
	mw.confirmBtn.Disable()
	go func() {
		if err := mw.session.Confirm(context.Background()); err != nil {
			slog.Warn("confirm failed", "component", "mainwindow", "error", err)
		}
	}()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Mask Editor",
		fmt.Sprintf("Mask Editor %s\nPaint a mask over the photo and confirm to send it back.", version.String()),
		mw.Window)
}

// restoreGeometry sizes the window from saved preferences.
func (mw *MainWindow) restoreGeometry() {
	w, h := float64(defaultWidth), float64(defaultHeight)
	if mw.prefs != nil {
		w = mw.prefs.FloatWithFallback(prefKeyWindowWidth, w)
		h = mw.prefs.FloatWithFallback(prefKeyWindowHeight, h)
	}
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
}

// SavePreferences stores the window geometry.
func (mw *MainWindow) SavePreferences() {
	if mw.prefs == nil {
		return
	}
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetFloat(prefKeyWindowWidth, float64(size.Width))
		mw.prefs.SetFloat(prefKeyWindowHeight, float64(size.Height))
	}
	if err := mw.prefs.Save(); err != nil {
		slog.Warn("failed to save preferences", "component", "mainwindow", "error", err)
	}
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

func formatThickness(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
