// Package canvas provides the mask painting surface: the reference photo
// with the mask drawn over it, panned and zoomed by the session's view
// transform.
package canvas

import (
	"image"
	"image/color"

	"github.com/d1alecttt/mini-app/internal/editor"
	"github.com/d1alecttt/mini-app/pkg/colorutil"
	"github.com/d1alecttt/mini-app/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// DefaultMaskOpacity is how strongly the mask covers the photo on screen.
// The exported mask is always fully opaque.
const DefaultMaskOpacity = 0.6

var backdrop = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

// MaskCanvas displays a session and routes pointer input to it.
type MaskCanvas struct {
	widget.BaseWidget

	session *editor.Session

	raster  *fynecanvas.Raster
	content *draggableContent

	// Display state
	maskOpacity float64
	ringColor   color.RGBA
	lastSize    fyne.Size

	// Hover state for the brush ring
	hovering bool
	hover    fyne.Position
}

// draggableContent wraps the raster to handle pointer events.
type draggableContent struct {
	widget.BaseWidget
	canvas *MaskCanvas
	raster *fynecanvas.Raster

	// active is set while a press or drag is being forwarded.
	active bool
	// mouse is set once a desktop mouse event is seen; taps are then
	// already covered by MouseDown/MouseUp.
	mouse bool
}

var (
	_ fyne.Draggable     = (*draggableContent)(nil)
	_ fyne.Tappable      = (*draggableContent)(nil)
	_ fyne.Scrollable    = (*draggableContent)(nil)
	_ desktop.Mouseable  = (*draggableContent)(nil)
	_ desktop.Hoverable  = (*draggableContent)(nil)
	_ desktop.Cursorable = (*draggableContent)(nil)
)

func newDraggableContent(mc *MaskCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{
		canvas: mc,
		raster: raster,
	}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MouseDown(ev *desktop.MouseEvent) {
	dc.mouse = true
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	dc.active = true
	dc.canvas.session.PointerDown(toPoint(ev.Position))
}

func (dc *draggableContent) MouseUp(ev *desktop.MouseEvent) {
	dc.mouse = true
	if !dc.active {
		return
	}
	dc.active = false
	dc.canvas.session.PointerUp()
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	if !dc.active {
		// Touch drivers report no press; start where the drag began.
		dc.active = true
		start := ev.Position.Subtract(ev.Dragged)
		dc.canvas.session.PointerDown(toPoint(start))
	}
	dc.canvas.setHover(ev.Position)
	dc.canvas.session.PointerMove(toPoint(ev.Position))
}

func (dc *draggableContent) DragEnd() {
	if !dc.active {
		return
	}
	dc.active = false
	dc.canvas.session.PointerUp()
}

// Tapped paints a single dot on touch devices.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	if dc.mouse {
		return
	}
	dc.canvas.session.PointerDown(toPoint(ev.Position))
	dc.canvas.session.PointerUp()
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	dc.canvas.session.Wheel(float64(ev.Scrolled.DY), toPoint(ev.Position))
}

func (dc *draggableContent) MouseIn(ev *desktop.MouseEvent) {
	dc.canvas.setHover(ev.Position)
}

func (dc *draggableContent) MouseMoved(ev *desktop.MouseEvent) {
	dc.canvas.setHover(ev.Position)
}

func (dc *draggableContent) MouseOut() {
	dc.canvas.hovering = false
	if dc.active {
		dc.active = false
		dc.canvas.session.PointerLeave()
	}
	dc.canvas.Refresh()
}

func (dc *draggableContent) Cursor() desktop.Cursor {
	if dc.canvas.session.Tool() == editor.ToolPan {
		return desktop.PointerCursor
	}
	return desktop.CrosshairCursor
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// NewMaskCanvas creates a canvas bound to session and subscribes to the
// session events that change what is shown.
func NewMaskCanvas(session *editor.Session) *MaskCanvas {
	mc := &MaskCanvas{
		session:     session,
		maskOpacity: DefaultMaskOpacity,
		ringColor:   colorutil.Cyan,
	}

	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.raster.SetMinSize(fyne.NewSize(200, 150))

	mc.content = newDraggableContent(mc, mc.raster)

	refresh := func(interface{}) { mc.Refresh() }
	for _, ev := range []editor.EventType{
		editor.EventRasterChanged,
		editor.EventViewChanged,
		editor.EventToolChanged,
		editor.EventBrushChanged,
	} {
		session.On(ev, refresh)
	}

	mc.ExtendBaseWidget(mc)
	return mc
}

// SetMaskOpacity sets how strongly the mask covers the photo on screen.
func (mc *MaskCanvas) SetMaskOpacity(opacity float64) {
	mc.maskOpacity = clamp01(opacity)
	mc.Refresh()
}

// Refresh redraws the canvas.
func (mc *MaskCanvas) Refresh() {
	mc.raster.Refresh()
}

// setHover records the ring position, kept inside the drawing region.
func (mc *MaskCanvas) setHover(pos fyne.Position) {
	size := mc.content.Size()
	region := geometry.NewRect(0, 0, float64(size.Width), float64(size.Height))
	p := region.Clamp(toPoint(pos))
	mc.hovering = true
	mc.hover = fyne.NewPos(float32(p.X), float32(p.Y))
	if mc.session.Tool() == editor.ToolDraw {
		mc.Refresh()
	}
}

// checkResize tells the session about a new region size so it can refit.
func (mc *MaskCanvas) checkResize(size fyne.Size) {
	if size.Width <= 0 || size.Height <= 0 || size == mc.lastSize {
		return
	}
	mc.lastSize = size
	mc.session.Resize(geometry.NewSize(float64(size.Width), float64(size.Height)))
}

// draw is the raster drawing function. w and h are output pixels, which
// differ from Fyne units on high-density screens.
func (mc *MaskCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i+0] = backdrop.R
		output.Pix[i+1] = backdrop.G
		output.Pix[i+2] = backdrop.B
		output.Pix[i+3] = backdrop.A
	}
	mc.render(output)
	return output
}

func (mc *MaskCanvas) render(output *image.RGBA) {
	ref := mc.session.Reference()
	if ref == nil {
		return
	}

	pixScale := 1.0
	if width := mc.content.Size().Width; width > 0 {
		pixScale = float64(output.Bounds().Dx()) / float64(width)
	}

	aff := viewAff(mc.session.View(), pixScale)
	drawReference(output, ref, aff)
	// Strokes paint under the same lock, so the blit never sees half a stroke.
	mc.session.WithRaster(func(mask *image.RGBA) {
		drawMask(output, mask, aff, mc.maskOpacity)
	})

	if mc.hovering && mc.session.Tool() == editor.ToolDraw {
		d := mc.session.CursorDiameter() * pixScale
		drawRing(output, float64(mc.hover.X)*pixScale, float64(mc.hover.Y)*pixScale, d, mc.ringColor)
	}
}

// CreateRenderer implements fyne.Widget.
func (mc *MaskCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &maskCanvasRenderer{canvas: mc}
}

type maskCanvasRenderer struct {
	canvas *MaskCanvas
}

func (r *maskCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.content.Resize(size)
	r.canvas.checkResize(size)
}

func (r *maskCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *maskCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *maskCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.content}
}

func (r *maskCanvasRenderer) Destroy() {}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.NewPoint2D(float64(p.X), float64(p.Y))
}
