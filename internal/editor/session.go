// Package editor owns the state of one mask-painting session: launch
// parameters, the mask raster, its undo history, the brush, the active tool
// and the view transform.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/d1alecttt/mini-app/internal/bridge"
	"github.com/d1alecttt/mini-app/internal/config"
	"github.com/d1alecttt/mini-app/internal/export"
	appimage "github.com/d1alecttt/mini-app/internal/image"
	"github.com/d1alecttt/mini-app/internal/launch"
	"github.com/d1alecttt/mini-app/internal/mask"
	"github.com/d1alecttt/mini-app/internal/view"
	"github.com/d1alecttt/mini-app/pkg/geometry"
)

// ErrNotReady is returned by Confirm outside the Ready state.
var ErrNotReady = errors.New("editor is not ready")

// User-visible messages.
const (
	MsgLoading      = "Loading image..."
	MsgDraw         = "Draw the mask on the image."
	MsgNothingUndo  = "Nothing to undo."
	MsgBrushReset   = "Brush settings reset to defaults."
	MsgGenerating   = "Generating mask..."
	MsgSubmitted    = "Mask submitted."
	MsgSnapshotLost = "Could not save an undo point for this stroke."
)

// Options wires a Session to its collaborators.
type Options struct {
	Config config.Config
	Loader *appimage.Loader
	Bridge bridge.Bridge
	Host   bridge.Host
	Log    *slog.Logger
}

// Session holds all per-session editing state. Methods are safe to call
// from any goroutine; listeners run on the caller's goroutine after the
// session lock is released.
type Session struct {
	mu sync.Mutex

	cfg    config.Config
	loader *appimage.Loader
	bridge bridge.Bridge
	host   bridge.Host
	log    *slog.Logger

	fragment string
	params   launch.Params

	state    State
	status   Status
	tool     Tool
	brush    mask.Brush
	view     *view.Transform
	viewport geometry.Size

	reference *appimage.Layer
	surface   *mask.Surface
	history   *mask.History
	capture   func(*mask.Surface) error

	// active stroke or pan drag
	last    geometry.Point2D
	panning bool

	afterFunc func(time.Duration, func()) *time.Timer

	lmu       sync.RWMutex
	listeners map[EventType][]EventListener
}

// New creates a session for the given launch fragment. Nothing is parsed
// or fetched until Load.
func New(fragment string, opts Options) *Session {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		cfg = config.Default()
	}
	loader := opts.Loader
	if loader == nil {
		loader = appimage.NewLoader(cfg.LoadTimeout, cfg.MaxImageBytes)
	}
	host := opts.Host
	if host == nil {
		host = bridge.NopHost{Log: opts.Log}
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	history := mask.NewHistory(cfg.HistoryDepth)
	return &Session{
		cfg:       cfg,
		loader:    loader,
		bridge:    opts.Bridge,
		host:      host,
		log:       log.With("component", "editor"),
		fragment:  fragment,
		state:     StateLoading,
		status:    Status{Text: MsgLoading},
		brush:     mask.NewBrush(cfg.BrushMin, cfg.BrushMax, cfg.BrushDefault),
		view:      view.New(cfg.MinScale, cfg.MaxScale),
		history:   history,
		capture:   history.Capture,
		afterFunc: time.AfterFunc,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

func (s *Session) emit(events []event) {
	for _, e := range events {
		s.lmu.RLock()
		listeners := s.listeners[e.typ]
		s.lmu.RUnlock()
		for _, l := range listeners {
			l(e.data)
		}
	}
}

// Load parses the launch parameters, fetches the reference image and
// allocates the mask raster at the image's natural size. Any failure moves
// the session to StateFatal and the host is never told it is ready.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return fmt.Errorf("load called in state %s", s.state)
	}
	mode := s.cfg.LaunchMode
	fragment := s.fragment
	timeout := s.cfg.LoadTimeout
	s.mu.Unlock()

	params, err := launch.Parse(fragment, mode)
	if err != nil {
		return s.fail(fmt.Errorf("invalid launch parameters: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	layer, err := s.loader.Load(ctx, params.ImageURL)
	if err != nil {
		return s.fail(fmt.Errorf("failed to load image: %w", err))
	}

	surf, err := mask.NewSurface(layer.Width(), layer.Height(), s.cfg.MaskColor)
	if err != nil {
		return s.fail(fmt.Errorf("failed to allocate mask: %w", err))
	}

	s.mu.Lock()
	s.params = params
	s.reference = layer
	s.surface = surf
	if err := s.history.Reset(surf); err != nil {
		s.mu.Unlock()
		return s.fail(fmt.Errorf("failed to initialise undo history: %w", err))
	}
	if !s.viewport.IsEmpty() {
		_ = s.view.Fit(s.viewport, layer.Size())
	}
	events := []event{
		s.setState(StateReady),
		s.setStatus(MsgDraw, false),
		{EventRasterChanged, nil},
		{EventViewChanged, *s.view},
	}
	s.mu.Unlock()

	s.log.Info("session loaded", "imageId", params.ImageID,
		"width", surf.Width(), "height", surf.Height(), "format", layer.Format,
		"undoDepth", s.history.Cap())
	s.host.Ready()
	s.emit(events)
	return nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	events := []event{s.setState(StateFatal), s.setStatus(err.Error(), true)}
	s.mu.Unlock()
	s.log.Error("session failed", "error", err)
	s.emit(events)
	return err
}

// PointerDown starts a stroke in draw mode or a drag in pan mode. p is in
// drawing-region coordinates.
func (s *Session) PointerDown(p geometry.Point2D) {
	s.mu.Lock()
	if s.state != StateReady || !p.IsFinite() {
		s.mu.Unlock()
		return
	}

	if s.tool == ToolPan {
		s.panning = true
		s.last = p
		s.mu.Unlock()
		return
	}

	rp := s.view.RegionToRaster(p)
	if !rp.IsFinite() {
		s.mu.Unlock()
		return
	}
	var events []event
	if err := s.capture(s.surface); err != nil {
		s.log.Warn("undo snapshot failed", "error", err)
		events = append(events, s.setStatus(MsgSnapshotLost, true))
	}
	s.surface.Dot(rp, s.brush)
	s.last = rp
	events = append(events, s.setState(StateDrawing), event{EventRasterChanged, nil})
	s.mu.Unlock()
	s.emit(events)
}

// PointerMove extends the active stroke or pan drag.
func (s *Session) PointerMove(p geometry.Point2D) {
	s.mu.Lock()
	if !p.IsFinite() {
		s.mu.Unlock()
		return
	}
	var events []event
	switch {
	case s.state == StateDrawing:
		rp := s.view.RegionToRaster(p)
		if !rp.IsFinite() {
			break
		}
		s.surface.Segment(s.last, rp, s.brush)
		s.last = rp
		events = append(events, event{EventRasterChanged, nil})
	case s.state == StateReady && s.panning:
		s.view.PanBy(p.Sub(s.last))
		s.last = p
		events = append(events, event{EventViewChanged, *s.view})
	}
	s.mu.Unlock()
	s.emit(events)
}

// PointerUp ends the active stroke or drag.
func (s *Session) PointerUp() { s.endPointer("up") }

// PointerLeave ends the active stroke or drag when the pointer leaves the
// drawing region.
func (s *Session) PointerLeave() { s.endPointer("leave") }

// PointerCancel ends the active stroke or drag.
func (s *Session) PointerCancel() { s.endPointer("cancel") }

func (s *Session) endPointer(reason string) {
	s.mu.Lock()
	events := s.endStrokeLocked()
	s.mu.Unlock()
	if len(events) > 0 {
		s.log.Debug("stroke ended", "reason", reason)
	}
	s.emit(events)
}

func (s *Session) endStrokeLocked() []event {
	s.panning = false
	if s.state != StateDrawing {
		return nil
	}
	events := []event{s.setState(StateReady)}
	if s.status.Text == MsgSnapshotLost {
		// The missing undo point only concerns the stroke that just ended.
		events = append(events, s.setStatus(MsgDraw, false))
	}
	return events
}

// Wheel zooms around anchor in pan mode. Positive dy zooms in.
func (s *Session) Wheel(dy float64, anchor geometry.Point2D) {
	s.mu.Lock()
	if s.state != StateReady || s.tool != ToolPan || dy == 0 || math.IsNaN(dy) {
		s.mu.Unlock()
		return
	}
	factor := s.cfg.ZoomStep
	if dy < 0 {
		factor = 1 / factor
	}
	s.view.ZoomAt(factor, anchor)
	v := *s.view
	s.mu.Unlock()
	s.emit([]event{{EventViewChanged, v}})
}

// Pinch applies a multi-touch gesture. It works in either tool; an active
// stroke is ended first.
func (s *Session) Pinch(prev, cur []geometry.Point2D) error {
	s.mu.Lock()
	if s.state != StateReady && s.state != StateDrawing {
		s.mu.Unlock()
		return nil
	}
	events := s.endStrokeLocked()
	err := s.view.Pinch(prev, cur)
	if err == nil {
		events = append(events, event{EventViewChanged, *s.view})
	}
	s.mu.Unlock()
	s.emit(events)
	return err
}

// SetTool switches between draw and pan. The raster is never touched.
func (s *Session) SetTool(t Tool) {
	s.mu.Lock()
	if s.tool == t || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	events := s.endStrokeLocked()
	s.tool = t
	events = append(events, event{EventToolChanged, t})
	s.mu.Unlock()
	s.log.Debug("tool changed", "tool", t)
	s.emit(events)
}

// SetBrushThickness clamps and applies a new thickness, returning the
// applied value.
func (s *Session) SetBrushThickness(v float64) float64 {
	s.mu.Lock()
	applied := s.brush.Set(v)
	s.mu.Unlock()
	s.emit([]event{{EventBrushChanged, applied}})
	return applied
}

// ResetBrush restores the default thickness.
func (s *Session) ResetBrush() {
	s.mu.Lock()
	s.brush.Reset()
	events := []event{{EventBrushChanged, s.brush.Thickness}}
	if !s.state.Terminal() {
		events = append(events, s.setStatus(MsgBrushReset, false))
	}
	s.mu.Unlock()
	s.emit(events)
}

// Undo reverts the most recent stroke. It reports whether anything changed.
func (s *Session) Undo() bool {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return false
	}
	ok, err := s.history.Undo(s.surface)
	var events []event
	switch {
	case err != nil:
		s.log.Warn("undo failed", "error", err)
		events = append(events, s.setStatus(fmt.Sprintf("Undo failed: %v", err), true))
	case !ok:
		events = append(events, s.setStatus(MsgNothingUndo, false))
	default:
		msg := fmt.Sprintf("Undo successful. %d strokes remaining.", s.history.Len()-1)
		events = append(events, s.setStatus(msg, false), event{EventRasterChanged, nil})
	}
	s.mu.Unlock()
	s.emit(events)
	return ok
}

// Resize records the drawing region size and refits the view. The raster
// keeps its resolution.
func (s *Session) Resize(viewport geometry.Size) {
	s.mu.Lock()
	s.viewport = viewport
	if s.surface == nil || viewport.IsEmpty() {
		s.mu.Unlock()
		return
	}
	if err := s.view.Fit(viewport, s.surface.Size()); err != nil {
		s.mu.Unlock()
		return
	}
	v := *s.view
	s.mu.Unlock()
	s.emit([]event{{EventViewChanged, v}})
}

// Confirm exports the mask and hands it to the bridge. It refuses to run
// unless the session is Ready, so exports never overlap. On failure the
// session returns to Ready with the raster unchanged.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	events := []event{s.setState(StateExporting), s.setStatus(MsgGenerating, false)}
	src := s.surface.Image()
	opts := export.Options{Background: s.cfg.Background, Quality: s.cfg.JPEGQuality}
	params := s.params
	s.log.Info("exporting mask", "imageId", params.ImageID, "painted", s.surface.Painted())
	s.mu.Unlock()
	s.emit(events)

	err := s.deliver(ctx, src, opts, params)

	s.mu.Lock()
	if err != nil {
		events = []event{s.setState(StateReady), s.setStatus(err.Error(), true)}
	} else {
		events = []event{s.setState(StateSubmitted), s.setStatus(MsgSubmitted, false)}
	}
	closeOnSubmit, delay := s.cfg.CloseOnSubmit, s.cfg.CloseDelay
	s.mu.Unlock()
	s.emit(events)

	if err != nil {
		s.log.Error("export failed", "imageId", params.ImageID, "error", err)
		return err
	}
	if closeOnSubmit {
		s.afterFunc(delay, s.host.Close)
	}
	return nil
}

func (s *Session) deliver(ctx context.Context, src *image.RGBA, opts export.Options, params launch.Params) error {
	res, err := export.Encode(src, opts)
	if err != nil {
		return fmt.Errorf("failed to export mask: %w", err)
	}
	s.log.Info("mask encoded", "imageId", params.ImageID, "bytes", len(res.JPEG))

	if s.bridge == nil {
		return fmt.Errorf("failed to submit mask: %w", bridge.ErrUnavailable)
	}
	sub := bridge.Submission{
		MaskData: res.Base64,
		ImageID:  params.ImageID,
		UserID:   params.UserID,
		JPEG:     res.JPEG,
	}
	if err := s.bridge.Deliver(ctx, sub); err != nil {
		return fmt.Errorf("failed to submit mask: %w", err)
	}
	return nil
}

func (s *Session) setState(st State) event {
	if s.state != st {
		s.log.Debug("state changed", "from", s.state, "to", st)
	}
	s.state = st
	return event{EventStateChanged, st}
}

func (s *Session) setStatus(text string, isErr bool) event {
	s.status = Status{Text: text, Error: isErr}
	return event{EventStatus, s.status}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the last user-visible message.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Tool returns the active tool.
func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// Brush returns a copy of the brush settings.
func (s *Session) Brush() mask.Brush {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brush
}

// View returns a copy of the view transform.
func (s *Session) View() view.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.view
}

// Params returns the parsed launch parameters.
func (s *Session) Params() launch.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Reference returns the loaded reference image, or nil before load.
func (s *Session) Reference() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reference == nil {
		return nil
	}
	return s.reference.Image
}

// WithRaster calls fn with the live mask pixels while holding the session
// lock, so no stroke can paint during the call. fn is not called before
// load and must neither modify the image nor retain it.
func (s *Session) WithRaster(fn func(*image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return
	}
	fn(s.surface.Image())
}

// RasterSize returns the mask resolution, zero before load.
func (s *Session) RasterSize() geometry.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return geometry.Size{}
	}
	return s.surface.Size()
}

// CanUndo reports whether Undo would change the raster.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady && s.history.CanUndo()
}

// CursorDiameter returns the on-screen brush ring size.
func (s *Session) CursorDiameter() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.BrushDiameter(s.brush.Thickness)
}
