// Package mask provides the paintable mask raster, brush strokes, and the
// bounded undo history of raster snapshots.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/d1alecttt/mini-app/pkg/geometry"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// ErrSnapshot is returned when the raster cannot be copied or restored.
var ErrSnapshot = errors.New("raster snapshot failed")

// miterLimit is unused with round joins but required by the stroker.
const miterLimit = 4

// Surface is the raster the user paints into. Its size is fixed at
// creation; undrawn pixels are fully transparent.
type Surface struct {
	img *image.RGBA
	ink color.RGBA

	stroker *rasterx.Stroker
	filler  *rasterx.Filler
}

// NewSurface creates a transparent surface of width x height pixels that
// paints in ink.
func NewSurface(width, height int, ink color.RGBA) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	s := &Surface{img: img, ink: ink}

	s.stroker = rasterx.NewStroker(width, height, rasterx.NewScannerGV(width, height, img, img.Bounds()))
	s.filler = rasterx.NewFiller(width, height, rasterx.NewScannerGV(width, height, img, img.Bounds()))
	return s, nil
}

// Image returns the live pixel buffer. Callers must treat it as read-only.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.img.Bounds().Dx()
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.img.Bounds().Dy()
}

// Size returns the surface dimensions.
func (s *Surface) Size() geometry.Size {
	return geometry.NewSize(float64(s.Width()), float64(s.Height()))
}

// Dot fills a circle of the brush's diameter centered on p.
func (s *Surface) Dot(p geometry.Point2D, b Brush) {
	if b.Thickness <= 0 || !p.IsFinite() {
		return
	}
	rasterx.AddCircle(p.X, p.Y, b.Radius(), s.filler)
	s.filler.SetColor(s.ink)
	s.filler.Draw()
	s.filler.Clear()
}

// Segment strokes a round-capped, round-joined line from a to b.
func (s *Surface) Segment(a, b geometry.Point2D, br Brush) {
	if br.Thickness <= 0 || !a.IsFinite() || !b.IsFinite() {
		return
	}
	if a.Distance(b) < 1e-3 {
		// Zero-length segment: the round caps collapse to a dot.
		s.Dot(a, br)
		return
	}
	s.stroker.SetStroke(
		toFixed(br.Thickness),
		toFixed(miterLimit),
		rasterx.RoundCap, rasterx.RoundCap,
		rasterx.RoundGap, rasterx.Round,
	)
	s.stroker.Start(toPoint(a))
	s.stroker.Line(toPoint(b))
	s.stroker.Stop(false)
	s.stroker.SetColor(s.ink)
	s.stroker.Draw()
	s.stroker.Clear()
}

// Snapshot returns a deep copy of the current pixels.
func (s *Surface) Snapshot() (Snapshot, error) {
	if s == nil || s.img == nil || len(s.img.Pix) == 0 {
		return Snapshot{}, ErrSnapshot
	}
	pix := make([]uint8, len(s.img.Pix))
	copy(pix, s.img.Pix)
	return Snapshot{pix: pix, rect: s.img.Rect}, nil
}

// Restore overwrites the pixels with snap. The snapshot is copied, so it
// stays valid for later restores.
func (s *Surface) Restore(snap Snapshot) error {
	if snap.rect != s.img.Rect || len(snap.pix) != len(s.img.Pix) {
		return fmt.Errorf("%w: snapshot %v does not match surface %v", ErrSnapshot, snap.rect, s.img.Rect)
	}
	copy(s.img.Pix, snap.pix)
	return nil
}

// Painted reports the number of pixels with non-zero alpha.
func (s *Surface) Painted() int {
	n := 0
	for i := 3; i < len(s.img.Pix); i += 4 {
		if s.img.Pix[i] != 0 {
			n++
		}
	}
	return n
}

// Snapshot is an immutable copy of a surface's pixel buffer.
type Snapshot struct {
	pix  []uint8
	rect image.Rectangle
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func toPoint(p geometry.Point2D) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(p.X), Y: toFixed(p.Y)}
}
