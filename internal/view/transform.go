// Package view maps pointer coordinates between the screen and the mask
// raster through an independent pan/zoom transform.
package view

import (
	"errors"
	"fmt"
	"math"

	"github.com/d1alecttt/mini-app/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Default scale bounds.
const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 10.0
	DefaultZoomStep = 1.25
)

// ErrDegenerate is returned when a gesture carries too little information
// to estimate a transform.
var ErrDegenerate = errors.New("degenerate gesture")

// Transform maps raster coordinates to region coordinates as
// region = raster*Scale + (TX, TY). The raster is never mutated by it.
type Transform struct {
	Scale float64
	TX    float64
	TY    float64

	MinScale float64
	MaxScale float64
}

// New creates an identity transform with the given scale bounds.
func New(minScale, maxScale float64) *Transform {
	if minScale <= 0 {
		minScale = DefaultMinScale
	}
	if maxScale < minScale {
		maxScale = minScale
	}
	return &Transform{Scale: 1, MinScale: minScale, MaxScale: maxScale}
}

// Affine returns the raster-to-region mapping.
func (t *Transform) Affine() geometry.AffineTransform {
	return geometry.Translation(t.TX, t.TY).Compose(geometry.Scale(t.Scale, t.Scale))
}

// ClientToRaster converts a client (window) position into raster
// coordinates. origin is the drawing region's top-left in client space.
func (t *Transform) ClientToRaster(client, origin geometry.Point2D) geometry.Point2D {
	local := client.Sub(origin)
	inv, ok := t.Affine().Inverse()
	if !ok {
		return geometry.NewPoint2D(math.NaN(), math.NaN())
	}
	return inv.Apply(local)
}

// RasterToClient converts raster coordinates into a client position.
func (t *Transform) RasterToClient(raster, origin geometry.Point2D) geometry.Point2D {
	return t.Affine().Apply(raster).Add(origin)
}

// RegionToRaster converts a region-local position into raster coordinates.
func (t *Transform) RegionToRaster(local geometry.Point2D) geometry.Point2D {
	return t.ClientToRaster(local, geometry.Point2D{})
}

// SetScale clamps s to the bounds and applies it without moving the
// translation.
func (t *Transform) SetScale(s float64) {
	t.Scale = t.clamp(s)
}

// PanBy moves the content by delta region pixels.
func (t *Transform) PanBy(delta geometry.Point2D) {
	t.TX += delta.X
	t.TY += delta.Y
}

// ZoomAt multiplies the scale by factor, keeping the raster point under
// anchor (region coordinates) fixed on screen.
func (t *Transform) ZoomAt(factor float64, anchor geometry.Point2D) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	fixed := t.RegionToRaster(anchor)
	t.SetScale(t.Scale * factor)
	t.TX = anchor.X - fixed.X*t.Scale
	t.TY = anchor.Y - fixed.Y*t.Scale
}

// Fit scales content to fit entirely inside viewport and centers it.
func (t *Transform) Fit(viewport, content geometry.Size) error {
	if viewport.IsEmpty() || content.IsEmpty() {
		return fmt.Errorf("cannot fit %vx%v into %vx%v",
			content.Width, content.Height, viewport.Width, viewport.Height)
	}
	t.SetScale(math.Min(viewport.Width/content.Width, viewport.Height/content.Height))
	t.TX = viewport.Width/2 - content.Width/2*t.Scale
	t.TY = viewport.Height/2 - content.Height/2*t.Scale
	return nil
}

// Pinch updates the transform so the raster points that were under prev
// move under cur. The scale change and shift are the least-squares
// solution of cur = k*prev + d over all touch pairs; the resulting scale
// is clamped, keeping the centroid of cur fixed.
func (t *Transform) Pinch(prev, cur []geometry.Point2D) error {
	if len(prev) != len(cur) {
		return fmt.Errorf("touch count mismatch: %d vs %d", len(prev), len(cur))
	}
	if len(prev) < 2 {
		return ErrDegenerate
	}

	k, d, err := fitScaleShift(prev, cur)
	if err != nil {
		return err
	}
	if k <= 0 {
		return ErrDegenerate
	}

	// Region point r maps to k*r + d. Compose with the current transform.
	anchor := geometry.Centroid(cur)
	fixed := t.RegionToRaster(geometry.Centroid(prev))
	scale := t.clamp(t.Scale * k)
	if scale == t.Scale*k {
		t.Scale = scale
		t.TX = k*t.TX + d.X
		t.TY = k*t.TY + d.Y
		return nil
	}
	t.Scale = scale
	t.TX = anchor.X - fixed.X*t.Scale
	t.TY = anchor.Y - fixed.Y*t.Scale
	return nil
}

// BrushDiameter returns the on-screen size of a brush of the given raster
// thickness, never less than 2 pixels so the cursor stays visible.
func (t *Transform) BrushDiameter(thickness float64) float64 {
	return math.Max(2, thickness*t.Scale)
}

func (t *Transform) clamp(s float64) float64 {
	return math.Max(t.MinScale, math.Min(t.MaxScale, s))
}

// fitScaleShift solves [x 1 0; y 0 1] * [k dx dy]^T = [x'; y'] in the least
// squares sense.
func fitScaleShift(prev, cur []geometry.Point2D) (float64, geometry.Point2D, error) {
	n := len(prev)
	A := mat.NewDense(n*2, 3, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := range prev {
		A.Set(2*i, 0, prev[i].X)
		A.Set(2*i, 1, 1)
		A.Set(2*i+1, 0, prev[i].Y)
		A.Set(2*i+1, 2, 1)
		B.SetVec(2*i, cur[i].X)
		B.SetVec(2*i+1, cur[i].Y)
	}

	var qr mat.QR
	qr.Factorize(A)
	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return 0, geometry.Point2D{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	k := params.AtVec(0)
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0, geometry.Point2D{}, ErrDegenerate
	}
	return k, geometry.NewPoint2D(params.AtVec(1), params.AtVec(2)), nil
}
