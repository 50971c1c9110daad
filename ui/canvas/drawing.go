package canvas

import (
	"image"
	"image/color"

	"github.com/d1alecttt/mini-app/internal/view"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// viewAff returns the source-to-output matrix for a view transform, where
// pixScale converts Fyne units to output pixels.
func viewAff(v view.Transform, pixScale float64) f64.Aff3 {
	s := v.Scale * pixScale
	return f64.Aff3{
		s, 0, v.TX * pixScale,
		0, s, v.TY * pixScale,
	}
}

// drawReference scales the reference photo into output.
func drawReference(output *image.RGBA, ref image.Image, aff f64.Aff3) {
	xdraw.ApproxBiLinear.Transform(output, aff, ref, ref.Bounds(), xdraw.Over, nil)
}

// drawMask overlays the mask raster with the given opacity. Nearest
// neighbour keeps brush edges crisp when zoomed in.
func drawMask(output *image.RGBA, mask *image.RGBA, aff f64.Aff3, opacity float64) {
	var opts *xdraw.Options
	if opacity < 1 {
		a := uint8(clamp01(opacity) * 255)
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: a})}
	}
	xdraw.NearestNeighbor.Transform(output, aff, mask, mask.Bounds(), xdraw.Over, opts)
}

// drawRing draws a circle outline of the given diameter centred at
// (cx, cy), with a dark halo so it stays visible on white strokes.
func drawRing(output *image.RGBA, cx, cy, diameter float64, col color.RGBA) {
	r := diameter / 2
	ring(output, cx, cy, r+1, 1, color.RGBA{A: 160})
	ring(output, cx, cy, r, 1.5, col)
}

func ring(output *image.RGBA, cx, cy, r, width float64, col color.RGBA) {
	bounds := output.Bounds()

	minX := int(cx - r - 1)
	maxX := int(cx + r + 1)
	minY := int(cy - r - 1)
	maxY := int(cy + r + 1)

	r2 := r * r
	inner := r - width
	if inner < 0 {
		inner = 0
	}
	innerR2 := inner * inner

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			dist2 := dx*dx + dy*dy
			if dist2 <= r2 && dist2 >= innerR2 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
