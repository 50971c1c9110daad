package image

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Composite combines layers over an opaque background into a single image.
type Composite struct {
	Width     int
	Height    int
	Layers    []*CompositeLayer
	BackColor color.Color
}

// CompositeLayer wraps a Layer with its placement.
type CompositeLayer struct {
	Layer   *Layer
	OffsetX int
	OffsetY int
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: color.Black,
	}
}

// AddLayer adds a layer to the composite.
func (c *Composite) AddLayer(layer *Layer, offsetX, offsetY int) {
	c.Layers = append(c.Layers, &CompositeLayer{
		Layer:   layer,
		OffsetX: offsetX,
		OffsetY: offsetY,
	})
}

// AddImage adds img as a fully opaque, visible layer at the origin.
func (c *Composite) AddImage(img image.Image) {
	layer := NewLayer()
	layer.Image = img
	c.AddLayer(layer, 0, 0)
}

// Render produces the final composited image. Source layers are only read.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))

	back := c.BackColor
	if back == nil {
		back = color.Black
	}
	draw.Draw(result, result.Bounds(), image.NewUniform(back), image.Point{}, draw.Src)

	for _, cl := range c.Layers {
		if cl.Layer == nil || cl.Layer.Image == nil || !cl.Layer.Visible {
			continue
		}
		c.compositeLayer(result, cl)
	}

	return result
}

// compositeLayer blends a single layer onto dst with source-over.
func (c *Composite) compositeLayer(dst *image.RGBA, cl *CompositeLayer) {
	src := cl.Layer.Image
	sb := src.Bounds()
	r := image.Rect(cl.OffsetX, cl.OffsetY, cl.OffsetX+sb.Dx(), cl.OffsetY+sb.Dy())

	opacity := clamp(cl.Layer.Opacity, 0, 1)
	if opacity >= 0.999 {
		draw.Draw(dst, r, src, sb.Min, draw.Over)
		return
	}
	if opacity <= 0.001 {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(opacity * 255)})
	draw.DrawMask(dst, r, src, sb.Min, mask, image.Point{}, draw.Over)
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
