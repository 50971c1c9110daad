package image

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeRenderOverBackground(t *testing.T) {
	strokes := image.NewRGBA(image.Rect(0, 0, 4, 4))
	strokes.Set(2, 2, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	before := append([]uint8(nil), strokes.Pix...)

	c := NewComposite(4, 4)
	c.AddImage(strokes)
	out := c.Render()

	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(2, 2))
	assert.Equal(t, before, strokes.Pix, "source layer must not be modified")
}

func TestCompositeOpacityAndVisibility(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	c := NewComposite(1, 1)
	layer := NewLayer()
	layer.Image = src
	layer.Opacity = 0.5
	c.AddLayer(layer, 0, 0)
	half := c.Render().RGBAAt(0, 0)
	assert.InDelta(t, 127, int(half.R), 2)
	assert.Equal(t, uint8(255), half.A)

	layer.Visible = false
	assert.Equal(t, color.RGBA{A: 255}, c.Render().RGBAAt(0, 0))
}

func TestCompositeOffset(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Set(0, 0, color.RGBA{G: 255, A: 255})

	c := NewComposite(3, 3)
	c.BackColor = color.White
	layer := NewLayer()
	layer.Image = src
	c.AddLayer(layer, 2, 1)
	out := c.Render()
	assert.Equal(t, color.RGBA{G: 255, A: 255}, out.RGBAAt(2, 1))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(0, 0))
}
