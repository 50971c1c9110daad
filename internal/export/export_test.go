package export

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strokeImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 20; y < 28; y++ {
		for x := 10; x < 50; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

func TestEncodeProducesBlackWhiteJPEG(t *testing.T) {
	src := strokeImage()
	res, err := Encode(src, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 64, res.Width)
	assert.Equal(t, 48, res.Height)
	assert.NotEmpty(t, res.Base64)
	assert.NotContains(t, res.Base64, "data:")

	raw, err := base64.StdEncoding.DecodeString(res.Base64)
	require.NoError(t, err)
	assert.Equal(t, res.JPEG, raw)

	decoded, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())

	r, g, b, _ := decoded.At(2, 2).RGBA()
	assert.Less(t, r>>8, uint32(30), "undrawn area becomes background")
	assert.Less(t, g>>8, uint32(30))
	assert.Less(t, b>>8, uint32(30))

	r, _, _, _ = decoded.At(30, 24).RGBA()
	assert.Greater(t, r>>8, uint32(220), "strokes stay white")
}

func TestEncodeLeavesSourceUntouched(t *testing.T) {
	src := strokeImage()
	before := append([]uint8(nil), src.Pix...)

	first, err := Encode(src, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)

	second, err := Encode(src, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
	assert.Equal(t, first.JPEG, second.JPEG)
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(nil, DefaultOptions())
	require.ErrorIs(t, err, ErrEmptyRaster)

	_, err = Encode(image.NewRGBA(image.Rectangle{}), DefaultOptions())
	require.ErrorIs(t, err, ErrEmptyRaster)

	_, err = Encode(strokeImage(), Options{Background: color.Transparent, Quality: 90})
	require.Error(t, err)
}

func TestEncodeQualityFallback(t *testing.T) {
	res, err := Encode(strokeImage(), Options{Background: color.White, Quality: 0})
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(res.JPEG))
	require.NoError(t, err)
	r, _, _, _ := decoded.At(1, 1).RGBA()
	assert.Greater(t, r>>8, uint32(220))
}
