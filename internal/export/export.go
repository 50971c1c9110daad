// Package export turns the mask raster into the submitted JPEG.
package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	appimage "github.com/d1alecttt/mini-app/internal/image"
)

// DefaultQuality matches the quality factor the host expects.
const DefaultQuality = 90

var ErrEmptyRaster = errors.New("nothing to export")

// Options controls compositing and encoding.
type Options struct {
	Background color.Color // Painted behind the strokes; must be opaque
	Quality    int         // JPEG quality, 1-100
}

// DefaultOptions returns black background at DefaultQuality.
func DefaultOptions() Options {
	return Options{Background: color.Black, Quality: DefaultQuality}
}

// Result is an encoded mask.
type Result struct {
	JPEG   []byte
	Base64 string // Standard encoding, no data-URI prefix
	Width  int
	Height int
}

// Encode composites src over the background into a separate buffer and
// encodes it as JPEG. src is only read.
func Encode(src *image.RGBA, opts Options) (Result, error) {
	if src == nil || src.Bounds().Empty() {
		return Result{}, ErrEmptyRaster
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}
	if _, _, _, a := opts.Background.RGBA(); a != 0xffff {
		return Result{}, errors.New("background must be opaque")
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	b := src.Bounds()
	comp := appimage.NewComposite(b.Dx(), b.Dy())
	comp.BackColor = opts.Background
	comp.AddImage(src)
	flat := comp.Render()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return Result{}, fmt.Errorf("failed to encode mask: %w", err)
	}

	data := buf.Bytes()
	return Result{
		JPEG:   data,
		Base64: base64.StdEncoding.EncodeToString(data),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
