// Package image provides reference image loading, layers, and compositing.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/d1alecttt/mini-app/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyImage = errors.New("image has no pixels")
	ErrTooLarge   = errors.New("image exceeds size limit")
)

// Layer represents a single image layer drawn by the canvas.
type Layer struct {
	Source  string      // Where the image was loaded from
	Format  string      // Decoder name ("jpeg", "png", ...)
	Image   image.Image // Loaded image data
	Visible bool        // Layer visibility
	Opacity float64     // Layer opacity (0.0 - 1.0)
}

// NewLayer creates a new Layer with default settings.
func NewLayer() *Layer {
	return &Layer{
		Visible: true,
		Opacity: 1.0,
	}
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Size returns the natural image dimensions.
func (l *Layer) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(l.Width()),
		Height: float64(l.Height()),
	}
}

// Loader fetches and decodes reference images.
type Loader struct {
	Client   *http.Client
	MaxBytes int64 // 0 means unlimited
}

// NewLoader creates a Loader with the given timeout and size limit.
func NewLoader(timeout time.Duration, maxBytes int64) *Loader {
	return &Loader{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

// Load reads the image referenced by ref, which may be an http(s) URL, a
// file:// URL, a data: URL, or a local path.
func (ld *Loader) Load(ctx context.Context, ref string) (*Layer, error) {
	rc, err := ld.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if ld.MaxBytes > 0 {
		r = io.LimitReader(rc, ld.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if ld.MaxBytes > 0 && int64(len(data)) > ld.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, ld.MaxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	layer := NewLayer()
	layer.Source = ref
	layer.Format = format
	layer.Image = img
	slog.Debug("image: loaded", "source", redact(ref), "format", format,
		"width", layer.Width(), "height", layer.Height())
	return layer, nil
}

func (ld *Loader) open(ctx context.Context, ref string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		client := ld.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch image: %s", resp.Status)
		}
		return resp.Body, nil

	case strings.HasPrefix(ref, "data:"):
		data, err := decodeDataURL(ref)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil

	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to parse file URL: %w", err)
		}
		ref = u.Path
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return f, nil
}

// decodeDataURL returns the payload of a base64 data: URL.
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if !strings.HasSuffix(meta, ";base64") {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode data URL: %w", err)
		}
		return []byte(s), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return data, nil
}

// redact keeps data: URLs out of the log.
func redact(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return "data:..."
	}
	return ref
}
