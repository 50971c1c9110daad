// Package config resolves typed editor settings from the preferences store.
package config

import (
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"github.com/d1alecttt/mini-app/internal/launch"
	"github.com/d1alecttt/mini-app/internal/mask"
	"github.com/d1alecttt/mini-app/internal/view"
	"github.com/d1alecttt/mini-app/pkg/colorutil"
)

// Preference keys.
const (
	KeyHistoryDepth   = "editor.historyDepth"
	KeyBrushMin       = "brush.min"
	KeyBrushMax       = "brush.max"
	KeyBrushDefault   = "brush.default"
	KeyJPEGQuality    = "export.quality"
	KeyBackground     = "export.background"
	KeyMaskColor      = "mask.color"
	KeyMinScale       = "view.minScale"
	KeyMaxScale       = "view.maxScale"
	KeyZoomStep       = "view.zoomStep"
	KeyLoadTimeout    = "load.timeoutSeconds"
	KeyMaxImageBytes  = "load.maxImageBytes"
	KeyUploadEndpoint = "delivery.endpoint"
	KeyDelivery       = "delivery.mode"
	KeyLaunchMode     = "launch.mode"
	KeyCloseOnSubmit  = "delivery.closeOnSubmit"
	KeyCloseDelay     = "delivery.closeDelaySeconds"
)

// Delivery selects the submission transport.
type Delivery string

const (
	DeliveryHost   Delivery = "host"
	DeliveryStdout Delivery = "stdout"
	DeliveryUpload Delivery = "upload"
)

// Source is the read side of the preferences store.
type Source interface {
	FloatWithFallback(key string, fallback float64) float64
	String(key string) string
	Bool(key string, fallback bool) bool
}

// Config holds every tunable of an editing session.
type Config struct {
	HistoryDepth int

	BrushMin     float64
	BrushMax     float64
	BrushDefault float64

	JPEGQuality int
	Background  color.RGBA
	MaskColor   color.RGBA

	MinScale float64
	MaxScale float64
	ZoomStep float64

	LoadTimeout   time.Duration
	MaxImageBytes int64

	Delivery       Delivery
	UploadEndpoint string
	LaunchMode     launch.Mode
	CloseOnSubmit  bool
	CloseDelay     time.Duration
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HistoryDepth:  mask.DefaultDepth,
		BrushMin:      1,
		BrushMax:      100,
		BrushDefault:  15,
		JPEGQuality:   90,
		Background:    colorutil.Black,
		MaskColor:     colorutil.White,
		MinScale:      view.DefaultMinScale,
		MaxScale:      view.DefaultMaxScale,
		ZoomStep:      view.DefaultZoomStep,
		LoadTimeout:   30 * time.Second,
		MaxImageBytes: 64 << 20,
		Delivery:      DeliveryHost,
		LaunchMode:    launch.Strict,
		CloseOnSubmit: true,
		CloseDelay:    1500 * time.Millisecond,
	}
}

// Load resolves settings from src, falling back to Default for anything
// unset. Invalid values are logged and replaced by their defaults.
func Load(src Source) Config {
	c := Default()
	if src == nil {
		return c
	}
	log := slog.With("component", "config")

	c.HistoryDepth = int(src.FloatWithFallback(KeyHistoryDepth, float64(c.HistoryDepth)))
	c.BrushMin = src.FloatWithFallback(KeyBrushMin, c.BrushMin)
	c.BrushMax = src.FloatWithFallback(KeyBrushMax, c.BrushMax)
	c.BrushDefault = src.FloatWithFallback(KeyBrushDefault, c.BrushDefault)
	c.JPEGQuality = int(src.FloatWithFallback(KeyJPEGQuality, float64(c.JPEGQuality)))
	c.MinScale = src.FloatWithFallback(KeyMinScale, c.MinScale)
	c.MaxScale = src.FloatWithFallback(KeyMaxScale, c.MaxScale)
	c.ZoomStep = src.FloatWithFallback(KeyZoomStep, c.ZoomStep)
	c.LoadTimeout = seconds(src.FloatWithFallback(KeyLoadTimeout, c.LoadTimeout.Seconds()))
	c.MaxImageBytes = int64(src.FloatWithFallback(KeyMaxImageBytes, float64(c.MaxImageBytes)))
	c.UploadEndpoint = strings.TrimSpace(src.String(KeyUploadEndpoint))
	c.CloseOnSubmit = src.Bool(KeyCloseOnSubmit, c.CloseOnSubmit)
	c.CloseDelay = seconds(src.FloatWithFallback(KeyCloseDelay, c.CloseDelay.Seconds()))
	if s := src.String(KeyLaunchMode); s != "" {
		c.LaunchMode = launch.ParseMode(s)
	}

	if s := src.String(KeyBackground); s != "" {
		if col, err := colorutil.ParseHex(s); err != nil || !colorutil.IsOpaque(col) {
			log.Warn("ignoring background colour", "value", s)
		} else {
			c.Background = col
		}
	}
	if s := src.String(KeyMaskColor); s != "" {
		if col, err := colorutil.ParseHex(s); err != nil {
			log.Warn("ignoring mask colour", "value", s, "error", err)
		} else {
			c.MaskColor = col
		}
	}
	if s := src.String(KeyDelivery); s != "" {
		d, err := ParseDelivery(s)
		if err != nil {
			log.Warn("ignoring delivery mode", "error", err)
		} else {
			c.Delivery = d
		}
	}

	def := Default()
	if err := c.Validate(); err != nil {
		log.Warn("invalid settings, using defaults for the offending group", "error", err)
		c.fix(def)
	}
	return c
}

// ParseDelivery parses a delivery mode name.
func ParseDelivery(s string) (Delivery, error) {
	switch d := Delivery(strings.ToLower(strings.TrimSpace(s))); d {
	case DeliveryHost, DeliveryStdout, DeliveryUpload:
		return d, nil
	default:
		return "", fmt.Errorf("unknown delivery mode %q", s)
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.HistoryDepth < 2:
		return fmt.Errorf("history depth %d below 2", c.HistoryDepth)
	case c.BrushMin <= 0 || c.BrushMax < c.BrushMin:
		return fmt.Errorf("brush range [%g, %g] is invalid", c.BrushMin, c.BrushMax)
	case c.BrushDefault < c.BrushMin || c.BrushDefault > c.BrushMax:
		return fmt.Errorf("brush default %g outside [%g, %g]", c.BrushDefault, c.BrushMin, c.BrushMax)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("jpeg quality %d outside [1, 100]", c.JPEGQuality)
	case c.MinScale <= 0 || c.MaxScale < c.MinScale:
		return fmt.Errorf("scale range [%g, %g] is invalid", c.MinScale, c.MaxScale)
	case c.ZoomStep <= 1:
		return fmt.Errorf("zoom step %g must exceed 1", c.ZoomStep)
	case c.LoadTimeout <= 0:
		return fmt.Errorf("load timeout %s must be positive", c.LoadTimeout)
	case c.MaxImageBytes <= 0:
		return fmt.Errorf("max image bytes %d must be positive", c.MaxImageBytes)
	case c.Delivery == DeliveryUpload && c.UploadEndpoint == "":
		return fmt.Errorf("upload delivery needs %s", KeyUploadEndpoint)
	}
	return nil
}

// fix replaces each invalid group with its default.
func (c *Config) fix(def Config) {
	if c.HistoryDepth < 2 {
		c.HistoryDepth = def.HistoryDepth
	}
	if c.BrushMin <= 0 || c.BrushMax < c.BrushMin ||
		c.BrushDefault < c.BrushMin || c.BrushDefault > c.BrushMax {
		c.BrushMin, c.BrushMax, c.BrushDefault = def.BrushMin, def.BrushMax, def.BrushDefault
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = def.JPEGQuality
	}
	if c.MinScale <= 0 || c.MaxScale < c.MinScale {
		c.MinScale, c.MaxScale = def.MinScale, def.MaxScale
	}
	if c.ZoomStep <= 1 {
		c.ZoomStep = def.ZoomStep
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = def.LoadTimeout
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = def.MaxImageBytes
	}
	if c.Delivery == DeliveryUpload && c.UploadEndpoint == "" {
		c.Delivery = def.Delivery
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
