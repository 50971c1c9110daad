package config

import (
	"testing"
	"time"

	"github.com/d1alecttt/mini-app/internal/launch"
	"github.com/d1alecttt/mini-app/pkg/colorutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]any

func (m mapSource) FloatWithFallback(key string, fallback float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return fallback
}

func (m mapSource) String(key string) string {
	s, _ := m[key].(string)
	return s
}

func (m mapSource) Bool(key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 20, c.HistoryDepth)
	assert.Equal(t, 15.0, c.BrushDefault)
	assert.Equal(t, 90, c.JPEGQuality)
	assert.Equal(t, colorutil.Black, c.Background)
	assert.Equal(t, DeliveryHost, c.Delivery)
	assert.Equal(t, launch.Strict, c.LaunchMode)
	assert.True(t, c.CloseOnSubmit)
	assert.Equal(t, 1500*time.Millisecond, c.CloseDelay)
}

func TestLoadNilSource(t *testing.T) {
	assert.Equal(t, Default(), Load(nil))
}

func TestLoadOverrides(t *testing.T) {
	c := Load(mapSource{
		KeyHistoryDepth:   5.0,
		KeyBrushDefault:   30.0,
		KeyJPEGQuality:    75.0,
		KeyBackground:     "#102030",
		KeyMaskColor:      "#f00",
		KeyLoadTimeout:    2.5,
		KeyDelivery:       "Upload",
		KeyUploadEndpoint: " https://example.org/upload-mask ",
		KeyLaunchMode:     "lenient",
		KeyCloseOnSubmit:  false,
	})

	assert.Equal(t, 5, c.HistoryDepth)
	assert.Equal(t, 30.0, c.BrushDefault)
	assert.Equal(t, 75, c.JPEGQuality)
	assert.Equal(t, "#102030", colorutil.Hex(c.Background))
	assert.Equal(t, "#ff0000", colorutil.Hex(c.MaskColor))
	assert.Equal(t, 2500*time.Millisecond, c.LoadTimeout)
	assert.Equal(t, DeliveryUpload, c.Delivery)
	assert.Equal(t, "https://example.org/upload-mask", c.UploadEndpoint)
	assert.Equal(t, launch.Lenient, c.LaunchMode)
	assert.False(t, c.CloseOnSubmit)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	def := Default()
	tests := []struct {
		name  string
		src   mapSource
		check func(t *testing.T, c Config)
	}{
		{
			name: "translucent background",
			src:  mapSource{KeyBackground: "#00000080"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, def.Background, c.Background)
			},
		},
		{
			name: "bad colour",
			src:  mapSource{KeyMaskColor: "not-a-colour"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, def.MaskColor, c.MaskColor)
			},
		},
		{
			name: "brush default out of range",
			src:  mapSource{KeyBrushDefault: 500.0},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, def.BrushDefault, c.BrushDefault)
				assert.Equal(t, def.BrushMax, c.BrushMax)
			},
		},
		{
			name: "quality out of range",
			src:  mapSource{KeyJPEGQuality: 0.0},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, def.JPEGQuality, c.JPEGQuality)
			},
		},
		{
			name: "inverted scale bounds",
			src:  mapSource{KeyMinScale: 4.0, KeyMaxScale: 2.0},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, def.MinScale, c.MinScale)
				assert.Equal(t, def.MaxScale, c.MaxScale)
			},
		},
		{
			name: "upload without endpoint",
			src:  mapSource{KeyDelivery: "upload"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, DeliveryHost, c.Delivery)
			},
		},
		{
			name: "unknown delivery",
			src:  mapSource{KeyDelivery: "carrier-pigeon"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, DeliveryHost, c.Delivery)
			},
		},
		{
			name: "depth too small",
			src:  mapSource{KeyHistoryDepth: 1.0},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, def.HistoryDepth, c.HistoryDepth)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Load(tt.src)
			require.NoError(t, c.Validate())
			tt.check(t, c)
		})
	}
}

func TestParseDelivery(t *testing.T) {
	for _, s := range []string{"host", "STDOUT", " upload "} {
		_, err := ParseDelivery(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseDelivery("")
	assert.Error(t, err)
}
