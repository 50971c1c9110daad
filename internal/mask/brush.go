package mask

import "math"

// Brush holds the stroke thickness and the range the slider allows.
type Brush struct {
	Thickness float64
	Min       float64
	Max       float64
	Default   float64
}

// NewBrush creates a brush set to def, clamped to [min, max].
func NewBrush(min, max, def float64) Brush {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	b := Brush{Min: min, Max: max}
	b.Default = b.clamp(def)
	b.Thickness = b.Default
	return b
}

// Set changes the thickness, clamping it to the allowed range. It returns
// the value actually applied.
func (b *Brush) Set(thickness float64) float64 {
	b.Thickness = b.clamp(thickness)
	return b.Thickness
}

// Reset restores the default thickness.
func (b *Brush) Reset() {
	b.Thickness = b.Default
}

// Radius returns half the thickness.
func (b Brush) Radius() float64 {
	return b.Thickness / 2
}

func (b Brush) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return b.Min
	}
	return math.Max(b.Min, math.Min(b.Max, math.Round(v)))
}
