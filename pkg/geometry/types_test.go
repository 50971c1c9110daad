package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineInverseRoundTrip(t *testing.T) {
	tr := Translation(40, -12).Compose(Scale(2.5, 2.5))
	inv, ok := tr.Inverse()
	require.True(t, ok)

	for _, p := range []Point2D{{0, 0}, {10, 20}, {-3.5, 1e3}} {
		back := inv.Apply(tr.Apply(p))
		assert.InDelta(t, p.X, back.X, 1e-9)
		assert.InDelta(t, p.Y, back.Y, 1e-9)
	}
}

func TestAffineSingular(t *testing.T) {
	_, ok := Scale(0, 1).Inverse()
	assert.False(t, ok)
}

func TestPointIsFinite(t *testing.T) {
	assert.True(t, NewPoint2D(1, 2).IsFinite())
	assert.False(t, NewPoint2D(math.NaN(), 2).IsFinite())
	assert.False(t, NewPoint2D(1, math.Inf(-1)).IsFinite())
}

func TestRectClamp(t *testing.T) {
	r := NewRect(10, 10, 100, 50)
	assert.Equal(t, NewPoint2D(10, 60), r.Clamp(NewPoint2D(-5, 99)))
	assert.Equal(t, NewPoint2D(42, 30), r.Clamp(NewPoint2D(42, 30)))
}

func TestCentroid(t *testing.T) {
	c := Centroid([]Point2D{{0, 0}, {4, 0}, {4, 4}, {0, 4}})
	assert.Equal(t, NewPoint2D(2, 2), c)
	assert.Equal(t, Point2D{}, Centroid(nil))
}
