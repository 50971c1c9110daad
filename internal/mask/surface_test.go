package mask

import (
	"image/color"
	"math"
	"testing"

	"github.com/d1alecttt/mini-app/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func brush(thickness float64) Brush {
	return Brush{Thickness: thickness}
}

func newTestSurface(t *testing.T, w, h int) *Surface {
	t.Helper()
	s, err := NewSurface(w, h, white)
	require.NoError(t, err)
	return s
}

func TestNewSurfaceRejectsEmpty(t *testing.T) {
	_, err := NewSurface(0, 10, white)
	require.Error(t, err)
	_, err = NewSurface(10, -1, white)
	require.Error(t, err)
}

func TestSurfaceStartsTransparent(t *testing.T) {
	s := newTestSurface(t, 16, 9)
	assert.Equal(t, 16, s.Width())
	assert.Equal(t, 9, s.Height())
	assert.Zero(t, s.Painted())
}

func TestDotPaintsDisc(t *testing.T) {
	s := newTestSurface(t, 40, 40)
	s.Dot(geometry.NewPoint2D(20, 20), brush(10))

	assert.Equal(t, white, s.Image().RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(20, 30), "outside the radius")
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(0, 0))

	// Roughly pi*r^2 pixels, allowing for antialiased rim.
	assert.InDelta(t, 78, s.Painted(), 25)
}

func TestSegmentPaintsRoundCappedLine(t *testing.T) {
	s := newTestSurface(t, 100, 40)
	s.Segment(geometry.NewPoint2D(20, 20), geometry.NewPoint2D(80, 20), brush(8))

	assert.Equal(t, white, s.Image().RGBAAt(50, 20))
	assert.Equal(t, white, s.Image().RGBAAt(50, 22))
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(50, 30))
	// Round caps extend past the endpoints by half the thickness.
	assert.NotZero(t, s.Image().RGBAAt(17, 20).A)
	assert.Zero(t, s.Image().RGBAAt(10, 20).A)
}

func TestSegmentZeroLengthIsDot(t *testing.T) {
	s := newTestSurface(t, 20, 20)
	p := geometry.NewPoint2D(10, 10)
	s.Segment(p, p, brush(6))
	assert.Equal(t, white, s.Image().RGBAAt(10, 10))
}

func TestSegmentIgnoresInvalidInput(t *testing.T) {
	s := newTestSurface(t, 20, 20)
	nan := geometry.NewPoint2D(math.NaN(), 1)
	s.Segment(nan, geometry.NewPoint2D(5, 5), brush(4))
	s.Dot(geometry.NewPoint2D(5, 5), brush(0))
	assert.Zero(t, s.Painted())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestSurface(t, 10, 10)
	snap, err := s.Snapshot()
	require.NoError(t, err)

	s.Dot(geometry.NewPoint2D(5, 5), brush(4))
	require.NotZero(t, s.Painted())

	after, err := s.Snapshot()
	require.NoError(t, err)
	assert.NotEqual(t, snap, after, "later drawing must not alter a stored snapshot")

	require.NoError(t, s.Restore(snap))
	assert.Zero(t, s.Painted())
}

func TestRestoreSizeMismatch(t *testing.T) {
	a := newTestSurface(t, 10, 10)
	b := newTestSurface(t, 5, 5)
	snap, err := b.Snapshot()
	require.NoError(t, err)
	require.ErrorIs(t, a.Restore(snap), ErrSnapshot)
}

func TestSnapshotNilSurface(t *testing.T) {
	var s *Surface
	_, err := s.Snapshot()
	require.ErrorIs(t, err, ErrSnapshot)
}

func TestDotUsesBrushRadius(t *testing.T) {
	s := newTestSurface(t, 40, 40)
	b := NewBrush(1, 100, 20)
	s.Dot(geometry.NewPoint2D(20, 20), b)

	assert.Equal(t, 10.0, b.Radius())
	assert.Equal(t, white, s.Image().RGBAAt(20, 11))
	assert.Zero(t, s.Image().RGBAAt(20, 8).A)
}

func TestBrushClamp(t *testing.T) {
	b := NewBrush(1, 100, 15)
	assert.Equal(t, 15.0, b.Thickness)
	assert.Equal(t, 100.0, b.Set(500))
	assert.Equal(t, 1.0, b.Set(-3))
	assert.Equal(t, 42.0, b.Set(41.6))
	b.Reset()
	assert.Equal(t, 15.0, b.Thickness)
	assert.Equal(t, 7.5, b.Radius())

	odd := NewBrush(10, 5, 1)
	assert.Equal(t, 10.0, odd.Thickness)
}
