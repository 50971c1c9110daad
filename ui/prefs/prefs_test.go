package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)

	p := LoadFrom(path)
	assert.Equal(t, 7.0, p.FloatWithFallback("window.width", 7))
	assert.True(t, p.Bool("launch.strict", true))
	assert.Empty(t, p.String("delivery.mode"))

	p.SetFloat("window.width", 1024)
	p.SetString("delivery.mode", "stdout")
	p.SetBool("launch.strict", false)
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, 1024.0, q.FloatWithFallback("window.width", 7))
	assert.Equal(t, "stdout", q.String("delivery.mode"))
	assert.False(t, q.Bool("launch.strict", true))
}

func TestCorruptFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFrom(path)
	assert.Equal(t, 3.0, p.FloatWithFallback("brush.default", 3))
	assert.Equal(t, path, p.Path())
}

func TestWrongTypeFallsBack(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), prefsFile))
	p.SetString("brush.default", "big")
	p.SetFloat("delivery.mode", 1)

	assert.Equal(t, 15.0, p.FloatWithFallback("brush.default", 15))
	assert.Empty(t, p.String("delivery.mode"))
	assert.True(t, p.Bool("delivery.mode", true))
}
