package mainwindow

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// MaskTheme tints the default theme for the mask editor.
type MaskTheme struct{}

var _ fyne.Theme = (*MaskTheme)(nil)

func (t *MaskTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x24, G: 0x81, B: 0xCC, A: 0xFF} // chat-client blue
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x00, G: 0xFF, B: 0xFF, A: 0x60} // matches the brush ring
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *MaskTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *MaskTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *MaskTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameInputBorder:
		return 2
	default:
		return theme.DefaultTheme().Size(name)
	}
}
