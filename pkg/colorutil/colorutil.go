// Package colorutil provides shared colors and color parsing for the workspace.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Workspace palette.
var (
	Black      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Background = color.RGBA{R: 229, G: 231, B: 235, A: 255}
	Canvas     = color.RGBA{R: 249, G: 250, B: 251, A: 255}
	Border     = color.RGBA{R: 156, G: 163, B: 175, A: 255}
	Highlight  = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	Lineage    = color.RGBA{R: 107, G: 114, B: 128, A: 255}
	Link       = color.RGBA{R: 16, G: 185, B: 129, A: 255}
	MaskTint   = color.RGBA{R: 239, G: 68, B: 68, A: 255}
)

// WithAlpha returns c with its alpha replaced, premultiplying the channels.
func WithAlpha(c color.RGBA, alpha uint8) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(alpha) / 255) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: alpha}
}

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading # is optional).
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}
