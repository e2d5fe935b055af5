package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// palette is cycled through when drawing several spectra on one panel
var palette = []color.Color{
	mustHex("#4169e1"), // royalblue
	mustHex("#dc143c"), // crimson
	mustHex("#228b22"), // forestgreen
	mustHex("#ff8c00"), // darkorange
	mustHex("#800080"), // purple
	mustHex("#a52a2a"), // brown
	mustHex("#ffc0cb"), // pink
	mustHex("#808080"), // gray
	mustHex("#808000"), // olive
	mustHex("#00ffff"), // cyan
}

var (
	gridColor         = colorful.Hsv(0, 0, 0.92)
	legendBorderColor = colorful.Hsv(0, 0, 0.75)
	zeroLineColor     = colorful.Hsv(0, 0, 0.5)
)

// TraceColor returns the palette color for the i-th trace.
func TraceColor(i int) color.Color {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
