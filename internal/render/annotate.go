package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	tickMarkLength = 5
	titleScale     = 1.3
	legendSwatch   = 24
	legendPadding  = 8
)

type annotator struct {
	context   *freetype.Context
	fontFace  font.Face
	titleFace font.Face
	fontSize  float64
}

func newAnnotator(f *truetype.Font, size float64) (*annotator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size: %v", size)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetSrc(image.Black)
	ctx.SetHinting(font.HintingFull)

	return &annotator{
		context: ctx,
		fontFace: truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
		titleFace: truetype.NewFace(f, &truetype.Options{
			Size:    size * titleScale,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
		fontSize: size,
	}, nil
}

func (a *annotator) attach(img *image.RGBA) {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)
}

func (a *annotator) Close() {
	_ = a.fontFace.Close()
	_ = a.titleFace.Close()
}

func (a *annotator) lineHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) textWidth(s string) int {
	return font.MeasureString(a.fontFace, s).Round()
}

func (a *annotator) drawString(s string, x, y int, c color.Color) error {
	a.context.SetSrc(image.NewUniform(c))
	if _, err := a.context.DrawString(s, freetype.Pt(x, y)); err != nil {
		return fmt.Errorf("drawing %q: %w", s, err)
	}
	return nil
}

// drawTitle centers the title inside the top border.
func (a *annotator) drawTitle(img *image.RGBA, title string, top int) error {
	if title == "" {
		return nil
	}

	a.context.SetFontSize(a.fontSize * titleScale)
	defer a.context.SetFontSize(a.fontSize)

	metrics := a.titleFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	width := font.MeasureString(a.titleFace, title).Round()

	x := (img.Bounds().Dx() - width) / 2
	y := max(metrics.Ascent.Round(), (top-fontHeight)/2+metrics.Ascent.Round()-fontHeight/3)
	return a.drawString(title, x, y, color.Black)
}

func (a *annotator) drawPanelTitle(img *image.RGBA, area image.Rectangle, title string) error {
	if title == "" {
		return nil
	}
	x := area.Min.X + (area.Dx()-a.textWidth(title))/2
	return a.drawString(title, x, area.Min.Y-6, color.Black)
}

func (a *annotator) drawXScale(img *image.RGBA, area image.Rectangle, m mapper, ticks []float64, label string) error {
	step := tickStep(ticks)
	lh := a.lineHeight()

	for _, t := range ticks {
		x := m.x(t)
		if x < area.Min.X || x >= area.Max.X {
			continue
		}

		// Draw tick mark
		for y := area.Max.Y; y < area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}

		text := formatTick(t, step)
		if err := a.drawString(text, x-a.textWidth(text)/2, area.Max.Y+tickMarkLength+lh, color.Black); err != nil {
			return err
		}
	}

	if label == "" {
		return nil
	}
	x := area.Min.X + (area.Dx()-a.textWidth(label))/2
	return a.drawString(label, x, area.Max.Y+tickMarkLength+2*lh+6, color.Black)
}

func (a *annotator) drawYScale(img *image.RGBA, area image.Rectangle, m mapper, ticks []float64, label string) error {
	step := tickStep(ticks)
	ascent := a.fontFace.Metrics().Ascent.Round()

	for _, t := range ticks {
		y := m.y(t)
		if y < area.Min.Y || y >= area.Max.Y {
			continue
		}

		// Draw tick mark
		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		text := formatTick(t, step)
		x := area.Min.X - tickMarkLength - 3 - a.textWidth(text)
		if err := a.drawString(text, x, y+ascent/2, color.Black); err != nil {
			return err
		}
	}

	if label == "" {
		return nil
	}
	// no rotated text, so the axis label sits above the scale
	return a.drawString(label, max(2, area.Min.X-a.textWidth(label)/2), area.Min.Y-6-a.lineHeight(), color.Black)
}

// drawLegend draws a boxed key in the upper right corner of the area.
func (a *annotator) drawLegend(img *image.RGBA, area image.Rectangle, traces []trace) error {
	var labelled []trace
	width := 0
	for _, t := range traces {
		if t.label == "" {
			continue
		}
		labelled = append(labelled, t)
		width = max(width, a.textWidth(t.label))
	}
	if len(labelled) == 0 {
		return nil
	}

	lh := a.lineHeight() + 4
	box := image.Rect(0, 0, legendSwatch+width+3*legendPadding, len(labelled)*lh+legendPadding*2)
	box = box.Add(image.Pt(area.Max.X-box.Dx()-legendPadding, area.Min.Y+legendPadding))

	fillRect(img, box, color.White)
	drawRect(img, box, legendBorderColor)

	ascent := a.fontFace.Metrics().Ascent.Round()
	y := box.Min.Y + legendPadding
	for _, t := range labelled {
		mid := y + lh/2
		x0 := box.Min.X + legendPadding
		for dy := -1; dy <= 0; dy++ {
			for x := x0; x < x0+legendSwatch; x++ {
				img.Set(x, mid+dy, t.color)
			}
		}
		if err := a.drawString(t.label, x0+legendSwatch+legendPadding, mid+ascent/2-1, color.Black); err != nil {
			return err
		}
		y += lh
	}
	return nil
}

// niceStep rounds a raw step up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 || !isFinite(raw) {
		return 1
	}
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	switch f := raw / base; {
	case f <= 1:
		return base
	case f <= 2:
		return 2 * base
	case f <= 5:
		return 5 * base
	default:
		return 10 * base
	}
}

// niceTicks returns evenly spaced round values covering [lo, hi] with at
// most about maxTicks intervals.
func niceTicks(lo, hi float64, maxTicks int) []float64 {
	if !(hi > lo) || maxTicks < 1 {
		return nil
	}
	step := niceStep((hi - lo) / float64(maxTicks))
	start := math.Floor(lo/step) * step
	end := math.Ceil(hi/step) * step

	n := int(math.Round((end-start)/step)) + 1
	ticks := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := start + float64(i)*step
		// snap accumulated error such as 0.30000000000000004
		v = math.Round(v/step) * step
		if v == 0 {
			v = 0 // normalize -0
		}
		ticks = append(ticks, v)
	}
	return ticks
}

func tickStep(ticks []float64) float64 {
	if len(ticks) < 2 {
		return 1
	}
	return ticks[1] - ticks[0]
}

// formatTick prints a tick value with enough decimals for the step. Very
// large and very small magnitudes use SI prefixes.
func formatTick(v, step float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e5 || abs < 1e-3 {
		fract, suffix := humanize.ComputeSI(v)
		return strconv.FormatFloat(roundTo(fract, 3), 'g', -1, 64) + suffix
	}

	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func roundTo(v float64, digits int) float64 {
	if v == 0 {
		return 0
	}
	scale := math.Pow(10, float64(digits)-math.Ceil(math.Log10(math.Abs(v))))
	return math.Round(v*scale) / scale
}
