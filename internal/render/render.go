// Package render draws spectra as static line plots.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

// ImageFormat selects the encoder used by Encode.
type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// ParseImageFormat validates a format name, accepting "jpg" for JPEG.
func ParseImageFormat(s string) (ImageFormat, error) {
	f := ImageFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "jpg" {
		f = ImageJPEG
	}
	if _, ok := validImageFormats[f]; !ok {
		return "", fmt.Errorf("invalid image format: %s", s)
	}
	return f, nil
}

// FormatFromPath picks the image format from a file extension, defaulting
// to def.
func FormatFromPath(path string, def ImageFormat) ImageFormat {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return def
	}
	if f, err := ParseImageFormat(path[idx+1:]); err == nil {
		return f
	}
	return def
}

const (
	dpi       = 72.0
	fontSize  = 12.0
	lineWidth = 2

	defaultWidth  = 1000
	defaultHeight = 600

	// Default border sizes in pixels
	defaultTopBorder    = 50
	defaultLeftBorder   = 90
	defaultBottomBorder = 60
	defaultRightBorder  = 30

	panelGap = 60
)

// BorderConfig defines the sizes of white space around the plot area
type BorderConfig struct {
	Top    int // Space for the title
	Left   int // Space for the flux scale
	Bottom int // Space for the wavelength scale and axis label
	Right  int // Right padding
}

// RenderConfig holds all configuration options for spectrum plots
type RenderConfig struct {
	Width     int     // Image width in pixels
	Height    int     // Image height in pixels
	FontSize  float64 // Font size in points
	LineWidth int     // Trace thickness in pixels

	BorderConfig BorderConfig
}

// Renderer draws spectra into RGBA images.
type Renderer struct {
	config RenderConfig
	font   *truetype.Font
}

// NewRenderer creates a renderer, filling zero config values with defaults.
func NewRenderer(config RenderConfig) (*Renderer, error) {
	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.Height == 0 {
		config.Height = defaultHeight
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.LineWidth == 0 {
		config.LineWidth = lineWidth
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	if config.Width <= config.BorderConfig.Left+config.BorderConfig.Right ||
		config.Height <= config.BorderConfig.Top+config.BorderConfig.Bottom {
		return nil, fmt.Errorf("image %dx%d is too small for its borders", config.Width, config.Height)
	}

	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return &Renderer{config: config, font: parsedFont}, nil
}

// Config returns the effective configuration.
func (r *Renderer) Config() RenderConfig {
	return r.config
}

// trace is one polyline in a panel.
type trace struct {
	label      string
	wavelength []float64
	flux       []float64
	color      color.Color
}

// panel is one set of axes.
type panel struct {
	title    string
	xLabel   string
	yLabel   string
	traces   []trace
	zeroLine bool
	legend   bool
}

// render lays the panels out top to bottom; weights give their relative
// heights.
func (r *Renderer) render(title string, height int, panels []panel, weights []float64) (*image.RGBA, error) {
	b := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, height))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ann, err := newAnnotator(r.font, r.config.FontSize)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()
	ann.attach(img)

	if err = ann.drawTitle(img, title, b.Top); err != nil {
		return nil, fmt.Errorf("drawing title: %w", err)
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	available := height - b.Top - b.Bottom - panelGap*(len(panels)-1)
	if available <= 0 {
		return nil, fmt.Errorf("image height %d is too small for %d panels", height, len(panels))
	}

	top := b.Top
	for i, p := range panels {
		h := int(float64(available) * weights[i] / total)
		area := image.Rect(b.Left, top, r.config.Width-b.Right, top+h)

		if err = r.drawPanel(img, ann, area, p); err != nil {
			return nil, fmt.Errorf("drawing panel %d: %w", i+1, err)
		}
		top += h + panelGap
	}

	return img, nil
}

func (r *Renderer) drawPanel(img *image.RGBA, ann *annotator, area image.Rectangle, p panel) error {
	xMin, xMax, yMin, yMax := dataBounds(p.traces, p.zeroLine)
	xTicks := niceTicks(xMin, xMax, max(2, area.Dx()/120))
	yTicks := niceTicks(yMin, yMax, max(2, area.Dy()/60))
	if len(xTicks) > 0 {
		xMin, xMax = math.Min(xMin, xTicks[0]), math.Max(xMax, xTicks[len(xTicks)-1])
	}
	if len(yTicks) > 0 {
		yMin, yMax = math.Min(yMin, yTicks[0]), math.Max(yMax, yTicks[len(yTicks)-1])
	}
	m := newMapper(area, xMin, xMax, yMin, yMax)

	drawGrid(img, area, m, xTicks, yTicks)

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing wavelength scale", func() error { return ann.drawXScale(img, area, m, xTicks, p.xLabel) }},
		{"drawing flux scale", func() error { return ann.drawYScale(img, area, m, yTicks, p.yLabel) }},
		{"drawing panel title", func() error { return ann.drawPanelTitle(img, area, p.title) }},
	}
	for _, op := range ops {
		if err := op.fn(); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	if p.zeroLine && yMin <= 0 && yMax >= 0 {
		drawDashedHLine(img, area, m.y(0), zeroLineColor)
	}

	for _, t := range p.traces {
		drawPolyline(img, area, m, t.wavelength, t.flux, t.color, r.config.LineWidth)
	}

	drawFrame(img, area)

	if p.legend {
		if err := ann.drawLegend(img, area, p.traces); err != nil {
			return fmt.Errorf("drawing legend: %w", err)
		}
	}
	return nil
}

// dataBounds returns the finite extent of all traces. Degenerate extents
// are widened so that the mapping stays defined.
func dataBounds(traces []trace, includeZero bool) (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, t := range traces {
		for i, x := range t.wavelength {
			y := t.flux[i]
			if !isFinite(x) || !isFinite(y) {
				continue
			}
			xMin, xMax = math.Min(xMin, x), math.Max(xMax, x)
			yMin, yMax = math.Min(yMin, y), math.Max(yMax, y)
		}
	}
	if math.IsInf(xMin, 1) {
		xMin, xMax, yMin, yMax = 0, 1, 0, 1
	}
	if includeZero {
		yMin, yMax = math.Min(yMin, 0), math.Max(yMax, 0)
	}
	xMin, xMax = widen(xMin, xMax)
	yMin, yMax = widen(yMin, yMax)
	return xMin, xMax, yMin, yMax
}

func widen(lo, hi float64) (float64, float64) {
	if hi > lo {
		return lo, hi
	}
	pad := math.Abs(lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// mapper converts data coordinates into pixel coordinates of an area.
type mapper struct {
	area       image.Rectangle
	xMin, xMax float64
	yMin, yMax float64
}

func newMapper(area image.Rectangle, xMin, xMax, yMin, yMax float64) mapper {
	return mapper{area: area, xMin: xMin, xMax: xMax, yMin: yMin, yMax: yMax}
}

func (m mapper) x(v float64) int {
	ratio := (v - m.xMin) / (m.xMax - m.xMin)
	return m.area.Min.X + int(math.Round(ratio*float64(m.area.Dx()-1)))
}

func (m mapper) y(v float64) int {
	ratio := (v - m.yMin) / (m.yMax - m.yMin)
	return m.area.Max.Y - 1 - int(math.Round(ratio*float64(m.area.Dy()-1)))
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{
			Quality: 98,
		})
	default:
		return fmt.Errorf("invalid image format: %s", format)
	}
}

// SaveImage encodes img into a new file at path.
func SaveImage(path string, img image.Image, format ImageFormat) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	if err = Encode(out, img, format); err != nil {
		return fmt.Errorf("encoding %s image: %w", format, err)
	}
	return nil
}
