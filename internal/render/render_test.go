package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/specz/internal/spectrum"
)

func newSpectrum(t *testing.T, name string, wl, flux []float64) *spectrum.Spectrum {
	t.Helper()
	s, err := spectrum.New(wl, flux, spectrum.WithName(name), spectrum.WithUnits("nm", "counts"))
	require.NoError(t, err)
	return s
}

func ramp(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func countColor(img *image.RGBA, want color.Color) int {
	wr, wg, wb, _ := want.RGBA()
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			if r>>8 == wr>>8 && g>>8 == wg>>8 && bb>>8 == wb>>8 {
				n++
			}
		}
	}
	return n
}

func TestNewRenderer_Defaults(t *testing.T) {
	r, err := NewRenderer(RenderConfig{})
	require.NoError(t, err)

	cfg := r.Config()
	assert.Equal(t, defaultWidth, cfg.Width)
	assert.Equal(t, defaultHeight, cfg.Height)
	assert.Equal(t, fontSize, cfg.FontSize)
	assert.Equal(t, lineWidth, cfg.LineWidth)
	assert.Equal(t, BorderConfig{
		Top:    defaultTopBorder,
		Left:   defaultLeftBorder,
		Bottom: defaultBottomBorder,
		Right:  defaultRightBorder,
	}, cfg.BorderConfig)

	_, err = NewRenderer(RenderConfig{Width: 100, Height: 100})
	require.Error(t, err)
}

func TestRenderer_Plot(t *testing.T) {
	r, err := NewRenderer(RenderConfig{Width: 900, Height: 600})
	require.NoError(t, err)

	flux := ramp(50, 1, 0.5)
	flux[20] = math.NaN()
	img, err := r.Plot(newSpectrum(t, "lamp", ramp(50, 400, 2), flux), "")
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 900, 600), img.Bounds())
	assert.Greater(t, countColor(img, TraceColor(0)), 100)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(0, img.Bounds().Max.Y-1))

	_, err = r.Plot(nil, "")
	require.ErrorIs(t, err, ErrNoSpectra)
}

func TestRenderer_Compare(t *testing.T) {
	r, err := NewRenderer(RenderConfig{})
	require.NoError(t, err)

	a := newSpectrum(t, "a", ramp(30, 500, 1), ramp(30, 10, 1))
	b := newSpectrum(t, "", ramp(30, 500, 1), ramp(30, 1000, -3))

	for _, normalize := range []bool{false, true} {
		img, err := r.Compare([]*spectrum.Spectrum{a, b}, nil, "", normalize)
		require.NoError(t, err)
		assert.Greater(t, countColor(img, TraceColor(0)), 50)
		assert.Greater(t, countColor(img, TraceColor(1)), 50)
	}

	_, err = r.Compare(nil, nil, "", false)
	require.ErrorIs(t, err, ErrNoSpectra)
}

func TestRenderer_Difference(t *testing.T) {
	r, err := NewRenderer(RenderConfig{Width: 900, Height: 600})
	require.NoError(t, err)

	a := newSpectrum(t, "obs", ramp(40, 400, 5), ramp(40, 5, 1))
	b := newSpectrum(t, "model", ramp(20, 400, 10), ramp(20, 6, 2))

	img, err := r.Difference(a, b, "")
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dy())
	assert.Greater(t, countColor(img, TraceColor(2)), 50)
	assert.Positive(t, countColor(img, zeroLineColor))
}

func TestNiceTicks(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   float64
		maxTicks int
		want     []float64
	}{
		{"unit range", 0, 1, 5, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}},
		{"expands to round bounds", 403, 697, 3, []float64{400, 500, 600, 700}},
		{"negative", -3, 3, 3, []float64{-4, -2, 0, 2, 4}},
		{"degenerate", 1, 1, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, niceTicks(tt.lo, tt.hi, tt.maxTicks), 1e-12)
		})
	}
}

func TestFormatTick(t *testing.T) {
	assert.Equal(t, "0", formatTick(0, 1))
	assert.Equal(t, "500", formatTick(500, 100))
	assert.Equal(t, "0.4", formatTick(0.4, 0.2))
	assert.Equal(t, "0.25", formatTick(0.25, 0.05))
	assert.Equal(t, "2M", formatTick(2e6, 1e6))
	assert.Equal(t, "100f", formatTick(1e-13, 1e-13))
}

func TestParseImageFormat(t *testing.T) {
	f, err := ParseImageFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, ImageJPEG, f)

	_, err = ParseImageFormat("gif")
	require.Error(t, err)

	assert.Equal(t, ImageJPEG, FormatFromPath("out/plot.jpeg", ImagePNG))
	assert.Equal(t, ImagePNG, FormatFromPath("plot.html", ImagePNG))
	assert.Equal(t, ImagePNG, FormatFromPath("plot", ImagePNG))
}

func TestEncodeAndSave(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, ImagePNG))
	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)

	path := filepath.Join(t.TempDir(), "plot.jpg")
	require.NoError(t, SaveImage(path, img, ImageJPEG))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err = jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Height)

	require.Error(t, Encode(&buf, img, ImageFormat("bmp")))
}
