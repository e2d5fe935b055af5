package ops

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/specz/internal/spectrum"
)

const (
	savGolOrder     = 3
	gaussianSigmas  = 4.0 // kernel truncation, in standard deviations
	gaussianDivisor = 3.0 // sigma = window / gaussianDivisor
)

// Smooth applies the selected kernel to the whole flux array. For SavGol an
// even window is widened to the next odd size; the window actually used is
// recorded in the provenance.
func Smooth(s *spectrum.Spectrum, windowSize int, method SmoothMethod) (*spectrum.Spectrum, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrInvalidWindow, windowSize)
	}

	flux := s.Flux()
	effective := windowSize

	var smoothed []float64
	var err error
	switch method {
	case SmoothSavGol:
		if effective%2 == 0 {
			effective++
		}
		smoothed, err = savGol(flux, effective, savGolOrder)
	case SmoothBoxcar:
		smoothed, err = boxcar(flux, effective)
	case SmoothGaussian:
		smoothed, err = gaussian(flux, float64(effective)/gaussianDivisor)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"method":      method.String(),
		"window_size": effective,
	}
	if effective != windowSize {
		details["requested_window_size"] = windowSize
	}

	return s.Derive(spectrum.Transform{
		Operation: spectrum.OpSmoothing,
		Details:   details,
		Flux:      smoothed,
	})
}

// reflect maps any index onto [0, n) by mirroring about the array edges
// (d c b a | a b c d | d c b a), including offsets wider than the array.
func reflect(i, n int) int {
	period := 2 * n
	m := i % period
	if m < 0 {
		m += period
	}
	if m >= n {
		m = period - 1 - m
	}
	return m
}

// reflectPad extends values by before and after samples mirrored about the
// array edges.
func reflectPad(values []float64, before, after int) []float64 {
	n := len(values)
	padded := make([]float64, n+before+after)
	for i := range padded {
		padded[i] = values[reflect(i-before, n)]
	}
	return padded
}

// correlate applies kernel centred at origin (index into kernel) with
// reflected edges. The output has the length of values.
func correlate(values, kernel []float64, origin int) ([]float64, error) {
	padded := reflectPad(values, origin, len(kernel)-1-origin)

	// FFT block convolution spreads a NaN over the whole block.
	if slices.ContainsFunc(values, math.IsNaN) {
		full, err := conv.CorrelateDirect(padded, kernel)
		if err != nil {
			return nil, err
		}
		return full[len(kernel)-1 : len(padded)], nil
	}
	return conv.CorrelateMode(padded, kernel, conv.ModeValid)
}

func boxcar(values []float64, size int) ([]float64, error) {
	if len(values) == 0 {
		return []float64{}, nil
	}

	kernel := make([]float64, size)
	for i := range kernel {
		kernel[i] = 1 / float64(size)
	}
	return correlate(values, kernel, size/2)
}

func gaussian(values []float64, sigma float64) ([]float64, error) {
	if len(values) == 0 {
		return []float64{}, nil
	}

	radius := int(gaussianSigmas*sigma + 0.5)
	if radius == 0 {
		return slices.Clone(values), nil
	}

	// window.Gaussian evaluates exp(-ln2 * (alpha*u)^2) for u in [-1, 1].
	alpha := float64(radius) / (sigma * math.Sqrt(2*math.Ln2))
	kernel, err := window.Gaussian(2*radius+1, alpha)
	if err != nil {
		return nil, fmt.Errorf("building gaussian kernel: %w", err)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	return correlate(values, kernel, radius)
}
