package ops

import (
	"fmt"
	"math"
	"slices"

	"github.com/roman-kulish/specz/internal/spectrum"
)

const normalizedUnit = "normalized"

// Region is an inclusive wavelength interval.
type Region struct {
	Min float64
	Max float64
}

// Normalize divides the whole spectrum by a factor computed from region (or
// from all samples when region is nil). NaN samples do not contribute to the
// factor.
func Normalize(s *spectrum.Spectrum, method NormalizeMethod, region *Region) (*spectrum.Spectrum, error) {
	wl, flux := s.Wavelength(), s.Flux()

	rwl, rflux := wl, flux
	if region != nil {
		rwl, rflux = nil, nil
		for i, w := range wl {
			if w >= region.Min && w <= region.Max {
				rwl = append(rwl, w)
				rflux = append(rflux, flux[i])
			}
		}
	}

	var factor float64
	var err error
	switch method {
	case NormalizePeak:
		factor, err = peak(rflux)
	case NormalizeArea:
		factor, err = area(rwl, rflux)
	case NormalizeContinuum:
		factor, err = continuum(rflux)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}
	if err != nil {
		return nil, fmt.Errorf("computing %s factor: %w", method, err)
	}
	if factor == 0 {
		return nil, ErrZeroNormalization
	}

	for i := range flux {
		flux[i] /= factor
	}

	details := map[string]any{
		"method":      method.String(),
		"norm_factor": factor,
		"range_min":   nil,
		"range_max":   nil,
	}
	if region != nil {
		details["range_min"] = region.Min
		details["range_max"] = region.Max
	}

	return s.Derive(spectrum.Transform{
		Operation: spectrum.OpNormalization,
		Details:   details,
		Flux:      flux,
		FluxUnit:  normalizedUnit,
	})
}

func finite(values []float64) []float64 {
	return slices.DeleteFunc(slices.Clone(values), math.IsNaN)
}

func peak(flux []float64) (float64, error) {
	vals := finite(flux)
	if len(vals) == 0 {
		return 0, ErrEmptyRegion
	}
	return slices.Max(vals), nil
}

// area integrates flux over wavelength with the trapezoidal rule, skipping
// intervals that touch a NaN sample.
func area(wl, flux []float64) (float64, error) {
	if len(finite(flux)) == 0 {
		return 0, ErrEmptyRegion
	}

	var sum float64
	for i := 1; i < len(flux); i++ {
		if math.IsNaN(flux[i-1]) || math.IsNaN(flux[i]) {
			continue
		}
		sum += (wl[i] - wl[i-1]) * (flux[i] + flux[i-1]) / 2
	}
	return sum, nil
}

// continuum returns the median of the brightest 10% of samples. The slice
// always holds at least one value, so regions with fewer than ten samples use
// their maximum.
func continuum(flux []float64) (float64, error) {
	vals := finite(flux)
	if len(vals) == 0 {
		return 0, ErrEmptyRegion
	}
	slices.Sort(vals)

	start := min(int(float64(len(vals))*0.9), len(vals)-1)
	return median(vals[start:]), nil
}

// median of sorted values.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
