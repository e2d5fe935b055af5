package ops

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/interp"

	"github.com/roman-kulish/specz/internal/spectrum"
)

// Interpolate evaluates the piecewise-linear curve through (xp, fp) at every
// x. Points outside [xp[0], xp[n-1]] take the nearest edge value. xp does not
// need to be sorted; repeated sample points keep their first value.
func Interpolate(x, xp, fp []float64) []float64 {
	xp, fp = sortedPairs(xp, fp)

	out := make([]float64, len(x))
	switch len(xp) {
	case 0:
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	case 1:
		for i := range out {
			out[i] = fp[0]
		}
		return out
	}

	var pl interp.PiecewiseLinear
	_ = pl.Fit(xp, fp) // always nil
	for i, v := range x {
		out[i] = pl.Predict(v)
	}
	return out
}

// sortedPairs orders the sample points by x and drops repeated x values,
// as the fitted curve needs strictly increasing points.
func sortedPairs(xp, fp []float64) ([]float64, []float64) {
	idx := make([]int, len(xp))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(xp[a], xp[b]) })

	sx := make([]float64, 0, len(xp))
	sf := make([]float64, 0, len(fp))
	for _, j := range idx {
		if n := len(sx); n > 0 && sx[n-1] == xp[j] {
			continue
		}
		sx = append(sx, xp[j])
		sf = append(sf, fp[j])
	}
	return sx, sf
}

// align returns b's flux on a's wavelength grid. Interpolation is used only
// when requested and the grids differ; otherwise the lengths must match.
func align(a, b *spectrum.Spectrum, interpolate bool) ([]float64, error) {
	awl, bwl := a.Wavelength(), b.Wavelength()

	if interpolate && !slices.Equal(awl, bwl) {
		if b.Len() == 0 {
			return nil, ErrEmptySpectrum
		}
		return Interpolate(awl, bwl, b.Flux()), nil
	}

	if len(awl) != len(bwl) {
		return nil, fmt.Errorf("%w: %d vs %d samples, enable interpolation to align grids",
			spectrum.ErrLengthMismatch, len(awl), len(bwl))
	}
	return b.Flux(), nil
}

func operandName(s *spectrum.Spectrum) string {
	if s.Name() == "" {
		return "unnamed"
	}
	return s.Name()
}
