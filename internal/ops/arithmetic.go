package ops

import (
	"fmt"
	"math"

	"github.com/roman-kulish/specz/internal/spectrum"
)

// Subtract returns a - b on a's wavelength grid. When interpolate is set and
// the grids differ, b is linearly interpolated onto a's grid.
func Subtract(a, b *spectrum.Spectrum, interpolate bool) (*spectrum.Spectrum, error) {
	bf, err := align(a, b, interpolate)
	if err != nil {
		return nil, fmt.Errorf("aligning operand: %w", err)
	}

	flux := a.Flux()
	for i := range flux {
		flux[i] -= bf[i]
	}

	return a.Derive(spectrum.Transform{
		Operation: spectrum.OpSubtraction,
		Details: map[string]any{
			"operand":      operandName(b),
			"interpolated": interpolate,
		},
		Flux: flux,
	})
}

// Divide returns a / b on a's wavelength grid, applying policy to zero
// denominators. The flux unit becomes "(a)/(b)".
func Divide(a, b *spectrum.Spectrum, interpolate bool, policy ZeroPolicy) (*spectrum.Spectrum, error) {
	if _, ok := zeroPolicyNames[policy]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, policy)
	}

	bf, err := align(a, b, interpolate)
	if err != nil {
		return nil, fmt.Errorf("aligning operand: %w", err)
	}

	flux := a.Flux()
	for i, den := range bf {
		switch {
		case den != 0:
			flux[i] /= den
		case policy == ZeroMask:
			flux[i] = math.NaN()
		case policy == ZeroSmall:
			flux[i] /= SmallDenominator
		default:
			flux[i] /= den
		}
	}

	return a.Derive(spectrum.Transform{
		Operation: spectrum.OpDivision,
		Details: map[string]any{
			"operand":      operandName(b),
			"interpolated": interpolate,
			"handle_zeros": policy.String(),
		},
		Flux:     flux,
		FluxUnit: fmt.Sprintf("(%s)/(%s)", a.FluxUnit(), b.FluxUnit()),
	})
}
