package ops

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMethod     = errors.New("invalid method")
	ErrInvalidWindow     = errors.New("invalid smoothing window")
	ErrZeroNormalization = errors.New("cannot normalize: normalization factor is zero")
	ErrEmptyRegion       = errors.New("normalization region contains no samples")
	ErrEmptySpectrum     = errors.New("operand spectrum has no samples")
)

// ZeroPolicy controls how Divide treats zero denominators.
type ZeroPolicy int

const (
	// ZeroMask yields NaN wherever the denominator is exactly zero.
	ZeroMask ZeroPolicy = iota
	// ZeroNaN performs raw IEEE 754 division (±Inf or NaN).
	ZeroNaN
	// ZeroSmall replaces zero denominators with SmallDenominator.
	ZeroSmall
)

// SmallDenominator substitutes zero denominators under ZeroSmall.
const SmallDenominator = 1e-10

var zeroPolicyNames = map[ZeroPolicy]string{
	ZeroMask:  "mask",
	ZeroNaN:   "nan",
	ZeroSmall: "small",
}

func (p ZeroPolicy) String() string {
	if s, ok := zeroPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("ZeroPolicy(%d)", int(p))
}

// ParseZeroPolicy maps "mask", "nan" or "small" to a ZeroPolicy.
func ParseZeroPolicy(s string) (ZeroPolicy, error) {
	return parseEnum(s, zeroPolicyNames, "zero handling policy")
}

// NormalizeMethod selects how the normalization factor is computed.
type NormalizeMethod int

const (
	NormalizePeak NormalizeMethod = iota
	NormalizeArea
	NormalizeContinuum
)

var normalizeMethodNames = map[NormalizeMethod]string{
	NormalizePeak:      "peak",
	NormalizeArea:      "area",
	NormalizeContinuum: "continuum",
}

func (m NormalizeMethod) String() string {
	if s, ok := normalizeMethodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("NormalizeMethod(%d)", int(m))
}

// ParseNormalizeMethod maps "peak", "area" or "continuum" to a NormalizeMethod.
func ParseNormalizeMethod(s string) (NormalizeMethod, error) {
	return parseEnum(s, normalizeMethodNames, "normalization method")
}

// SmoothMethod selects the smoothing kernel.
type SmoothMethod int

const (
	SmoothSavGol SmoothMethod = iota
	SmoothBoxcar
	SmoothGaussian
)

var smoothMethodNames = map[SmoothMethod]string{
	SmoothSavGol:   "savgol",
	SmoothBoxcar:   "boxcar",
	SmoothGaussian: "gaussian",
}

func (m SmoothMethod) String() string {
	if s, ok := smoothMethodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SmoothMethod(%d)", int(m))
}

// ParseSmoothMethod maps "savgol", "boxcar" or "gaussian" to a SmoothMethod.
func ParseSmoothMethod(s string) (SmoothMethod, error) {
	return parseEnum(s, smoothMethodNames, "smoothing method")
}

func parseEnum[T comparable](s string, names map[T]string, what string) (T, error) {
	for v, name := range names {
		if name == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalidMethod, what, s)
}
