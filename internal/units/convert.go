package units

import (
	"fmt"
	"slices"

	"github.com/roman-kulish/specz/internal/spectrum"
)

// WavelengthToFrequency converts wavelengths in unit to frequencies in Hz.
func WavelengthToFrequency(values []float64, unit string) ([]float64, error) {
	u, err := parseKind(unit, KindWavelength)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = SpeedOfLight / (v * toMeters[u])
	}
	return out, nil
}

// FrequencyToWavelength converts frequencies in Hz to wavelengths in target.
func FrequencyToWavelength(values []float64, target string) ([]float64, error) {
	u, err := parseKind(target, KindWavelength)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = SpeedOfLight / v / toMeters[u]
	}
	return out, nil
}

// FrequencyToEnergy converts frequencies in Hz to photon energies in unit ("eV" or "J").
func FrequencyToEnergy(values []float64, unit string) ([]float64, error) {
	u, err := parseKind(unit, KindEnergy)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = PlanckConstant * v
		if u == ElectronVolt {
			out[i] /= JoulesPerElectronVolt
		}
	}
	return out, nil
}

// EnergyToFrequency is the inverse of FrequencyToEnergy.
func EnergyToFrequency(values []float64, unit string) ([]float64, error) {
	u, err := parseKind(unit, KindEnergy)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i, v := range values {
		joules := v
		if u == ElectronVolt {
			joules *= JoulesPerElectronVolt
		}
		out[i] = joules / PlanckConstant
	}
	return out, nil
}

// ConvertWavelengthUnits converts between wavelength units through meters.
func ConvertWavelengthUnits(values []float64, from, to string) ([]float64, error) {
	f, err := parseKind(from, KindWavelength)
	if err != nil {
		return nil, err
	}
	t, err := parseKind(to, KindWavelength)
	if err != nil {
		return nil, err
	}
	if f == t {
		return slices.Clone(values), nil
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * toMeters[f] / toMeters[t]
	}
	return out, nil
}

// ConvertValues converts spectral axis values between any two known units.
// Wavelength pairs go through meters, everything else through Hz.
func ConvertValues(values []float64, from, to string) ([]float64, error) {
	f, err := ParseUnit(from)
	if err != nil {
		return nil, err
	}
	t, err := ParseUnit(to)
	if err != nil {
		return nil, err
	}
	if f == t {
		return slices.Clone(values), nil
	}
	if f.Kind() == KindWavelength && t.Kind() == KindWavelength {
		return ConvertWavelengthUnits(values, string(f), string(t))
	}

	var hz []float64
	switch f.Kind() {
	case KindWavelength:
		hz, err = WavelengthToFrequency(values, string(f))
	case KindEnergy:
		hz, err = EnergyToFrequency(values, string(f))
	default:
		hz = slices.Clone(values)
	}
	if err != nil {
		return nil, err
	}

	switch t.Kind() {
	case KindWavelength:
		return FrequencyToWavelength(hz, string(t))
	case KindEnergy:
		return FrequencyToEnergy(hz, string(t))
	default:
		return hz, nil
	}
}

// Axis selects which array of a spectrum a conversion applies to.
type Axis int

const (
	AxisWavelength Axis = iota
	AxisFlux
)

func (a Axis) String() string {
	switch a {
	case AxisWavelength:
		return "wavelength"
	case AxisFlux:
		return "flux"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis maps "wavelength" or "flux" to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "wavelength":
		return AxisWavelength, nil
	case "flux":
		return AxisFlux, nil
	default:
		return 0, fmt.Errorf("unknown axis %q", s)
	}
}

type convertOptions struct {
	from string
	axis Axis
}

// ConvertOption adjusts Convert.
type ConvertOption func(*convertOptions)

// WithFromUnit overrides the source unit, which otherwise is the spectrum's
// current wavelength unit.
func WithFromUnit(unit string) ConvertOption {
	return func(o *convertOptions) {
		o.from = unit
	}
}

func WithAxis(axis Axis) ConvertOption {
	return func(o *convertOptions) {
		o.axis = axis
	}
}

// Convert returns a new spectrum whose wavelength axis is expressed in to.
// Flux values and metadata are carried over unchanged. Only the wavelength
// axis is supported.
func Convert(s *spectrum.Spectrum, to string, opts ...ConvertOption) (*spectrum.Spectrum, error) {
	o := convertOptions{from: s.WavelengthUnit(), axis: AxisWavelength}
	for _, opt := range opts {
		opt(&o)
	}

	if o.axis != AxisWavelength {
		return nil, fmt.Errorf("converting %s axis: %w", o.axis, ErrNotImplemented)
	}

	target, err := ParseUnit(to)
	if err != nil {
		return nil, err
	}

	values, err := ConvertValues(s.Wavelength(), o.from, string(target))
	if err != nil {
		return nil, fmt.Errorf("converting wavelength: %w", err)
	}

	return s.Derive(spectrum.Transform{
		Operation: spectrum.OpUnitConversion,
		Details: map[string]any{
			"axis":      o.axis.String(),
			"from_unit": o.from,
			"to_unit":   string(target),
		},
		Wavelength:     values,
		WavelengthUnit: string(target),
	})
}
