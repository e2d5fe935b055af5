package catalog

import (
	"context"
	"math"
	"slices"

	"github.com/roman-kulish/specz/internal/spectrum"
	"github.com/roman-kulish/specz/internal/units"
)

const exampleSuffix = " (example data)"

type line struct {
	wavelength float64
	strength   float64
}

// Prominent lines per element, wavelengths in nm.
var exampleAtomicLines = map[string][]line{
	"H":  {{656.3, 1.0}, {486.1, 0.5}, {434.0, 0.3}, {410.2, 0.2}},
	"He": {{587.6, 1.0}, {667.8, 0.5}, {501.6, 0.4}},
	"Fe": {{438.4, 1.0}, {440.5, 0.8}, {466.8, 0.6}, {495.8, 0.5}, {526.9, 0.7}},
	"O":  {{777.4, 1.0}, {844.6, 0.8}, {926.6, 0.6}},
	"Na": {{589.0, 1.0}, {589.6, 0.95}},
	"Ca": {{393.4, 1.0}, {396.8, 0.9}, {422.7, 0.7}},
}

var defaultAtomicLines = []line{{500.0, 1.0}, {550.0, 0.8}, {600.0, 0.6}}

// Band centres per molecule, wavelengths in nm.
var exampleMolecularBands = map[string][]line{
	"H2O": {{940, 1.0}, {1130, 0.8}, {1380, 0.9}, {1870, 0.7}, {2700, 0.6}, {3200, 0.5}, {6300, 0.4}},
	"CO2": {{1400, 1.0}, {1600, 0.9}, {2000, 0.7}, {2700, 0.8}, {4300, 1.0}},
	"CH4": {{1660, 1.0}, {2200, 0.8}, {3300, 0.9}, {7600, 0.6}},
	"CO":  {{2340, 1.0}, {4670, 0.7}},
	"NH3": {{1500, 1.0}, {3000, 0.8}, {6150, 0.6}, {10500, 0.5}},
}

var defaultMolecularBands = []line{{1000, 1.0}, {2000, 0.8}, {3000, 0.6}}

// H beta, H alpha, Na D and Ca K & H, in angstrom.
var stellarAbsorptionLines = []float64{4861, 6563, 5890, 5896, 3934, 3968}

const (
	stellarPoints      = 1000
	stellarMin         = 3000.0 // angstrom
	stellarMax         = 10000.0
	stellarTemperature = 5800.0 // K
	stellarPeakFlux    = 1e-13  // erg/s/cm2/A
)

// Example answers every catalog query from small built-in tables. It never
// fails for a valid query and never touches the network.
type Example struct {
	clock spectrum.Clock
}

var (
	_ AtomicLineSource     = (*Example)(nil)
	_ TargetSpectrumSource = (*Example)(nil)
	_ MolecularLineSource  = (*Example)(nil)
)

func NewExample(opts ...Option) *Example {
	o := newOptions("", opts)
	return &Example{clock: o.clock}
}

// AtomicLines returns the tabulated lines of q.Element, or a generic three
// line pattern for elements not in the table. The range filter is applied
// in nm before any conversion to angstrom.
func (e *Example) AtomicLines(_ context.Context, q AtomicQuery) (*spectrum.Spectrum, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	lines, ok := exampleAtomicLines[q.Element]
	if !ok {
		lines = defaultAtomicLines
	}

	var wl, strength []float64
	for _, l := range lines {
		if !q.Range.contains(l.wavelength) {
			continue
		}
		w := l.wavelength
		if q.Unit == units.Angstrom {
			w *= 10
		}
		wl = append(wl, w)
		strength = append(strength, l.strength)
	}

	return spectrum.New(wl, strength,
		spectrum.WithUnits(string(q.Unit), relativeFluxUnit),
		spectrum.WithMetadata(map[string]any{
			"source":        nistSource + exampleSuffix,
			"element":       q.Element,
			"spectrum_type": q.IonStage,
		}),
		spectrum.WithName(q.spectrumLabel()),
		spectrum.WithClock(e.clock),
	)
}

// TargetSpectrum returns a synthetic solar-type spectrum: a 5800 K
// continuum with Balmer, sodium and calcium absorption, scaled to a peak of
// 1e-13 erg/s/cm2/A.
func (e *Example) TargetSpectrum(_ context.Context, q TargetQuery) (*spectrum.Spectrum, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	wl := linspace(stellarMin, stellarMax, stellarPoints)
	flux := make([]float64, len(wl))
	for i, w := range wl {
		f := 1e15 / math.Pow(w, 5) * math.Exp(-14387.7/(w*stellarTemperature))
		for _, l := range stellarAbsorptionLines {
			d := (w - l) / 5
			f *= 1 - 0.3*math.Exp(-d*d)
		}
		flux[i] = f
	}

	peak := slices.Max(flux)
	for i := range flux {
		flux[i] = flux[i] / peak * stellarPeakFlux
	}

	instrument := q.Instrument
	if instrument == "" {
		instrument = "synthetic"
	}

	return spectrum.New(wl, flux,
		spectrum.WithUnits(mastWavelengthUnit, mastFluxUnit),
		spectrum.WithMetadata(map[string]any{
			"source":     mastSource + exampleSuffix,
			"target":     q.Target,
			"instrument": instrument,
		}),
		spectrum.WithName(q.Target),
		spectrum.WithClock(e.clock),
	)
}

// MolecularLines scales the tabulated band strengths by a Boltzmann-like
// factor exp(-1.44e7 / (wl*T)), renormalizes them to a maximum of 1 and
// then applies the range filter.
func (e *Example) MolecularLines(_ context.Context, q MolecularQuery) (*spectrum.Spectrum, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	bands, ok := exampleMolecularBands[q.Molecule]
	if !ok {
		bands = defaultMolecularBands
	}

	wl := make([]float64, len(bands))
	strength := make([]float64, len(bands))
	for i, b := range bands {
		wl[i] = b.wavelength
		strength[i] = b.strength * math.Exp(-1.44e7/(b.wavelength*q.Temperature))
	}
	if peak := slices.Max(strength); peak > 0 {
		for i := range strength {
			strength[i] /= peak
		}
	}
	wl, strength = filterRange(q.Range, wl, strength)

	return spectrum.New(wl, strength,
		spectrum.WithUnits(string(units.Nanometer), relativeFluxUnit),
		spectrum.WithMetadata(map[string]any{
			"source":      exomolSource + exampleSuffix,
			"molecule":    q.Molecule,
			"temperature": q.Temperature,
		}),
		spectrum.WithName(molecularLabel(q)),
		spectrum.WithClock(e.clock),
	)
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
