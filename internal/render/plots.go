package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/roman-kulish/specz/internal/ops"
	"github.com/roman-kulish/specz/internal/spectrum"
)

var ErrNoSpectra = errors.New("no spectra to plot")

// Plot draws a single spectrum. An empty title falls back to the spectrum
// name.
func (r *Renderer) Plot(s *spectrum.Spectrum, title string) (*image.RGBA, error) {
	if s == nil {
		return nil, ErrNoSpectra
	}
	if title == "" {
		title = s.Name()
	}
	if title == "" {
		title = "Spectrum"
	}

	p := panel{
		xLabel: fmt.Sprintf("Wavelength (%s)", s.WavelengthUnit()),
		yLabel: fmt.Sprintf("Flux (%s)", s.FluxUnit()),
		traces: []trace{{
			label:      s.Name(),
			wavelength: s.Wavelength(),
			flux:       s.Flux(),
			color:      TraceColor(0),
		}},
	}
	return r.render(title, r.config.Height, []panel{p}, []float64{1})
}

// Compare overlays several spectra. Labels default to the spectrum names;
// with normalize set, each trace is divided by its own positive maximum.
// Axis units are taken from the first spectrum.
func (r *Renderer) Compare(spectra []*spectrum.Spectrum, labels []string, title string, normalize bool) (*image.RGBA, error) {
	if len(spectra) == 0 {
		return nil, ErrNoSpectra
	}
	if title == "" {
		title = "Spectrum Comparison"
	}

	traces := make([]trace, 0, len(spectra))
	for i, s := range spectra {
		if s == nil {
			return nil, fmt.Errorf("spectrum %d is nil", i+1)
		}

		label := s.Name()
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		if label == "" {
			label = fmt.Sprintf("Spectrum %d", i+1)
		}

		flux := s.Flux()
		if normalize {
			flux = scaleToPeak(flux)
		}

		traces = append(traces, trace{
			label:      label,
			wavelength: s.Wavelength(),
			flux:       flux,
			color:      TraceColor(i),
		})
	}

	yLabel := fmt.Sprintf("Flux (%s)", spectra[0].FluxUnit())
	if normalize {
		yLabel = "Normalized Flux"
	}

	p := panel{
		xLabel: fmt.Sprintf("Wavelength (%s)", spectra[0].WavelengthUnit()),
		yLabel: yLabel,
		traces: traces,
		legend: true,
	}
	return r.render(title, r.config.Height, []panel{p}, []float64{1})
}

// Difference draws both spectra on an upper panel and a minus b, with b
// interpolated onto a's grid, on a lower panel with a dashed zero line.
func (r *Renderer) Difference(a, b *spectrum.Spectrum, title string) (*image.RGBA, error) {
	if a == nil || b == nil {
		return nil, ErrNoSpectra
	}
	if title == "" {
		title = "Spectrum Difference"
	}

	diff, err := ops.Subtract(a, b, true)
	if err != nil {
		return nil, fmt.Errorf("subtracting spectra: %w", err)
	}

	xLabel := fmt.Sprintf("Wavelength (%s)", a.WavelengthUnit())
	yLabel := fmt.Sprintf("Flux (%s)", a.FluxUnit())

	panels := []panel{
		{
			title:  "Original Spectra",
			xLabel: xLabel,
			yLabel: yLabel,
			legend: true,
			traces: []trace{
				{label: nameOr(a, "Spectrum A"), wavelength: a.Wavelength(), flux: a.Flux(), color: TraceColor(0)},
				{label: nameOr(b, "Spectrum B"), wavelength: b.Wavelength(), flux: b.Flux(), color: TraceColor(1)},
			},
		},
		{
			title:    "Difference (A - B)",
			xLabel:   xLabel,
			yLabel:   yLabel,
			zeroLine: true,
			traces: []trace{
				{label: "Difference", wavelength: diff.Wavelength(), flux: diff.Flux(), color: TraceColor(2)},
			},
		},
	}

	height := r.config.Height * 4 / 3
	return r.render(title, height, panels, []float64{0.6, 0.4})
}

func nameOr(s *spectrum.Spectrum, def string) string {
	if s.Name() != "" {
		return s.Name()
	}
	return def
}

// scaleToPeak divides by the finite maximum when it is positive and
// otherwise returns the values unchanged.
func scaleToPeak(values []float64) []float64 {
	peak := math.Inf(-1)
	for _, v := range values {
		if isFinite(v) && v > peak {
			peak = v
		}
	}
	out := make([]float64, len(values))
	copy(out, values)
	if !(peak > 0) || math.IsInf(peak, 0) {
		return out
	}
	for i := range out {
		out[i] /= peak
	}
	return out
}
