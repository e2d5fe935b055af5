package spectrum

import (
	"fmt"
	"slices"
)

// Spectrum is one sampled spectral curve together with its provenance trail.
// A Spectrum is never edited after construction: transforms return a new
// Spectrum whose log is the source log plus one record.
type Spectrum struct {
	wavelength     []float64
	flux           []float64
	wavelengthUnit string
	fluxUnit       string
	metadata       map[string]any
	provenance     Log
	name           string
	clock          Clock
}

type options struct {
	wavelengthUnit string
	fluxUnit       string
	metadata       map[string]any
	provenance     Log
	name           string
	clock          Clock
}

// Option configures a Spectrum at construction time.
type Option func(*options)

// WithUnits sets the wavelength and flux unit labels. Empty values keep the defaults.
func WithUnits(wavelengthUnit, fluxUnit string) Option {
	return func(o *options) {
		if wavelengthUnit != "" {
			o.wavelengthUnit = wavelengthUnit
		}
		if fluxUnit != "" {
			o.fluxUnit = fluxUnit
		}
	}
}

// WithMetadata attaches a deep copy of m.
func WithMetadata(m map[string]any) Option {
	return func(o *options) {
		o.metadata = cloneMetadata(m)
	}
}

// WithProvenance seeds the log with prior history.
func WithProvenance(l Log) Option {
	return func(o *options) {
		o.provenance = l
	}
}

func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithClock sets the time source used for provenance records of this
// spectrum and of every spectrum derived from it.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		wavelengthUnit: DefaultWavelengthUnit,
		fluxUnit:       DefaultFluxUnit,
		metadata:       map[string]any{},
		clock:          SystemClock,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New constructs a spectrum from index-aligned wavelength and flux arrays.
// The arrays are copied. A "created" record is appended to the log.
func New(wavelength, flux []float64, opts ...Option) (*Spectrum, error) {
	if len(wavelength) != len(flux) {
		return nil, fmt.Errorf("%w: wavelength has %d values, flux has %d", ErrLengthMismatch, len(wavelength), len(flux))
	}

	o := newOptions(opts)
	s := &Spectrum{
		wavelength:     slices.Clone(wavelength),
		flux:           slices.Clone(flux),
		wavelengthUnit: o.wavelengthUnit,
		fluxUnit:       o.fluxUnit,
		metadata:       o.metadata,
		name:           o.name,
		clock:          o.clock,
	}
	s.provenance = o.provenance.append(s.record(OpCreated, map[string]any{"n_points": len(wavelength)}))

	return s, nil
}

func (s *Spectrum) record(operation string, details map[string]any) Record {
	if details == nil {
		details = map[string]any{}
	}
	return Record{Operation: operation, Timestamp: s.clock(), Details: details}
}

// Len returns the number of samples.
func (s *Spectrum) Len() int {
	return len(s.wavelength)
}

// Wavelength returns a copy of the wavelength (or frequency/energy) axis.
func (s *Spectrum) Wavelength() []float64 {
	return slices.Clone(s.wavelength)
}

// Flux returns a copy of the flux values.
func (s *Spectrum) Flux() []float64 {
	return slices.Clone(s.flux)
}

func (s *Spectrum) WavelengthUnit() string {
	return s.wavelengthUnit
}

func (s *Spectrum) FluxUnit() string {
	return s.fluxUnit
}

// Metadata returns a deep copy of the metadata map.
func (s *Spectrum) Metadata() map[string]any {
	return cloneMetadata(s.metadata)
}

// Provenance returns the spectrum's log. Logs are immutable values.
func (s *Spectrum) Provenance() Log {
	return s.provenance
}

// Name returns the label of the spectrum, or "" when unset.
func (s *Spectrum) Name() string {
	return s.name
}

// Clock returns the time source the spectrum stamps records with.
func (s *Spectrum) Clock() Clock {
	return s.clock
}

// Copy returns an independent deep copy. No provenance record is added.
func (s *Spectrum) Copy() *Spectrum {
	return &Spectrum{
		wavelength:     slices.Clone(s.wavelength),
		flux:           slices.Clone(s.flux),
		wavelengthUnit: s.wavelengthUnit,
		fluxUnit:       s.fluxUnit,
		metadata:       cloneMetadata(s.metadata),
		provenance:     NewLog(s.provenance.records...),
		name:           s.name,
		clock:          s.clock,
	}
}

// Range returns the samples with min <= wavelength <= max. An empty result is
// not an error.
func (s *Spectrum) Range(lo, hi float64) *Spectrum {
	var wl, fl []float64
	for i, w := range s.wavelength {
		if w >= lo && w <= hi {
			wl = append(wl, w)
			fl = append(fl, s.flux[i])
		}
	}
	if wl == nil {
		wl, fl = []float64{}, []float64{}
	}

	// lengths match by construction
	out, _ := s.Derive(Transform{
		Operation:  OpRangeExtraction,
		Details:    map[string]any{"wl_min": lo, "wl_max": hi},
		Wavelength: wl,
		Flux:       fl,
	})
	return out
}

// Transform describes a derived spectrum. Nil arrays and empty units keep the
// source values. Arrays passed in are owned by the result and must not be
// shared with the source or retained by the caller.
type Transform struct {
	Operation      string
	Details        map[string]any
	Wavelength     []float64
	Flux           []float64
	WavelengthUnit string
	FluxUnit       string
}

// Derive builds a new spectrum from s according to t. The result carries a
// copy of the metadata, the same name and clock, and the source log plus
// exactly one record for t.Operation.
func (s *Spectrum) Derive(t Transform) (*Spectrum, error) {
	wl, fl := t.Wavelength, t.Flux
	if wl == nil {
		wl = slices.Clone(s.wavelength)
	}
	if fl == nil {
		fl = slices.Clone(s.flux)
	}
	if len(wl) != len(fl) {
		return nil, fmt.Errorf("%w: wavelength has %d values, flux has %d", ErrLengthMismatch, len(wl), len(fl))
	}

	out := &Spectrum{
		wavelength:     wl,
		flux:           fl,
		wavelengthUnit: s.wavelengthUnit,
		fluxUnit:       s.fluxUnit,
		metadata:       cloneMetadata(s.metadata),
		name:           s.name,
		clock:          s.clock,
	}
	if t.WavelengthUnit != "" {
		out.wavelengthUnit = t.WavelengthUnit
	}
	if t.FluxUnit != "" {
		out.fluxUnit = t.FluxUnit
	}
	out.provenance = s.provenance.append(s.record(t.Operation, t.Details))

	return out, nil
}
