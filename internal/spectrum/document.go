package spectrum

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Document returns the serializable form of the spectrum.
func (s *Spectrum) Document() Document {
	return Document{
		Wavelength:     slices.Clone(s.wavelength),
		Flux:           slices.Clone(s.flux),
		WavelengthUnit: s.wavelengthUnit,
		FluxUnit:       s.fluxUnit,
		Metadata:       cloneMetadata(s.metadata),
		Provenance:     s.provenance.Records(),
		Name:           s.name,
	}
}

// FromDocument restores a spectrum from its serialized form. The stored log is
// taken as is: restoring is not a transform, so no record is appended. Absent
// fields fall back to "nm", "counts", empty metadata, an empty log and no name.
func FromDocument(doc Document, opts ...Option) (*Spectrum, error) {
	if len(doc.Wavelength) != len(doc.Flux) {
		return nil, fmt.Errorf("%w: wavelength has %d values, flux has %d", ErrLengthMismatch, len(doc.Wavelength), len(doc.Flux))
	}

	o := newOptions(opts)
	s := &Spectrum{
		wavelength:     slices.Clone(doc.Wavelength),
		flux:           slices.Clone(doc.Flux),
		wavelengthUnit: o.wavelengthUnit,
		fluxUnit:       o.fluxUnit,
		metadata:       o.metadata,
		provenance:     NewLog(doc.Provenance...),
		name:           doc.Name,
		clock:          o.clock,
	}
	if s.wavelength == nil {
		s.wavelength, s.flux = []float64{}, []float64{}
	}
	if doc.WavelengthUnit != "" {
		s.wavelengthUnit = doc.WavelengthUnit
	}
	if doc.FluxUnit != "" {
		s.fluxUnit = doc.FluxUnit
	}
	if doc.Metadata != nil {
		s.metadata = cloneMetadata(doc.Metadata)
	}

	return s, nil
}

type provenanceDocument struct {
	SpectrumName string         `yaml:"spectrum_name"`
	Metadata     map[string]any `yaml:"metadata"`
	Provenance   []Record       `yaml:"provenance"`
}

// WriteProvenance writes the spectrum name, metadata and provenance log as YAML.
func (s *Spectrum) WriteProvenance(w io.Writer) error {
	doc := provenanceDocument{
		SpectrumName: s.name,
		Metadata:     cloneMetadata(s.metadata),
		Provenance:   s.provenance.Records(),
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding provenance document: %w", err)
	}
	return enc.Close()
}

// ExportProvenance writes the provenance document to path.
func (s *Spectrum) ExportProvenance(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating provenance file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return s.WriteProvenance(f)
}
