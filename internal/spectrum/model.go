package spectrum

import (
	"errors"
	"time"
)

const (
	DefaultWavelengthUnit = "nm"
	DefaultFluxUnit       = "counts"
)

// Operation names recorded in the provenance log.
const (
	OpCreated         = "created"
	OpRangeExtraction = "range_extraction"
	OpUnitConversion  = "unit_conversion"
	OpSubtraction     = "subtraction"
	OpDivision        = "division"
	OpNormalization   = "normalization"
	OpSmoothing       = "smoothing"
)

// ErrLengthMismatch is returned when the wavelength and flux arrays of a spectrum differ in length.
var ErrLengthMismatch = errors.New("wavelength and flux arrays must have the same length")

// Clock supplies timestamps for provenance records.
type Clock func() time.Time

// SystemClock stamps records with the current UTC wall time.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Record is a single entry in a provenance log.
type Record struct {
	Operation string         `yaml:"operation" json:"operation"`       // Name of the transform, e.g. "normalization"
	Timestamp time.Time      `yaml:"timestamp" json:"timestamp"`       // When the transform was applied
	Details   map[string]any `yaml:"details" json:"details,omitempty"` // Parameters of the transform
}

// Document is the serializable form of a Spectrum. Arrays become plain
// number sequences and all optional fields may be omitted.
type Document struct {
	Wavelength     []float64      `yaml:"wavelength" json:"wavelength"`
	Flux           []float64      `yaml:"flux" json:"flux"`
	WavelengthUnit string         `yaml:"wavelength_unit,omitempty" json:"wavelength_unit,omitempty"`
	FluxUnit       string         `yaml:"flux_unit,omitempty" json:"flux_unit,omitempty"`
	Metadata       map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Provenance     []Record       `yaml:"provenance,omitempty" json:"provenance,omitempty"`
	Name           string         `yaml:"name,omitempty" json:"name,omitempty"`
}
