// Package formats reads and writes spectra as delimited text, whitespace
// separated ASCII tables and FITS images.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roman-kulish/specz/internal/spectrum"
)

var (
	ErrUnknownFormat  = errors.New("unknown file format")
	ErrNoData         = errors.New("no spectral data found")
	ErrTooFewColumns  = errors.New("file must have at least 2 columns")
	ErrUnsupported    = errors.New("unsupported FITS structure")
	ErrMalformedInput = errors.New("malformed input")
)

// Format identifies an on-disk spectrum format.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatCSV   Format = "csv"
	FormatASCII Format = "ascii"
	FormatFITS  Format = "fits"
)

var validFormats = map[Format]struct{}{
	FormatAuto:  {},
	FormatCSV:   {},
	FormatASCII: {},
	FormatFITS:  {},
}

// ParseFormat validates a format name. The empty string means FormatAuto.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatAuto, nil
	}
	f := Format(strings.ToLower(s))
	if _, ok := validFormats[f]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
	return f, nil
}

// DetectFormat guesses the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".fits", ".fit":
		return FormatFITS
	default:
		return FormatASCII
	}
}

type loadOptions struct {
	wavelengthUnit string
	fluxUnit       string
	wavelengthCol  int
	fluxCol        int
	delimiter      rune
	clock          spectrum.Clock
}

// LoadOption configures the loaders.
type LoadOption func(*loadOptions)

// WithUnits overrides the unit labels found in (or defaulted for) the file.
func WithUnits(wavelengthUnit, fluxUnit string) LoadOption {
	return func(o *loadOptions) {
		o.wavelengthUnit = wavelengthUnit
		o.fluxUnit = fluxUnit
	}
}

// WithColumns selects the zero-based wavelength and flux columns of text files.
func WithColumns(wavelengthCol, fluxCol int) LoadOption {
	return func(o *loadOptions) {
		o.wavelengthCol = wavelengthCol
		o.fluxCol = fluxCol
	}
}

// WithDelimiter sets the CSV field separator.
func WithDelimiter(r rune) LoadOption {
	return func(o *loadOptions) {
		o.delimiter = r
	}
}

func WithClock(c spectrum.Clock) LoadOption {
	return func(o *loadOptions) {
		o.clock = c
	}
}

func newLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{
		wavelengthCol: 0,
		fluxCol:       1,
		delimiter:     ',',
		clock:         spectrum.SystemClock,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// units resolves unit labels: explicit options first, then labels found in
// the file, then the format defaults.
func (o *loadOptions) units(fileWl, fileFlux, defWl, defFlux string) (string, string) {
	pick := func(vals ...string) string {
		for _, v := range vals {
			if v != "" {
				return v
			}
		}
		return ""
	}
	return pick(o.wavelengthUnit, fileWl, defWl), pick(o.fluxUnit, fileFlux, defFlux)
}

// Load reads a spectrum in the given format, detecting it from the
// extension for FormatAuto. Files detected as CSV fall back to the ASCII
// reader when they do not parse as CSV.
func Load(path string, format Format, opts ...LoadOption) (*spectrum.Spectrum, error) {
	switch format {
	case FormatCSV:
		return LoadCSV(path, opts...)
	case FormatASCII:
		return LoadASCII(path, opts...)
	case FormatFITS:
		return LoadFITS(path, opts...)
	case FormatAuto, "":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	switch DetectFormat(path) {
	case FormatCSV:
		s, csvErr := LoadCSV(path, opts...)
		if csvErr == nil {
			return s, nil
		}
		s, err := LoadASCII(path, opts...)
		if err != nil {
			return nil, errors.Join(csvErr, err)
		}
		return s, nil
	case FormatFITS:
		return LoadFITS(path, opts...)
	default:
		return LoadASCII(path, opts...)
	}
}

// Export writes s in the given format, detecting it from the extension for
// FormatAuto.
func Export(s *spectrum.Spectrum, path string, format Format) error {
	if format == FormatAuto || format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case FormatCSV:
		return ExportCSV(s, path)
	case FormatASCII:
		return ExportASCII(s, path)
	case FormatFITS:
		return ExportFITS(s, path)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// textHeader holds what the comment block of a text file told us.
type textHeader struct {
	name           string
	wavelengthUnit string
	fluxUnit       string
	metadata       map[string]any
}

// parseComment reads a "# key: value" comment line into h.
func (h *textHeader) parseComment(line string) {
	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	key, value, ok := strings.Cut(body, ": ")
	if !ok {
		return
	}
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)

	switch key {
	case "Spectrum":
		h.name = value
	case "Wavelength unit":
		h.wavelengthUnit = value
	case "Flux unit":
		h.fluxUnit = value
	default:
		if h.metadata == nil {
			h.metadata = make(map[string]any)
		}
		h.metadata[key] = value
	}
}

func (h *textHeader) build(path, format string, wl, flux []float64, o *loadOptions, defWl, defFlux string) (*spectrum.Spectrum, error) {
	meta := make(map[string]any, len(h.metadata)+2)
	for k, v := range h.metadata {
		meta[k] = v
	}
	meta["source_file"] = filepath.Base(path)
	meta["file_format"] = format

	name := h.name
	if name == "" {
		name = baseName(path)
	}

	wlUnit, fluxUnit := o.units(h.wavelengthUnit, h.fluxUnit, defWl, defFlux)

	return spectrum.New(wl, flux,
		spectrum.WithUnits(wlUnit, fluxUnit),
		spectrum.WithMetadata(meta),
		spectrum.WithName(name),
		spectrum.WithClock(o.clock),
	)
}
