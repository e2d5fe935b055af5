package formats

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/roman-kulish/specz/internal/spectrum"
)

// LoadASCII reads a whitespace separated table with at least two columns.
// Lines starting with "#" are comments.
func LoadASCII(path string, opts ...LoadOption) (s *spectrum.Spectrum, err error) {
	o := newLoadOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ascii file: %w", err)
	}
	defer closeWithError(f, &err)

	var header textHeader
	var wl, flux []float64

	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			header.parseComment(line)
			continue
		}

		w, fl, err := parseColumns(strings.Fields(line), o.wavelengthCol, o.fluxCol)
		if err != nil {
			return nil, fmt.Errorf("parsing ascii line %d: %w", lineNo, err)
		}
		wl = append(wl, w)
		flux = append(flux, fl)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning ascii file: %w", err)
	}

	if len(wl) == 0 {
		return nil, fmt.Errorf("loading %s: %w", path, ErrNoData)
	}

	return header.build(path, string(FormatASCII), wl, flux, o, defaultTextWavelengthUnit, defaultTextFluxUnit)
}

// ExportASCII writes s as a two column whitespace separated table with a
// "# " comment header.
func ExportASCII(s *spectrum.Spectrum, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ascii file: %w", err)
	}
	defer closeWithError(f, &err)

	return WriteASCII(s, f)
}

func WriteASCII(s *spectrum.Spectrum, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeCommentHeader(bw, s); err != nil {
		return err
	}
	fmt.Fprintf(bw, "# Wavelength (%s)  Flux (%s)\n", s.WavelengthUnit(), s.FluxUnit())

	wl, flux := s.Wavelength(), s.Flux()
	for i := range wl {
		fmt.Fprintf(bw, "%s  %s\n", formatFloat(wl[i]), formatFloat(flux[i]))
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing ascii table: %w", err)
	}
	return nil
}

func writeCommentHeader(w *bufio.Writer, s *spectrum.Spectrum) error {
	if name := s.Name(); name != "" {
		fmt.Fprintf(w, "# Spectrum: %s\n", name)
	}
	fmt.Fprintf(w, "# Wavelength unit: %s\n", s.WavelengthUnit())
	fmt.Fprintf(w, "# Flux unit: %s\n", s.FluxUnit())

	meta := s.Metadata()
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		value := strings.ReplaceAll(fmt.Sprint(meta[k]), "\n", " ")
		fmt.Fprintf(w, "# %s: %s\n", k, value)
	}

	_, err := w.WriteString("#\n")
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
