package formats

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/roman-kulish/specz/internal/spectrum"
)

const (
	defaultTextWavelengthUnit = "nm"
	defaultTextFluxUnit       = "counts"
)

var headerUnitPattern = regexp.MustCompile(`\(([^)]*)\)\s*$`)

// LoadCSV reads a delimited text file. Leading "# key: value" comments become
// metadata, and a first row whose selected columns are not numeric is taken
// as the header.
func LoadCSV(path string, opts ...LoadOption) (*spectrum.Spectrum, error) {
	o := newLoadOptions(opts)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading csv file: %w", err)
	}

	var header textHeader
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); strings.HasPrefix(line, "#") {
			header.parseComment(line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning csv comments: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = o.delimiter
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var wl, flux []float64
	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", row, err)
		}

		w, f, err := parseColumns(record, o.wavelengthCol, o.fluxCol)
		if err != nil {
			if row == 1 && !errors.Is(err, ErrTooFewColumns) {
				header.unitsFromColumns(record, o.wavelengthCol, o.fluxCol)
				continue
			}
			return nil, fmt.Errorf("parsing csv row %d: %w", row, err)
		}
		wl = append(wl, w)
		flux = append(flux, f)
	}

	if len(wl) == 0 {
		return nil, fmt.Errorf("loading %s: %w", path, ErrNoData)
	}

	return header.build(path, string(FormatCSV), wl, flux, o, defaultTextWavelengthUnit, defaultTextFluxUnit)
}

func parseColumns(fields []string, wlCol, fluxCol int) (float64, float64, error) {
	if len(fields) < 2 || wlCol >= len(fields) || fluxCol >= len(fields) {
		return 0, 0, fmt.Errorf("%w: got %d", ErrTooFewColumns, len(fields))
	}

	w, err := strconv.ParseFloat(strings.TrimSpace(fields[wlCol]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: wavelength %q", ErrMalformedInput, fields[wlCol])
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(fields[fluxCol]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: flux %q", ErrMalformedInput, fields[fluxCol])
	}
	return w, f, nil
}

// unitsFromColumns picks up labels such as "Wavelength (nm)" from a header row.
func (h *textHeader) unitsFromColumns(fields []string, wlCol, fluxCol int) {
	unit := func(field string) string {
		if m := headerUnitPattern.FindStringSubmatch(strings.TrimSpace(field)); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
	if h.wavelengthUnit == "" {
		h.wavelengthUnit = unit(fields[wlCol])
	}
	if h.fluxUnit == "" {
		h.fluxUnit = unit(fields[fluxCol])
	}
}

// ExportCSV writes s as a comma separated file preceded by a metadata comment
// block.
func ExportCSV(s *spectrum.Spectrum, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer closeWithError(f, &err)

	return WriteCSV(s, f)
}

// WriteCSV writes the CSV representation of s to w.
func WriteCSV(s *spectrum.Spectrum, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeCommentHeader(bw, s); err != nil {
		return err
	}

	cw := csv.NewWriter(bw)
	header := []string{
		fmt.Sprintf("Wavelength (%s)", s.WavelengthUnit()),
		fmt.Sprintf("Flux (%s)", s.FluxUnit()),
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	wl, flux := s.Wavelength(), s.Flux()
	for i := range wl {
		if err := cw.Write([]string{formatFloat(wl[i]), formatFloat(flux[i])}); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv writer: %w", err)
	}

	return bw.Flush()
}
