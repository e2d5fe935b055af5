package formats

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/specz/internal/spectrum"
)

var testClock = spectrum.FixedClock(time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC))

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sampleSpectrum(t *testing.T, wl, flux []float64) *spectrum.Spectrum {
	t.Helper()
	s, err := spectrum.New(wl, flux,
		spectrum.WithName("Vega"),
		spectrum.WithUnits("angstrom", "erg/s/cm2/A"),
		spectrum.WithMetadata(map[string]any{"instrument": "STIS", "exposure": 1200.5, "visits": 3}),
		spectrum.WithClock(testClock),
	)
	require.NoError(t, err)
	return s
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("FITS")
	require.NoError(t, err)
	assert.Equal(t, FormatFITS, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	_, err = ParseFormat("hdf5")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.csv":  FormatCSV,
		"a.TXT":  FormatCSV,
		"a.fits": FormatFITS,
		"a.fit":  FormatFITS,
		"a.dat":  FormatASCII,
		"a.asc":  FormatASCII,
		"a":      FormatASCII,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectFormat(path), path)
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "lamp.csv", strings.Join([]string{
		"# observer: jane",
		"# site: Siding Spring",
		"wavelength,flux",
		"400.5,1.25",
		"401, 2",
		"402,NaN",
		"",
	}, "\n"))

	s, err := LoadCSV(path, WithClock(testClock))
	require.NoError(t, err)

	assert.Equal(t, []float64{400.5, 401, 402}, s.Wavelength())
	flux := s.Flux()
	assert.Equal(t, []float64{1.25, 2}, flux[:2])
	assert.True(t, math.IsNaN(flux[2]))

	assert.Equal(t, "lamp", s.Name())
	assert.Equal(t, "nm", s.WavelengthUnit())
	assert.Equal(t, "counts", s.FluxUnit())

	meta := s.Metadata()
	assert.Equal(t, "lamp.csv", meta["source_file"])
	assert.Equal(t, "csv", meta["file_format"])
	assert.Equal(t, "jane", meta["observer"])
	assert.Equal(t, "Siding Spring", meta["site"])

	rec, ok := s.Provenance().Last()
	require.True(t, ok)
	assert.Equal(t, spectrum.OpCreated, rec.Operation)
}

func TestLoadCSV_Options(t *testing.T) {
	path := writeFile(t, "cols.csv", "1;0;10\n2;0;20\n")

	s, err := LoadCSV(path, WithDelimiter(';'), WithColumns(0, 2), WithUnits("um", "Jy"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Wavelength())
	assert.Equal(t, []float64{10, 20}, s.Flux())
	assert.Equal(t, "um", s.WavelengthUnit())
	assert.Equal(t, "Jy", s.FluxUnit())
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "one column", content: "1\n2\n", wantErr: ErrTooFewColumns},
		{name: "only comments", content: "# a: b\n", wantErr: ErrNoData},
		{name: "bad data row", content: "w,f\n1,2\nx,3\n", wantErr: ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(writeFile(t, "bad.csv", tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVRoundTrip(t *testing.T) {
	s := sampleSpectrum(t, []float64{3000, 3000.5, 3002}, []float64{1e-13, 2.5e-13, math.Inf(1)})
	path := filepath.Join(t.TempDir(), "vega.csv")

	require.NoError(t, ExportCSV(s, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "# Spectrum: Vega\n# Wavelength unit: angstrom\n# Flux unit: erg/s/cm2/A\n"))
	assert.Contains(t, text, "# instrument: STIS\n")
	assert.Contains(t, text, "#\nWavelength (angstrom),Flux (erg/s/cm2/A)\n")

	loaded, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, s.Wavelength(), loaded.Wavelength())
	assert.Equal(t, s.Flux(), loaded.Flux())
	assert.Equal(t, "Vega", loaded.Name())
	assert.Equal(t, "angstrom", loaded.WavelengthUnit())
	assert.Equal(t, "erg/s/cm2/A", loaded.FluxUnit())
	assert.Equal(t, "STIS", loaded.Metadata()["instrument"])
}

func TestLoadCSV_UnitsFromHeaderRow(t *testing.T) {
	path := writeFile(t, "hdr.csv", "Wavelength (um),Flux (Jy)\n1,2\n")

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "um", s.WavelengthUnit())
	assert.Equal(t, "Jy", s.FluxUnit())
}

func TestASCIIRoundTrip(t *testing.T) {
	s := sampleSpectrum(t, []float64{1, 2, 3}, []float64{-1.5, 0, 7})

	var buf bytes.Buffer
	require.NoError(t, WriteASCII(s, &buf))
	assert.Contains(t, buf.String(), "# Wavelength (angstrom)  Flux (erg/s/cm2/A)\n1  -1.5\n")

	path := writeFile(t, "vega.dat", buf.String())
	loaded, err := LoadASCII(path)
	require.NoError(t, err)
	assert.Equal(t, s.Wavelength(), loaded.Wavelength())
	assert.Equal(t, s.Flux(), loaded.Flux())
	assert.Equal(t, "angstrom", loaded.WavelengthUnit())
	assert.Equal(t, "ascii", loaded.Metadata()["file_format"])
}

func TestLoadASCII_Errors(t *testing.T) {
	_, err := LoadASCII(writeFile(t, "one.dat", "1\n2\n"))
	require.ErrorIs(t, err, ErrTooFewColumns)

	_, err = LoadASCII(writeFile(t, "empty.dat", "\n# nothing\n"))
	require.ErrorIs(t, err, ErrNoData)
}

func TestLoad_AutoFallsBackToASCII(t *testing.T) {
	path := writeFile(t, "table.txt", "500 1.0\n510\t2.0\n")

	s, err := Load(path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, []float64{500, 510}, s.Wavelength())
	assert.Equal(t, "ascii", s.Metadata()["file_format"])

	s, err = Load(writeFile(t, "table.csv", "500,1\n"), FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "csv", s.Metadata()["file_format"])

	_, err = Load(path, Format("xml"))
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExport_DetectsFormat(t *testing.T) {
	s, err := spectrum.New([]float64{500, 510}, []float64{1, 2}, spectrum.WithName("lamp"))
	require.NoError(t, err)
	dir := t.TempDir()

	tests := []struct {
		file string
		want string
	}{
		{"out.csv", "csv"},
		{"out.dat", "ascii"},
		{"out.fits", "fits"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, Export(s, path, FormatAuto))

			got, err := Load(path, FormatAuto)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Metadata()["file_format"])
			assert.Equal(t, []float64{1, 2}, got.Flux())
		})
	}

	require.ErrorIs(t, Export(s, filepath.Join(dir, "x"), Format("xml")), ErrUnknownFormat)
}

func TestFITSRoundTrip_Uniform(t *testing.T) {
	s := sampleSpectrum(t, []float64{4000, 4002.5, 4005, 4007.5}, []float64{1, 2, 3, 4})
	path := filepath.Join(t.TempDir(), "vega.fits")

	require.NoError(t, ExportFITS(s, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size()%fitsBlockSize)

	loaded, err := Load(path, FormatAuto)
	require.NoError(t, err)
	assert.InDeltaSlice(t, s.Wavelength(), loaded.Wavelength(), 1e-9)
	assert.Equal(t, s.Flux(), loaded.Flux())
	assert.Equal(t, "angstrom", loaded.WavelengthUnit())
	assert.Equal(t, "erg/s/cm2/A", loaded.FluxUnit())
	assert.Equal(t, "vega", loaded.Name())

	header, ok := loaded.Metadata()["fits_header"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "WAVELENGTH", header["CTYPE1"])
	assert.Equal(t, 1, header["CRPIX1"])
	assert.Equal(t, "Vega", header["OBJECT"])
	assert.Equal(t, "STIS", header["INSTRUME"])
	assert.Equal(t, 1200.5, header["EXPOSURE"])
	assert.Equal(t, 3, header["VISITS"])
}

func TestFITSRoundTrip_NonUniform(t *testing.T) {
	s := sampleSpectrum(t, []float64{1, 2, 4, 8}, []float64{5, 6, 7, math.NaN()})

	var buf bytes.Buffer
	require.NoError(t, WriteFITS(s, &buf))

	path := writeFile(t, "grid.fit", buf.String())
	loaded, err := LoadFITS(path)
	require.NoError(t, err)
	assert.Equal(t, s.Wavelength(), loaded.Wavelength())

	flux := loaded.Flux()
	assert.Equal(t, []float64{5, 6, 7}, flux[:3])
	assert.True(t, math.IsNaN(flux[3]))
}

// rawFITS builds a FITS file from header cards and an already encoded
// data unit.
func rawFITS(cards []string, data []byte) string {
	var sb strings.Builder
	for _, c := range append(cards, "END") {
		sb.WriteString(fmt.Sprintf("%-80s", c))
	}
	if pad := padding(sb.Len()); pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	}
	sb.Write(data)
	sb.Write(make([]byte, padding(len(data))))
	return sb.String()
}

func card(key string, value any) string {
	return fmt.Sprintf("%-8s= %20v", key, value)
}

func TestLoadFITS_IntegerImageWithScaling(t *testing.T) {
	content := rawFITS([]string{
		card("SIMPLE", "T"),
		card("BITPIX", 16),
		card("NAXIS", 1),
		card("NAXIS1", 3),
		card("BSCALE", "0.5"),
		card("BZERO", "10.0"),
		card("CRVAL1", "100.0"),
		card("CDELT1", "2.0"),
		card("CRPIX1", 2),
	}, []byte{0x00, 0x02, 0xff, 0xfe, 0x00, 0x00})

	s, err := LoadFITS(writeFile(t, "raw.fits", content))
	require.NoError(t, err)

	assert.Equal(t, []float64{98, 100, 102}, s.Wavelength())
	assert.Equal(t, []float64{11, 9, 10}, s.Flux())
}

func TestLoadFITS_BlankPixelsBecomeNaN(t *testing.T) {
	content := rawFITS([]string{
		card("SIMPLE", "T"),
		card("BITPIX", 16),
		card("NAXIS", 1),
		card("NAXIS1", 3),
		card("BLANK", -32768),
		card("BZERO", "1.0"),
	}, []byte{0x00, 0x04, 0x80, 0x00, 0x00, 0x07})

	s, err := LoadFITS(writeFile(t, "blank.fits", content))
	require.NoError(t, err)

	flux := s.Flux()
	require.Len(t, flux, 3)
	assert.Equal(t, 5.0, flux[0])
	assert.True(t, math.IsNaN(flux[1]))
	assert.Equal(t, 8.0, flux[2])
}

func TestLoadFITS_Errors(t *testing.T) {
	_, err := LoadFITS(writeFile(t, "junk.fits", strings.Repeat("x", 100)))
	require.ErrorIs(t, err, ErrMalformedInput)

	_, err = LoadFITS(writeFile(t, "empty.fits", rawFITS([]string{
		card("SIMPLE", "T"),
		card("BITPIX", 8),
		card("NAXIS", 0),
	}, nil)))
	require.ErrorIs(t, err, ErrNoData)

	_, err = LoadFITS(writeFile(t, "nothing.fits", ""))
	require.ErrorIs(t, err, ErrNoData)
}

func TestLoadFITS_RejectsBadLayout(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		data  []byte
		want  error
	}{
		{
			name:  "negative axis",
			cards: []string{card("SIMPLE", "T"), card("BITPIX", -64), card("NAXIS", 1), card("NAXIS1", -5)},
			want:  ErrMalformedInput,
		},
		{
			name:  "axis larger than the file",
			cards: []string{card("SIMPLE", "T"), card("BITPIX", -64), card("NAXIS", 2), card("NAXIS1", 1<<40), card("NAXIS2", 1<<40)},
			want:  ErrMalformedInput,
		},
		{
			name:  "truncated data unit",
			cards: []string{card("SIMPLE", "T"), card("BITPIX", 8), card("NAXIS", 1), card("NAXIS1", 4000)},
			data:  []byte{1, 2, 3},
			want:  ErrMalformedInput,
		},
		{
			name:  "missing axis length",
			cards: []string{card("SIMPLE", "T"), card("BITPIX", 8), card("NAXIS", 1)},
			want:  ErrMalformedInput,
		},
		{
			name:  "non-integer axis",
			cards: []string{card("SIMPLE", "T"), card("BITPIX", 8), card("NAXIS", 1), card("NAXIS1", "2.5")},
			want:  ErrMalformedInput,
		},
		{
			name:  "missing SIMPLE",
			cards: []string{card("BITPIX", 8), card("NAXIS", 0)},
			want:  ErrMalformedInput,
		},
		{
			name:  "unsupported BITPIX",
			cards: []string{card("SIMPLE", "T"), card("BITPIX", 24), card("NAXIS", 1), card("NAXIS1", 2)},
			want:  ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.fits", rawFITS(tt.cards, tt.data))

			require.NotPanics(t, func() {
				_, err := LoadFITS(path)
				require.ErrorIs(t, err, tt.want)
			})
		})
	}
}

func TestFITSLayout_DataSize(t *testing.T) {
	l := &fitsLayout{ints: map[string]int{"BITPIX": -32, "NAXIS": 2, "NAXIS1": 2, "NAXIS2": 10}}

	size, err := l.dataSize(fitsBlockSize)
	require.NoError(t, err)
	assert.Equal(t, 80, size)

	_, err = l.dataSize(79)
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestFITSKeyword(t *testing.T) {
	assert.Equal(t, "INSTRUME", fitsKeyword("instrument"))
	assert.Equal(t, "SOURCE_F", fitsKeyword("source_file"))
	assert.Equal(t, "DATEOBS", fitsKeyword("date.obs"))
	assert.Equal(t, "", fitsKeyword("%%"))
}
