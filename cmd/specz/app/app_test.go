package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/specz/internal/formats"
	"github.com/roman-kulish/specz/internal/storage"
)

type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("storage:\n  dataDirectory: %s\ncatalog:\n  offline: true\nrender:\n  width: 400\n  height: 300\n",
		filepath.Join(dir, "library"))
	require.NoError(t, os.WriteFile(config, []byte(content), 0o644))
	return &testEnv{dir: dir, config: config}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e *testEnv) writeSpectrum(t *testing.T, name, content string) string {
	t.Helper()
	path := e.path(name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	var level slog.LevelVar
	logger := slog.New(slog.DiscardHandler)
	err := Run(context.Background(), append([]string{"--config", e.config}, args...), &out, logger, &level)
	return out.String(), err
}

const (
	lampA = "wavelength,flux\n500,10\n510,20\n520,30\n"
	lampB = "wavelength,flux\n500,1\n510,2\n520,3\n"
)

func TestRun_Version(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "specz version "+Version+"\n", out)
}

func TestRun_Arithmetic(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeSpectrum(t, "a.csv", lampA)
	b := env.writeSpectrum(t, "b.csv", lampB)

	tests := []struct {
		name     string
		args     []string
		wantFlux []float64
	}{
		{"subtract", []string{"subtract", a, b}, []float64{9, 18, 27}},
		{"divide", []string{"divide", a, b, "--handle-zeros", "nan"}, []float64{10, 10, 10}},
		{"normalize", []string{"normalize", a, "-m", "peak"}, []float64{10.0 / 30, 20.0 / 30, 1}},
		{"smooth", []string{"smooth", a, "-m", "boxcar", "-w", "1"}, []float64{10, 20, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := env.path(tt.name + ".csv")
			out, err := env.run(t, append(tt.args, "-o", output)...)
			require.NoError(t, err)
			assert.Contains(t, out, output)

			s, err := formats.LoadCSV(output)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.wantFlux, s.Flux(), 1e-9)
		})
	}
}

func TestRun_SmoothDefaultWindow(t *testing.T) {
	env := newTestEnv(t)
	ramp := env.writeSpectrum(t, "ramp.csv", "wavelength,flux\n1,1\n2,2\n3,3\n4,4\n5,5\n6,6\n7,7\n")
	output := env.path("smoothed.csv")

	_, err := env.run(t, "smooth", ramp, "-m", "boxcar", "-o", output)
	require.NoError(t, err)

	s, err := formats.LoadCSV(output)
	require.NoError(t, err)
	// five-sample window over reflected edges: (2+1+1+2+3)/5
	assert.InDelta(t, 1.8, s.Flux()[0], 1e-9)
	assert.InDelta(t, 4, s.Flux()[3], 1e-9)
}

func TestRun_ConvertAndRange(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeSpectrum(t, "a.csv", lampA)

	out, err := env.run(t, "convert", a, "--to", "angstrom", "-o", env.path("aa.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Converted spectrum saved")
	s, err := formats.LoadCSV(env.path("aa.csv"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5000, 5100, 5200}, s.Wavelength(), 1e-9)

	out, err = env.run(t, "range", a, "--min", "505", "--max", "520", "-o", env.path("r.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 2 points")

	_, err = env.run(t, "convert", a)
	require.Error(t, err, "--to is required")
}

func TestRun_NormalizeRegionNeedsBothBounds(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeSpectrum(t, "a.csv", lampA)

	_, err := env.run(t, "normalize", a, "--min", "500", "-o", env.path("n.csv"))
	require.ErrorContains(t, err, "--min and --max")
}

func TestRun_Plots(t *testing.T) {
	env := newTestEnv(t)
	env.writeSpectrum(t, "a.csv", lampA)
	env.writeSpectrum(t, "b.csv", lampB)

	tests := []struct {
		name string
		args []string
	}{
		{"plot", []string{"plot", env.path("a.csv"), "-o", env.path("plot.png")}},
		{"compare glob", []string{"compare", filepath.Join(env.dir, "*.csv"), "--normalize", "-o", env.path("cmp.jpg")}},
		{"difference", []string{"difference", env.path("a.csv"), env.path("b.csv"), "-o", env.path("diff.png")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			require.NoError(t, err)

			info, err := os.Stat(tt.args[len(tt.args)-1])
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	_, err := env.run(t, "compare", filepath.Join(env.dir, "*.fits"))
	require.ErrorContains(t, err, "matches no files")
}

func TestRun_FetchOffline(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "fetch", "nist", "-e", "H", "--offline", "-o", env.path("h.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "NIST data saved")

	s, err := formats.LoadCSV(env.path("h.csv"))
	require.NoError(t, err)
	assert.Equal(t, []float64{656.3, 486.1, 434.0, 410.2}, s.Wavelength())

	_, err = env.run(t, "fetch", "mast", "-t", "Vega", "-o", env.path("vega.csv"))
	require.NoError(t, err)

	_, err = env.run(t, "fetch", "exomol", "-m", "CO", "-o", env.path("co.csv"))
	require.NoError(t, err)
}

func TestRun_Reference(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "reference", "am0", "-o", env.path("am0.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Solar Spectrum AM0 saved")

	out, err = env.run(t, "reference", "planet", "Mars", "-o", env.path("mars.fits"))
	require.NoError(t, err)
	assert.Contains(t, out, "Mars Spectrum saved")

	_, err = env.run(t, "reference", "planet", "pluto", "-o", env.path("pluto.csv"))
	require.Error(t, err)
}

func TestRun_Library(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeSpectrum(t, "a.csv", lampA)

	out, err := env.run(t, "library", "save", a)
	require.NoError(t, err)
	id, _, ok := strings.Cut(strings.TrimSpace(out), "\t")
	require.True(t, ok)

	out, err = env.run(t, "library", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "nm / counts")

	out, err = env.run(t, "library", "show", id, "--min", "505")
	require.NoError(t, err)
	assert.Contains(t, out, "Points: 2")
	assert.Contains(t, out, "range_extraction")

	out, err = env.run(t, "provenance", id, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"created"`)

	_, err = env.run(t, "library", "export", id, "-o", env.path("export.dat"))
	require.NoError(t, err)
	s, err := formats.LoadASCII(env.path("export.dat"))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, s.Flux())

	_, err = env.run(t, "library", "delete", id)
	require.NoError(t, err)

	_, err = env.run(t, "library", "show", id)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRun_ProvenanceOfFile(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeSpectrum(t, "a.csv", lampA)

	out, err := env.run(t, "provenance", a)
	require.NoError(t, err)
	assert.Contains(t, out, "Provenance: 1 record(s)")

	_, err = env.run(t, "provenance", a, "--format", "xml")
	require.Error(t, err)
}

func TestRun_MetricsFile(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeSpectrum(t, "a.csv", lampA)
	metrics := env.path("specz.prom")

	_, err := env.run(t, "--metrics-file", metrics, "subtract", a, a, "-o", env.path("zero.csv"))
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `specz_operations_total{operation="subtract",status="ok"} 1`)
	assert.Contains(t, string(data), "specz_samples_written_total 3")
}

func TestRun_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--log-level", "loud", "version")
	require.ErrorContains(t, err, "invalid log level")

	_, err = env.run(t, "plot", env.path("missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = env.run(t, "--input-format", "xml", "version")
	require.ErrorIs(t, err, formats.ErrUnknownFormat)
}
