package units

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/specz/internal/spectrum"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{in: "nm", want: Nanometer},
		{in: " angstrom ", want: Angstrom},
		{in: "\u00c5", want: Angstrom},
		{in: "\u212b", want: Angstrom},
		{in: "\u00b5m", want: Micrometer},
		{in: "um", want: Micrometer},
		{in: "Hz", want: Hertz},
		{in: "eV", want: ElectronVolt},
		{in: "J", want: Joule},
		{in: "NM", want: Nanometer},
		{in: "hz", want: Hertz},
		{in: "EV", want: ElectronVolt},
		{in: "Angstrom", want: Angstrom},
		{in: "\u00e5", want: Angstrom},
		{in: "\u00b5M", want: Micrometer},
		{in: "furlong", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnit(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownUnit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWavelengthToFrequency(t *testing.T) {
	hz, err := WavelengthToFrequency([]float64{500}, "nm")
	require.NoError(t, err)
	require.Len(t, hz, 1)
	assert.InEpsilon(t, 5.99584916e14, hz[0], 1e-9)

	back, err := FrequencyToWavelength(hz, "nm")
	require.NoError(t, err)
	assert.InDelta(t, 500, back[0], 1e-9)

	_, err = WavelengthToFrequency([]float64{1}, "Hz")
	require.ErrorIs(t, err, ErrUnknownUnit)
	_, err = WavelengthToFrequency([]float64{1}, "parsec")
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestEnergyRoundTrip(t *testing.T) {
	hz := []float64{5.99584916e14}

	ev, err := FrequencyToEnergy(hz, "eV")
	require.NoError(t, err)
	assert.InDelta(t, 2.4797, ev[0], 1e-4)

	joules, err := FrequencyToEnergy(hz, "J")
	require.NoError(t, err)
	assert.InEpsilon(t, PlanckConstant*hz[0], joules[0], 1e-12)

	back, err := EnergyToFrequency(ev, "eV")
	require.NoError(t, err)
	assert.InEpsilon(t, hz[0], back[0], 1e-12)

	_, err = FrequencyToEnergy(hz, "nm")
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestConvertWavelengthUnits(t *testing.T) {
	aa, err := ConvertWavelengthUnits([]float64{500, 600}, "nm", "angstrom")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5000, 6000}, aa, 1e-9)

	nm, err := ConvertWavelengthUnits(aa, "angstrom", "nm")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{500, 600}, nm, 1e-9)

	um, err := ConvertWavelengthUnits([]float64{1500}, "nm", "um")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, um[0], 1e-12)

	in := []float64{1, 2}
	same, err := ConvertWavelengthUnits(in, "nm", "nm")
	require.NoError(t, err)
	same[0] = 42
	assert.Equal(t, 1.0, in[0])
}

func TestConvertValues(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		from   string
		to     string
		want   []float64
		delta  float64
	}{
		{name: "nm to eV", values: []float64{1239.84198}, from: "nm", to: "eV", want: []float64{1}, delta: 1e-6},
		{name: "eV to nm", values: []float64{1}, from: "eV", to: "nm", want: []float64{1239.84198}, delta: 1e-4},
		{name: "Hz to m", values: []float64{SpeedOfLight}, from: "Hz", to: "m", want: []float64{1}, delta: 1e-12},
		{name: "angstrom to um", values: []float64{10000}, from: "\u212b", to: "um", want: []float64{1}, delta: 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertValues(tt.values, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, tt.delta)
		})
	}
}

func TestConvert(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := spectrum.New([]float64{500, 600}, []float64{1, 2},
		spectrum.WithClock(spectrum.FixedClock(ts)),
		spectrum.WithMetadata(map[string]any{"object": "lamp"}))
	require.NoError(t, err)

	aa, err := Convert(s, "angstrom")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5000, 6000}, aa.Wavelength(), 1e-9)
	assert.Equal(t, "angstrom", aa.WavelengthUnit())
	assert.Equal(t, s.Flux(), aa.Flux())
	assert.Equal(t, s.Metadata(), aa.Metadata())
	assert.Equal(t, s.Provenance().Len()+1, aa.Provenance().Len())

	rec, _ := aa.Provenance().Last()
	assert.Equal(t, spectrum.OpUnitConversion, rec.Operation)
	assert.Equal(t, map[string]any{"axis": "wavelength", "from_unit": "nm", "to_unit": "angstrom"}, rec.Details)

	nm, err := Convert(aa, "nm")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{500, 600}, nm.Wavelength(), 1e-9)
	assert.Equal(t, 3, nm.Provenance().Len())

	// source untouched
	assert.Equal(t, []float64{500, 600}, s.Wavelength())
	assert.Equal(t, "nm", s.WavelengthUnit())
}

func TestConvert_Errors(t *testing.T) {
	s, err := spectrum.New([]float64{500}, []float64{1})
	require.NoError(t, err)

	_, err = Convert(s, "erg", WithAxis(AxisFlux))
	require.ErrorIs(t, err, ErrNotImplemented)

	_, err = Convert(s, "lightyear")
	require.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Convert(s, "nm", WithFromUnit("cubit"))
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestConvert_ToFrequency(t *testing.T) {
	s, err := spectrum.New([]float64{500}, []float64{1}, spectrum.WithUnits("nm", ""))
	require.NoError(t, err)

	hz, err := Convert(s, "Hz")
	require.NoError(t, err)
	assert.Equal(t, "Hz", hz.WavelengthUnit())
	assert.InEpsilon(t, SpeedOfLight/500e-9, hz.Wavelength()[0], 1e-12)

	ev, err := Convert(hz, "eV")
	require.NoError(t, err)
	assert.InDelta(t, 2.4797, ev.Wavelength()[0], 1e-4)
}
