// Package reference provides built-in solar and planetary spectra for use
// as comparison standards.
package reference

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roman-kulish/specz/internal/ops"
	"github.com/roman-kulish/specz/internal/spectrum"
)

var ErrUnknownPlanet = errors.New("unknown planet")

const irradianceUnit = "W/m²/nm"

// am0 is the ASTM E490 extraterrestrial solar irradiance at selected
// wavelengths: nm, W/m²/nm.
var am0 = [][2]float64{
	{200, 0.0957}, {210, 0.175}, {220, 0.248}, {230, 0.320}, {240, 0.478},
	{250, 0.577}, {260, 0.723}, {270, 0.885}, {280, 0.984}, {290, 1.066},
	{300, 1.210}, {310, 1.353}, {320, 1.453}, {330, 1.515}, {340, 1.555},
	{350, 1.572}, {360, 1.593}, {370, 1.615}, {380, 1.637}, {390, 1.668},
	{400, 1.800}, {410, 1.858}, {420, 1.889}, {430, 1.908}, {440, 1.919},
	{450, 1.927}, {460, 1.932}, {470, 1.933}, {480, 1.929}, {490, 1.922},
	{500, 1.914}, {510, 1.905}, {520, 1.898}, {530, 1.893}, {540, 1.890},
	{550, 1.888}, {560, 1.887}, {570, 1.887}, {580, 1.887}, {590, 1.888},
	{600, 1.889}, {610, 1.888}, {620, 1.883}, {630, 1.876}, {640, 1.865},
	{650, 1.851}, {660, 1.836}, {670, 1.818}, {680, 1.799}, {690, 1.778},
	{700, 1.756}, {710, 1.733}, {720, 1.709}, {730, 1.684}, {740, 1.659},
	{750, 1.632}, {760, 1.605}, {770, 1.578}, {780, 1.550}, {790, 1.522},
	{800, 1.493}, {820, 1.435}, {840, 1.378}, {860, 1.321}, {880, 1.265},
	{900, 1.210}, {920, 1.156}, {940, 1.103}, {960, 1.052}, {980, 1.002},
	{1000, 0.954}, {1050, 0.847}, {1100, 0.752}, {1150, 0.667}, {1200, 0.591},
	{1250, 0.524}, {1300, 0.464}, {1350, 0.411}, {1400, 0.364}, {1450, 0.322},
	{1500, 0.285}, {1600, 0.224}, {1700, 0.176}, {1800, 0.138}, {1900, 0.108},
	{2000, 0.085}, {2100, 0.067}, {2200, 0.053}, {2300, 0.042}, {2400, 0.033},
	{2500, 0.026},
}

// fraunhofer lines as center (nm) and residual depth
var fraunhofer = []struct {
	center float64
	depth  float64
	label  string
}{
	{393.37, 0.70, "Ca II K"},
	{396.85, 0.75, "Ca II H"},
	{422.67, 0.85, "Ca I"},
	{430.77, 0.88, "CH G band"},
	{486.13, 0.75, "H-beta"},
	{516.73, 0.82, "Mg I"},
	{518.36, 0.82, "Mg I"},
	{527.04, 0.85, "Fe I"},
	{589.00, 0.60, "Na D2"},
	{589.59, 0.60, "Na D1"},
	{656.28, 0.70, "H-alpha"},
	{686.72, 0.88, "O2 B band"},
	{718.48, 0.90, "H2O"},
	{759.37, 0.85, "O2 A band"},
}

// SolarAM0 returns the tabulated AM0 solar irradiance spectrum. Options are
// applied after the built-in ones, so a caller may inject a clock or
// override the name.
func SolarAM0(opts ...spectrum.Option) (*spectrum.Spectrum, error) {
	wl := make([]float64, len(am0))
	flux := make([]float64, len(am0))
	for i, p := range am0 {
		wl[i], flux[i] = p[0], p[1]
	}

	base := []spectrum.Option{
		spectrum.WithUnits("nm", irradianceUnit),
		spectrum.WithName("Solar Spectrum AM0"),
		spectrum.WithMetadata(map[string]any{
			"source":           "ASTM E490 AM0 Standard",
			"description":      "Extraterrestrial solar irradiance spectrum",
			"reference":        "ASTM E490-00a",
			"object":           "Sun",
			"observation_type": "Total solar irradiance",
		}),
	}
	return spectrum.New(wl, flux, append(base, opts...)...)
}

// SolarVisible synthesizes a 380-750 nm solar spectrum: a 5778 K blackbody
// continuum with Fraunhofer absorption lines, scaled to a unit peak.
func SolarVisible(opts ...spectrum.Option) (*spectrum.Spectrum, error) {
	const (
		temperature = 5778.0
		lineWidth   = 0.1
	)

	wl := linspace(380, 750, 3000)
	flux := make([]float64, len(wl))
	for i, w := range wl {
		f := 2e14 / math.Pow(w, 5) / (math.Exp(1.44e7/(w*temperature)) - 1)
		for _, line := range fraunhofer {
			d := (w - line.center) / lineWidth
			f *= 1 - (1-line.depth)*math.Exp(-d*d)
		}
		flux[i] = f
	}

	peak := slices.Max(flux)
	for i := range flux {
		flux[i] /= peak
	}

	base := []spectrum.Option{
		spectrum.WithUnits("nm", "normalized"),
		spectrum.WithName("Solar Spectrum (Visible)"),
		spectrum.WithMetadata(map[string]any{
			"source":        "Kurucz Solar Atlas (approximation)",
			"description":   "Visible solar spectrum with Fraunhofer absorption lines",
			"object":        "Sun",
			"spectral_type": "G2V",
			"temperature":   "5778 K",
			"features":      "Fraunhofer lines (Ca, H, Na, Fe, O)",
		}),
	}
	return spectrum.New(wl, flux, append(base, opts...)...)
}

// band is a Gaussian absorption applied to an albedo curve
type band struct {
	center, width, strength float64
}

type planetModel struct {
	albedo      float64
	blueBelow   float64 // multiplier below 500 nm
	redAbove600 float64 // multiplier above 600 nm
	redAbove700 float64 // multiplier above 700 nm
	bands       []band
	description string
}

var planets = map[string]planetModel{
	"mercury": {
		albedo:      0.12,
		description: "Mercury - Rocky surface, no atmosphere",
	},
	"venus": {
		albedo:      0.76,
		bands:       []band{{1600, 50, 0.5}, {2000, 50, 0.4}},
		description: "Venus - Thick CO2 atmosphere, sulfuric acid clouds",
	},
	"earth": {
		albedo:      0.3,
		blueBelow:   1.3,
		bands:       []band{{1400, 100, 0.6}, {1900, 100, 0.7}, {760, 5, 0.4}},
		description: "Earth - Water vapor, O2, and vegetation features",
	},
	"mars": {
		albedo:      0.25,
		redAbove600: 1.4,
		blueBelow:   0.7,
		bands:       []band{{1600, 50, 0.3}},
		description: "Mars - Iron oxide surface, thin CO2 atmosphere",
	},
	"jupiter": {
		albedo:      0.52,
		bands:       []band{{890, 30, 0.6}, {1700, 100, 0.5}, {2300, 100, 0.7}, {1500, 80, 0.4}},
		description: "Jupiter - CH4 and NH3 absorption bands",
	},
	"saturn": {
		albedo:      0.47,
		bands:       []band{{890, 30, 0.5}, {1700, 100, 0.4}, {2300, 100, 0.6}},
		description: "Saturn - CH4 absorption, rings",
	},
	"uranus": {
		albedo:      0.51,
		blueBelow:   1.2,
		redAbove700: 0.6,
		bands:       []band{{890, 30, 0.8}, {1700, 100, 0.9}, {2300, 100, 0.9}},
		description: "Uranus - Strong CH4 absorption, blue-green color",
	},
	"neptune": {
		albedo:      0.41,
		blueBelow:   1.4,
		redAbove700: 0.5,
		bands:       []band{{890, 30, 0.85}, {1700, 100, 0.9}, {2300, 100, 0.9}},
		description: "Neptune - Strong CH4 absorption, deep blue color",
	},
	"moon": {
		albedo:      0.12,
		redAbove600: 1.1,
		description: "Moon - Lunar regolith, no atmosphere",
	},
}

// Planets lists the names accepted by Planet, sorted.
func Planets() []string {
	names := make([]string, 0, len(planets))
	for name := range planets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Planet models the solar spectrum reflected by a planet or the Moon: AM0
// irradiance on a 300-2500 nm grid scaled by a wavelength dependent albedo.
func Planet(name string, opts ...spectrum.Option) (*spectrum.Spectrum, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	model, ok := planets[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlanet, name)
	}

	solar, err := SolarAM0()
	if err != nil {
		return nil, fmt.Errorf("building solar spectrum: %w", err)
	}

	wl := linspace(300, 2500, 500)
	flux := ops.Interpolate(wl, solar.Wavelength(), solar.Flux())
	for i, w := range wl {
		albedo := model.albedo
		if model.blueBelow != 0 && w < 500 {
			albedo *= model.blueBelow
		}
		if model.redAbove600 != 0 && w > 600 {
			albedo *= model.redAbove600
		}
		if model.redAbove700 != 0 && w > 700 {
			albedo *= model.redAbove700
		}
		for _, b := range model.bands {
			d := (w - b.center) / b.width
			albedo *= 1 - b.strength*math.Exp(-d*d)
		}
		flux[i] *= albedo
	}

	title := cases.Title(language.English).String(key)
	base := []spectrum.Option{
		spectrum.WithUnits("nm", irradianceUnit),
		spectrum.WithName(title + " Spectrum"),
		spectrum.WithMetadata(map[string]any{
			"source":           "Modeled from published albedo data",
			"description":      model.description,
			"object":           title,
			"observation_type": "Reflected solar spectrum",
		}),
	}
	return spectrum.New(wl, flux, append(base, opts...)...)
}

func linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
