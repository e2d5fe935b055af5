package units

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Physical constants (CODATA exact values).
const (
	SpeedOfLight          = 2.99792458e8    // m/s
	PlanckConstant        = 6.62607015e-34  // J*s
	JoulesPerElectronVolt = 1.602176634e-19 // J
)

var (
	ErrUnknownUnit    = errors.New("unknown unit")
	ErrNotImplemented = errors.New("not implemented")
)

// Unit is a canonical spectral axis unit token.
type Unit string

const (
	Nanometer    Unit = "nm"
	Angstrom     Unit = "angstrom"
	Micrometer   Unit = "um"
	Meter        Unit = "m"
	Hertz        Unit = "Hz"
	ElectronVolt Unit = "eV"
	Joule        Unit = "J"
)

// Kind groups units by the physical quantity they measure.
type Kind int

const (
	KindWavelength Kind = iota
	KindFrequency
	KindEnergy
)

var unitKinds = map[Unit]Kind{
	Nanometer:    KindWavelength,
	Angstrom:     KindWavelength,
	Micrometer:   KindWavelength,
	Meter:        KindWavelength,
	Hertz:        KindFrequency,
	ElectronVolt: KindEnergy,
	Joule:        KindEnergy,
}

var toMeters = map[Unit]float64{
	Nanometer:  1e-9,
	Angstrom:   1e-10,
	Micrometer: 1e-6,
	Meter:      1,
}

var aliases = map[string]Unit{
	"\u00c5":  Angstrom, // NFC folds the Angstrom sign U+212B onto this letter
	"\u00b5m": Micrometer,
	"\u03bcm": Micrometer,
}

// foldedUnits indexes every unit token and alias by its NFC case-folded form.
var foldedUnits = func() map[string]Unit {
	m := make(map[string]Unit, len(unitKinds)+len(aliases))
	for u := range unitKinds {
		m[foldToken(string(u))] = u
	}
	for alias, u := range aliases {
		m[foldToken(alias)] = u
	}
	return m
}()

func foldToken(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// ParseUnit maps a unit label to its canonical token. Matching ignores case.
func ParseUnit(s string) (Unit, error) {
	if u, ok := foldedUnits[foldToken(s)]; ok {
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// Kind returns the physical quantity measured by u.
func (u Unit) Kind() Kind {
	return unitKinds[u]
}

func parseKind(s string, kind Kind) (Unit, error) {
	u, err := ParseUnit(s)
	if err != nil {
		return "", err
	}
	if u.Kind() != kind {
		return "", fmt.Errorf("%w: %q is not a %s unit", ErrUnknownUnit, s, kind)
	}
	return u, nil
}

func (k Kind) String() string {
	switch k {
	case KindWavelength:
		return "wavelength"
	case KindFrequency:
		return "frequency"
	case KindEnergy:
		return "energy"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
