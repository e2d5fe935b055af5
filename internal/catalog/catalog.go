// Package catalog looks up reference spectra in remote line databases and
// archives. Every lookup is a capability interface with a network client,
// an offline example-data implementation and an explicit Fallback policy
// combining the two.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/roman-kulish/specz/internal/spectrum"
	"github.com/roman-kulish/specz/internal/units"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultIonStage    = "I"
	DefaultTemperature = 296.0 // K

	DefaultNISTURL   = "https://physics.nist.gov/cgi-bin/ASD/lines1.pl"
	DefaultMASTURL   = "https://mast.stsci.edu/api/v0.1"
	DefaultExoMolURL = "http://www.exomol.com/db"

	relativeFluxUnit = "relative"
)

var (
	ErrInvalidQuery = errors.New("invalid catalog query")
	ErrNoData       = errors.New("no lines found in response")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// WavelengthRange is an inclusive wavelength window in nanometres.
type WavelengthRange struct {
	Min float64
	Max float64
}

func (r *WavelengthRange) contains(w float64) bool {
	return r == nil || (w >= r.Min && w <= r.Max)
}

func (r *WavelengthRange) validate() error {
	if r != nil && r.Min > r.Max {
		return fmt.Errorf("%w: range min %g is greater than max %g", ErrInvalidQuery, r.Min, r.Max)
	}
	return nil
}

// AtomicQuery selects the lines of one ion.
type AtomicQuery struct {
	Element  string           // Element symbol, e.g. "Fe"
	IonStage string           // Spectrum designation, "I" for neutral atoms
	Range    *WavelengthRange // Optional window, in nm
	Unit     units.Unit       // Output unit, nm or angstrom
}

func (q AtomicQuery) normalize() (AtomicQuery, error) {
	q.Element = strings.TrimSpace(q.Element)
	if q.Element == "" {
		return q, fmt.Errorf("%w: element is required", ErrInvalidQuery)
	}
	if q.IonStage == "" {
		q.IonStage = DefaultIonStage
	}
	if q.Unit == "" {
		q.Unit = units.Nanometer
	}
	if q.Unit != units.Nanometer && q.Unit != units.Angstrom {
		return q, fmt.Errorf("%w: atomic lines are reported in nm or angstrom, not %s", ErrInvalidQuery, q.Unit)
	}
	return q, q.Range.validate()
}

// spectrumLabel is the conventional "Fe I" designation.
func (q AtomicQuery) spectrumLabel() string {
	return q.Element + " " + q.IonStage
}

// TargetQuery selects an archived spectrum of an astronomical object.
type TargetQuery struct {
	Target     string // Object name, e.g. "HD 209458"
	Instrument string // Optional instrument, e.g. "STIS"
}

func (q TargetQuery) normalize() (TargetQuery, error) {
	q.Target = strings.TrimSpace(q.Target)
	q.Instrument = strings.TrimSpace(q.Instrument)
	if q.Target == "" {
		return q, fmt.Errorf("%w: target is required", ErrInvalidQuery)
	}
	return q, nil
}

// MolecularQuery selects the band strengths of a molecule.
type MolecularQuery struct {
	Molecule    string           // Formula, e.g. "H2O"
	Temperature float64          // Kelvin
	Range       *WavelengthRange // Optional window, in nm
}

func (q MolecularQuery) normalize() (MolecularQuery, error) {
	q.Molecule = strings.TrimSpace(q.Molecule)
	if q.Molecule == "" {
		return q, fmt.Errorf("%w: molecule is required", ErrInvalidQuery)
	}
	if q.Temperature == 0 {
		q.Temperature = DefaultTemperature
	}
	if q.Temperature < 0 {
		return q, fmt.Errorf("%w: temperature must be positive, got %g", ErrInvalidQuery, q.Temperature)
	}
	return q, q.Range.validate()
}

type AtomicLineSource interface {
	AtomicLines(ctx context.Context, q AtomicQuery) (*spectrum.Spectrum, error)
}

type TargetSpectrumSource interface {
	TargetSpectrum(ctx context.Context, q TargetQuery) (*spectrum.Spectrum, error)
}

type MolecularLineSource interface {
	MolecularLines(ctx context.Context, q MolecularQuery) (*spectrum.Spectrum, error)
}

type options struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	clock      spectrum.Clock
	logger     *slog.Logger
	onFallback func(capability string, err error)
}

// Option configures clients, the example source and Fallback.
type Option func(*options)

// WithBaseURL overrides the service endpoint of a network client.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTimeout bounds the single request a network client makes.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client. The client's own Timeout is
// left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func WithClock(c spectrum.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithOnFallback registers a hook called each time Fallback abandons the
// primary source.
func WithOnFallback(fn func(capability string, err error)) Option {
	return func(o *options) {
		o.onFallback = fn
	}
}

func newOptions(defaultURL string, opts []Option) *options {
	o := &options{
		baseURL: defaultURL,
		timeout: DefaultTimeout,
		clock:   spectrum.SystemClock,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o
}
