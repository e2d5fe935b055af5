package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/roman-kulish/specz/internal/spectrum"
)

const (
	mastSource         = "MAST Archive"
	mastWavelengthUnit = "angstrom"
	mastFluxUnit       = "erg/s/cm2/A"
)

// MAST fetches archived target spectra from the Mikulski Archive for Space
// Telescopes. The endpoint is expected to answer with a two column
// (wavelength in angstrom, flux) text table.
type MAST struct {
	baseURL string
	client  *http.Client
	clock   spectrum.Clock
}

var _ TargetSpectrumSource = (*MAST)(nil)

func NewMAST(opts ...Option) *MAST {
	o := newOptions(DefaultMASTURL, opts)
	return &MAST{baseURL: o.baseURL, client: o.httpClient, clock: o.clock}
}

func (c *MAST) queryURL(q TargetQuery) string {
	params := url.Values{}
	params.Set("target", q.Target)
	if q.Instrument != "" {
		params.Set("instrument", q.Instrument)
	}
	params.Set("format", "ascii")
	return c.baseURL + "/spectrum?" + params.Encode()
}

func (c *MAST) TargetSpectrum(ctx context.Context, q TargetQuery) (*spectrum.Spectrum, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	u := c.queryURL(q)
	body, err := fetch(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("querying MAST for %s: %w", q.Target, err)
	}

	wl, flux := parseLineTable(body)
	if len(wl) == 0 {
		return nil, fmt.Errorf("querying MAST for %s: %w", q.Target, ErrNoData)
	}

	meta := map[string]any{
		"source":    mastSource,
		"target":    q.Target,
		"query_url": u,
	}
	if q.Instrument != "" {
		meta["instrument"] = q.Instrument
	}

	return spectrum.New(wl, flux,
		spectrum.WithUnits(mastWavelengthUnit, mastFluxUnit),
		spectrum.WithMetadata(meta),
		spectrum.WithName(q.Target),
		spectrum.WithClock(c.clock),
	)
}
