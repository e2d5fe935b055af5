package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/roman-kulish/specz/internal/spectrum"
	"github.com/roman-kulish/specz/internal/units"
)

const nistSource = "NIST Atomic Spectra Database"

// NIST queries the NIST Atomic Spectra Database line form.
type NIST struct {
	baseURL string
	client  *http.Client
	clock   spectrum.Clock
}

var _ AtomicLineSource = (*NIST)(nil)

func NewNIST(opts ...Option) *NIST {
	o := newOptions(DefaultNISTURL, opts)
	return &NIST{baseURL: o.baseURL, client: o.httpClient, clock: o.clock}
}

// queryURL builds the ASCII-output request for q. Range bounds are given in
// nm and scaled when the output unit is angstrom.
func (c *NIST) queryURL(q AtomicQuery) string {
	params := url.Values{}
	params.Set("spectra", q.spectrumLabel())
	params.Set("format", "1")
	params.Set("remove_js", "on")
	params.Set("no_spaces", "on")

	scale := 1.0
	if q.Unit == units.Angstrom {
		params.Set("units", "1")
		scale = 10
	} else {
		params.Set("units", "0")
	}
	if q.Range != nil {
		params.Set("low_w", formatNumber(q.Range.Min*scale))
		params.Set("upp_w", formatNumber(q.Range.Max*scale))
	}

	return c.baseURL + "?" + params.Encode()
}

func (c *NIST) AtomicLines(ctx context.Context, q AtomicQuery) (*spectrum.Spectrum, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	u := c.queryURL(q)
	body, err := fetch(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("querying NIST for %s: %w", q.spectrumLabel(), err)
	}

	wl, intensity := parseLineTable(body)
	if len(wl) == 0 {
		return nil, fmt.Errorf("querying NIST for %s: %w", q.spectrumLabel(), ErrNoData)
	}

	return spectrum.New(wl, intensity,
		spectrum.WithUnits(string(q.Unit), relativeFluxUnit),
		spectrum.WithMetadata(map[string]any{
			"source":        nistSource,
			"element":       q.Element,
			"spectrum_type": q.IonStage,
			"query_url":     u,
		}),
		spectrum.WithName(q.spectrumLabel()),
		spectrum.WithClock(c.clock),
	)
}
