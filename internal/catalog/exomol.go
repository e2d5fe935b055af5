package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/roman-kulish/specz/internal/spectrum"
	"github.com/roman-kulish/specz/internal/units"
)

const exomolSource = "ExoMol Molecular Line Database"

// ExoMol fetches band strengths from the ExoMol database. The endpoint is
// expected to answer with a (wavelength in nm, intensity) text table.
type ExoMol struct {
	baseURL string
	client  *http.Client
	clock   spectrum.Clock
}

var _ MolecularLineSource = (*ExoMol)(nil)

func NewExoMol(opts ...Option) *ExoMol {
	o := newOptions(DefaultExoMolURL, opts)
	return &ExoMol{baseURL: o.baseURL, client: o.httpClient, clock: o.clock}
}

func (c *ExoMol) queryURL(q MolecularQuery) string {
	params := url.Values{}
	params.Set("temperature", formatNumber(q.Temperature))
	if q.Range != nil {
		params.Set("wl_min", formatNumber(q.Range.Min))
		params.Set("wl_max", formatNumber(q.Range.Max))
	}
	return c.baseURL + "/" + url.PathEscape(q.Molecule) + "/lines?" + params.Encode()
}

func (c *ExoMol) MolecularLines(ctx context.Context, q MolecularQuery) (*spectrum.Spectrum, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	u := c.queryURL(q)
	body, err := fetch(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("querying ExoMol for %s: %w", q.Molecule, err)
	}

	wl, intensity := parseLineTable(body)
	wl, intensity = filterRange(q.Range, wl, intensity)
	if len(wl) == 0 {
		return nil, fmt.Errorf("querying ExoMol for %s: %w", q.Molecule, ErrNoData)
	}

	return spectrum.New(wl, intensity,
		spectrum.WithUnits(string(units.Nanometer), relativeFluxUnit),
		spectrum.WithMetadata(map[string]any{
			"source":      exomolSource,
			"molecule":    q.Molecule,
			"temperature": q.Temperature,
			"query_url":   u,
		}),
		spectrum.WithName(molecularLabel(q)),
		spectrum.WithClock(c.clock),
	)
}

func molecularLabel(q MolecularQuery) string {
	return fmt.Sprintf("%s %sK", q.Molecule, formatNumber(q.Temperature))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func filterRange(r *WavelengthRange, wl, values []float64) ([]float64, []float64) {
	if r == nil {
		return wl, values
	}
	outWl := make([]float64, 0, len(wl))
	outValues := make([]float64, 0, len(values))
	for i, w := range wl {
		if r.contains(w) {
			outWl = append(outWl, w)
			outValues = append(outValues, values[i])
		}
	}
	return outWl, outValues
}
