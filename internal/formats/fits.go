package formats

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/astrogo/fitsio"

	"github.com/roman-kulish/specz/internal/spectrum"
)

const (
	fitsBlockSize = 2880
	fitsCardSize  = 80

	// longest string value kept when exporting metadata, after quote escaping
	fitsMaxString = 60

	defaultFITSWavelengthUnit = "angstrom"
	defaultFITSFluxUnit       = "erg/s/cm2/A"
)

// keywords written by ExportFITS itself or describing the data layout
var reservedFITSKeys = map[string]struct{}{
	"SIMPLE": {}, "BITPIX": {}, "NAXIS": {}, "NAXIS1": {}, "NAXIS2": {}, "EXTEND": {},
	"CRVAL1": {}, "CDELT1": {}, "CRPIX1": {}, "CTYPE1": {}, "CUNIT1": {},
	"BUNIT": {}, "OBJECT": {}, "BSCALE": {}, "BZERO": {}, "BLANK": {},
	"COMMENT": {}, "HISTORY": {}, "END": {}, "XTENSION": {}, "PCOUNT": {}, "GCOUNT": {},
}

var validBitpix = map[int]struct{}{8: {}, 16: {}, 32: {}, 64: {}, -32: {}, -64: {}}

// fitsLayout holds the structural keywords of one HDU header.
type fitsLayout struct {
	first string
	ints  map[string]int
}

// scanFITSHeader reads the header at the start of data and returns its
// layout and its length in bytes, padding included.
func scanFITSHeader(data []byte) (*fitsLayout, int, error) {
	l := &fitsLayout{ints: make(map[string]int)}

	for off := 0; ; off += fitsBlockSize {
		if off+fitsBlockSize > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated FITS header", ErrMalformedInput)
		}

		for c := off; c < off+fitsBlockSize; c += fitsCardSize {
			card := string(data[c : c+fitsCardSize])
			key := strings.TrimSpace(card[:8])
			if l.first == "" {
				l.first = key
			}
			if key == "END" {
				return l, off + fitsBlockSize, nil
			}
			if !isLayoutKey(key) || card[8:10] != "= " {
				continue
			}

			raw := card[10:]
			if idx := strings.IndexByte(raw, '/'); idx >= 0 {
				raw = raw[:idx]
			}
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return nil, 0, fmt.Errorf("%w: %s is not an integer", ErrMalformedInput, key)
			}
			l.ints[key] = v
		}
	}
}

func isLayoutKey(key string) bool {
	switch key {
	case "BITPIX", "NAXIS", "PCOUNT", "GCOUNT":
		return true
	}
	return strings.HasPrefix(key, "NAXIS")
}

// dataSize returns the byte length of the data unit, without padding. Sizes
// that are negative or exceed avail are rejected.
func (l *fitsLayout) dataSize(avail int) (int, error) {
	bitpix, ok := l.ints["BITPIX"]
	if !ok {
		return 0, fmt.Errorf("%w: missing BITPIX keyword", ErrMalformedInput)
	}
	if _, ok = validBitpix[bitpix]; !ok {
		return 0, fmt.Errorf("%w: BITPIX %d", ErrUnsupported, bitpix)
	}

	naxis := l.ints["NAXIS"]
	if naxis < 0 || naxis > 999 {
		return 0, fmt.Errorf("%w: NAXIS %d", ErrMalformedInput, naxis)
	}
	if naxis == 0 {
		return 0, nil
	}

	width := bitpix / 8
	if width < 0 {
		width = -width
	}
	limit := avail / width

	elems := 1
	for i := 1; i <= naxis; i++ {
		key := fmt.Sprintf("NAXIS%d", i)
		n, ok := l.ints[key]
		switch {
		case !ok:
			return 0, fmt.Errorf("%w: missing %s keyword", ErrMalformedInput, key)
		case n < 0:
			return 0, fmt.Errorf("%w: %s is negative (%d)", ErrMalformedInput, key, n)
		case n > 0 && elems > limit/n:
			return 0, fmt.Errorf("%w: data unit exceeds the %d bytes left in the file", ErrMalformedInput, avail)
		}
		elems *= n
	}

	pcount := l.ints["PCOUNT"]
	gcount, ok := l.ints["GCOUNT"]
	if !ok {
		gcount = 1
	}
	if pcount < 0 || gcount < 0 {
		return 0, fmt.Errorf("%w: PCOUNT %d, GCOUNT %d", ErrMalformedInput, pcount, gcount)
	}

	per := pcount + elems
	if per > limit || (gcount > 0 && per > limit/gcount) {
		return 0, fmt.Errorf("%w: data unit exceeds the %d bytes left in the file", ErrMalformedInput, avail)
	}
	return width * gcount * per, nil
}

// checkFITSLayout walks every HDU of data and verifies that its data unit
// fits in the file before anything is decoded.
func checkFITSLayout(data []byte) error {
	for off, hdu := 0, 0; len(data)-off >= fitsBlockSize; hdu++ {
		l, n, err := scanFITSHeader(data[off:])
		if err != nil {
			return fmt.Errorf("reading HDU %d header: %w", hdu, err)
		}
		if hdu == 0 && l.first != "SIMPLE" {
			return fmt.Errorf("%w: missing SIMPLE keyword", ErrMalformedInput)
		}
		off += n

		size, err := l.dataSize(len(data) - off)
		if err != nil {
			return fmt.Errorf("checking HDU %d: %w", hdu, err)
		}
		off += size + padding(size)
	}
	return nil
}

func padding(size int) int {
	return (fitsBlockSize - size%fitsBlockSize) % fitsBlockSize
}

func openFITS(data []byte) (f *fitsio.File, err error) {
	// the decoder panics on some header inconsistencies
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: decoding fits: %v", ErrMalformedInput, r)
		}
	}()

	f, err = fitsio.Open(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding fits: %w", ErrMalformedInput, err)
	}
	return f, nil
}

// LoadFITS reads the first image HDU holding either a 1-D flux array (with
// CRVAL1/CDELT1/CRPIX1 describing the wavelength axis) or a 2-D array whose
// first two columns are wavelength and flux.
func LoadFITS(path string, opts ...LoadOption) (s *spectrum.Spectrum, err error) {
	o := newLoadOptions(opts)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening fits file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("loading %s: %w", path, ErrNoData)
	}
	if len(data) < fitsBlockSize {
		return nil, fmt.Errorf("%w: truncated FITS header", ErrMalformedInput)
	}
	if err = checkFITSLayout(data); err != nil {
		return nil, err
	}

	f, err := openFITS(data)
	if err != nil {
		return nil, err
	}
	defer closeWithError(f, &err)

	for i, hdu := range f.HDUs() {
		img, ok := hdu.(fitsio.Image)
		if !ok || hdu.Type() != fitsio.IMAGE_HDU {
			continue
		}
		hdr := img.Header()
		axes := hdr.Axes()
		if len(axes) < 1 || len(axes) > 2 || elementCount(axes) == 0 {
			continue
		}

		values, err := readFITSImage(img)
		if err != nil {
			return nil, fmt.Errorf("decoding HDU %d data: %w", i, err)
		}

		wl, flux, err := fitsAxes(values, hdr)
		if err != nil {
			return nil, err
		}

		meta := map[string]any{
			"source_file": filepath.Base(path),
			"file_format": string(FormatFITS),
			"fits_header": headerMetadata(hdr),
		}
		wlUnit, fluxUnit := o.units(headerString(hdr, "CUNIT1"), headerString(hdr, "BUNIT"), defaultFITSWavelengthUnit, defaultFITSFluxUnit)

		return spectrum.New(wl, flux,
			spectrum.WithUnits(wlUnit, fluxUnit),
			spectrum.WithMetadata(meta),
			spectrum.WithName(baseName(path)),
			spectrum.WithClock(o.clock),
		)
	}

	return nil, fmt.Errorf("loading %s: %w", path, ErrNoData)
}

func elementCount(axes []int) int {
	n := 1
	for _, a := range axes {
		n *= a
	}
	return n
}

type pixel interface {
	~uint8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// readPixels reads n pixels of type T. Integer pixels equal to blank come
// back as NaN.
func readPixels[T pixel](img fitsio.Image, n int, blank *int64) ([]float64, error) {
	buf := make([]T, n)
	if err := img.Read(&buf); err != nil {
		return nil, err
	}

	out := make([]float64, len(buf))
	for i, v := range buf {
		if blank != nil && int64(v) == *blank {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(v)
	}
	return out, nil
}

// readFITSImage returns the physical pixel values, BZERO + BSCALE * raw.
func readFITSImage(img fitsio.Image) ([]float64, error) {
	hdr := img.Header()
	n := elementCount(hdr.Axes())

	var blank *int64
	if v, ok := headerFloat(hdr, "BLANK"); ok && hdr.Bitpix() > 0 {
		b := int64(v)
		blank = &b
	}

	var (
		raw []float64
		err error
	)
	switch hdr.Bitpix() {
	case 8:
		raw, err = readPixels[uint8](img, n, blank)
	case 16:
		raw, err = readPixels[int16](img, n, blank)
	case 32:
		raw, err = readPixels[int32](img, n, blank)
	case 64:
		raw, err = readPixels[int64](img, n, blank)
	case -32:
		raw, err = readPixels[float32](img, n, nil)
	case -64:
		raw, err = readPixels[float64](img, n, nil)
	default:
		return nil, fmt.Errorf("%w: BITPIX %d", ErrUnsupported, hdr.Bitpix())
	}
	if err != nil {
		return nil, err
	}

	scale, ok := headerFloat(hdr, "BSCALE")
	if !ok {
		scale = 1
	}
	zero, _ := headerFloat(hdr, "BZERO")
	if scale != 1 || zero != 0 {
		for i, v := range raw {
			raw[i] = zero + scale*v
		}
	}
	return raw, nil
}

func fitsAxes(values []float64, hdr *fitsio.Header) ([]float64, []float64, error) {
	axes := hdr.Axes()
	if len(axes) == 1 {
		flux := values
		wl := make([]float64, len(flux))

		crval, hasVal := headerFloat(hdr, "CRVAL1")
		cdelt, hasDelt := headerFloat(hdr, "CDELT1")
		crpix, ok := headerFloat(hdr, "CRPIX1")
		if !ok {
			crpix = 1
		}
		for i := range wl {
			if hasVal && hasDelt {
				wl[i] = crval + (float64(i)-(crpix-1))*cdelt
			} else {
				wl[i] = float64(i)
			}
		}
		return wl, flux, nil
	}

	cols, rows := axes[0], axes[1]
	if cols < 2 {
		return nil, nil, fmt.Errorf("%w: 2-D array needs at least 2 columns, got %d", ErrUnsupported, cols)
	}

	wl := make([]float64, rows)
	flux := make([]float64, rows)
	for r := range rows {
		wl[r] = values[r*cols]
		flux[r] = values[r*cols+1]
	}
	return wl, flux, nil
}

// cardValue maps a decoded card value onto the types used in metadata.
func cardValue(v any) any {
	switch val := v.(type) {
	case int:
		return val
	case int8:
		return int(val)
	case int16:
		return int(val)
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float32:
		return float64(val)
	case *big.Int:
		return val.String()
	case string:
		return strings.TrimRight(val, " ")
	default:
		return val
	}
}

func headerFloat(hdr *fitsio.Header, key string) (float64, bool) {
	card := hdr.Get(key)
	if card == nil {
		return 0, false
	}
	switch v := cardValue(card.Value).(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func headerString(hdr *fitsio.Header, key string) string {
	card := hdr.Get(key)
	if card == nil {
		return ""
	}
	s, _ := cardValue(card.Value).(string)
	return strings.TrimSpace(s)
}

// headerMetadata returns the header cards as a plain map, without
// commentary keywords.
func headerMetadata(hdr *fitsio.Header) map[string]any {
	out := make(map[string]any)
	for _, key := range hdr.Keys() {
		switch key {
		case "", "COMMENT", "HISTORY", "END", "CONTINUE":
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		if card := hdr.Get(key); card != nil && card.Value != nil {
			out[key] = cardValue(card.Value)
		}
	}
	return out
}

// ExportFITS writes s as a primary FITS image of 64-bit floats. Evenly
// spaced grids become a 1-D flux array described by CRVAL1/CDELT1/CRPIX1,
// other grids an N x 2 array of (wavelength, flux) rows.
func ExportFITS(s *spectrum.Spectrum, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating fits file: %w", err)
	}
	defer closeWithError(f, &err)

	return WriteFITS(s, f)
}

func WriteFITS(s *spectrum.Spectrum, w io.Writer) error {
	wl, flux := s.Wavelength(), s.Flux()
	step, uniform := uniformStep(wl)

	var (
		axes  []int
		data  []float64
		cards []fitsio.Card
	)
	if uniform {
		start := 0.0
		if len(wl) > 0 {
			start = wl[0]
		}
		axes = []int{len(flux)}
		data = flux
		cards = append(cards,
			fitsio.Card{Name: "CRVAL1", Value: start, Comment: "wavelength at reference pixel"},
			fitsio.Card{Name: "CDELT1", Value: step, Comment: "wavelength step"},
			fitsio.Card{Name: "CRPIX1", Value: 1, Comment: "reference pixel"},
		)
	} else {
		axes = []int{2, len(flux)}
		data = make([]float64, 0, 2*len(flux))
		for i := range wl {
			data = append(data, wl[i], flux[i])
		}
	}
	cards = append(cards,
		fitsio.Card{Name: "CTYPE1", Value: "WAVELENGTH"},
		fitsio.Card{Name: "CUNIT1", Value: fitsString(s.WavelengthUnit())},
		fitsio.Card{Name: "BUNIT", Value: fitsString(s.FluxUnit())},
	)
	if s.Name() != "" {
		cards = append(cards, fitsio.Card{Name: "OBJECT", Value: fitsString(s.Name())})
	}
	cards = append(cards, metadataCards(s.Metadata())...)

	img := fitsio.NewImage(-64, axes)
	defer img.Close()

	if err := img.Header().Append(cards...); err != nil {
		return fmt.Errorf("building fits header: %w", err)
	}
	if err := img.Write(&data); err != nil {
		return fmt.Errorf("encoding fits data: %w", err)
	}

	var buf bytes.Buffer
	f, err := fitsio.Create(&buf)
	if err != nil {
		return fmt.Errorf("creating fits stream: %w", err)
	}
	if err = f.Write(img); err != nil {
		return fmt.Errorf("writing fits HDU: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing fits stream: %w", err)
	}

	if _, err = w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing fits file: %w", err)
	}
	return nil
}

// metadataCards turns scalar metadata into header cards keyed by their
// FITS keyword. Values FITS cannot represent are skipped.
func metadataCards(meta map[string]any) []fitsio.Card {
	var cards []fitsio.Card
	written := make(map[string]struct{})

	for _, k := range slices.Sorted(maps.Keys(meta)) {
		key := fitsKeyword(k)
		if key == "" {
			continue
		}
		if _, ok := reservedFITSKeys[key]; ok {
			continue
		}
		if _, ok := written[key]; ok {
			continue
		}

		var value any
		switch v := meta[k].(type) {
		case bool, int:
			value = v
		case int64:
			value = int(v)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			value = v
		case string:
			value = fitsString(v)
		default:
			continue
		}
		cards = append(cards, fitsio.Card{Name: key, Value: value})
		written[key] = struct{}{}
	}
	return cards
}

// fitsString shortens s so that its quoted form fits on one card.
func fitsString(s string) string {
	for len(s)+strings.Count(s, "'") > fitsMaxString {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}

// uniformStep reports the common spacing of wl when it is evenly spaced.
func uniformStep(wl []float64) (float64, bool) {
	n := len(wl)
	if n < 2 {
		return 0, true
	}
	step := (wl[n-1] - wl[0]) / float64(n-1)
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return 0, false
	}
	tol := 1e-9 * math.Abs(step)
	for i, w := range wl {
		if math.Abs(w-(wl[0]+float64(i)*step)) > tol {
			return 0, false
		}
	}
	return step, true
}

// fitsKeyword maps a metadata key onto an 8 character FITS keyword.
func fitsKeyword(key string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(key) {
		if sb.Len() == 8 {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
